package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/exportai/backend/internal/llm"
	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/pkg/errs"
)

const pricingDataSources = "AI Price Analysis, Market Data, Competitor Intelligence"

const pricingSystemPrompt = `You are an expert pricing strategist specializing in international trade and market optimization. Analyze market conditions and provide optimal pricing recommendations with detailed strategic insights.`

const pricingSchema = `{
  "type": "object",
  "properties": {
    "optimal_price": {"type": "number"},
    "price_range": {
      "type": "object",
      "properties": {
        "min": {"type": "number"},
        "max": {"type": "number"}
      },
      "required": ["min", "max"],
      "additionalProperties": false
    },
    "profit_margin": {"type": "number"},
    "competitiveness_score": {"type": "number"},
    "market_positioning": {"type": "string"},
    "pricing_strategy": {"type": "string"},
    "key_factors": {"type": "array", "items": {"type": "string"}},
    "risks": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "confidence_score": {"type": "number"},
    "summary": {
      "type": "object",
      "properties": {
        "price_change_percentage": {"type": "number"},
        "expected_impact": {"type": "string"},
        "implementation_priority": {"type": "string"},
        "market_response_prediction": {"type": "string"},
        "key_insights": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["price_change_percentage", "expected_impact", "implementation_priority", "market_response_prediction", "key_insights"],
      "additionalProperties": false
    }
  },
  "required": ["optimal_price", "price_range", "profit_margin", "competitiveness_score", "market_positioning", "pricing_strategy", "key_factors", "risks", "recommendations", "confidence_score", "summary"],
  "additionalProperties": false
}`

type priceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PricingSummary is advisory only and never persisted.
type PricingSummary struct {
	PriceChangePercentage    float64  `json:"price_change_percentage"`
	ExpectedImpact           string   `json:"expected_impact"`
	ImplementationPriority   string   `json:"implementation_priority"`
	MarketResponsePrediction string   `json:"market_response_prediction"`
	KeyInsights              []string `json:"key_insights"`
}

type pricingDocument struct {
	OptimalPrice         float64         `json:"optimal_price"`
	PriceRange           *priceRange     `json:"price_range"`
	ProfitMargin         float64         `json:"profit_margin"`
	CompetitivenessScore float64         `json:"competitiveness_score"`
	MarketPositioning    string          `json:"market_positioning"`
	PricingStrategy      string          `json:"pricing_strategy"`
	KeyFactors           []string        `json:"key_factors"`
	Risks                []string        `json:"risks"`
	Recommendations      []string        `json:"recommendations"`
	ConfidenceScore      float64         `json:"confidence_score"`
	Summary              *PricingSummary `json:"summary"`
}

// PricingParams carries the optional request context. CompetitorData and
// MarketConditions are caller-supplied JSON echoed into the prompt.
type PricingParams struct {
	TargetMarket     string
	CompetitorData   json.RawMessage
	MarketConditions json.RawMessage
}

// RunPriceOptimization prices one product for one market and upserts the
// result on (company, product, market).
func (s *Service) RunPriceOptimization(ctx context.Context, companyID, productID int64, params PricingParams) (*models.PriceOptimization, *PricingSummary, error) {
	start := time.Now()

	optimization, summary, err := s.runPriceOptimization(ctx, companyID, productID, params)
	observe("price_optimization", start, err)
	return optimization, summary, err
}

func (s *Service) runPriceOptimization(ctx context.Context, companyID, productID int64, params PricingParams) (*models.PriceOptimization, *PricingSummary, error) {
	if params.TargetMarket == "" {
		params.TargetMarket = "Global"
	}

	product, err := s.store.GetProduct(productID, companyID)
	if err != nil {
		return nil, nil, err
	}

	var tradeData []models.TradeData
	if product.HSCode != nil {
		tradeData, err = s.store.ListTradeDataForMarket(*product.HSCode, params.TargetMarket, 10)
		if err != nil {
			return nil, nil, err
		}
	}

	raw, err := s.completer.CompleteJSON(ctx, llm.Request{
		SystemPrompt: pricingSystemPrompt,
		UserPrompt:   pricingUserPrompt(product, params, tradeData),
		SchemaName:   "price_optimization",
		Schema:       json.RawMessage(pricingSchema),
	})
	if err != nil {
		return nil, nil, err
	}

	var doc pricingDocument
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, nil, err
	}
	if doc.PriceRange == nil || doc.Summary == nil {
		return nil, nil, errs.Analysis("validate", fmt.Errorf("completion missing price range or summary"))
	}

	optimization := models.PriceOptimization{
		CompanyID:            companyID,
		ProductID:            productID,
		TargetMarket:         params.TargetMarket,
		CurrentPrice:         floatOrZero(product.UnitPrice),
		OptimalPrice:         doc.OptimalPrice,
		PriceRangeMin:        doc.PriceRange.Min,
		PriceRangeMax:        doc.PriceRange.Max,
		ProfitMargin:         doc.ProfitMargin,
		CompetitivenessScore: clampScore(doc.CompetitivenessScore),
		MarketPositioning:    doc.MarketPositioning,
		PricingStrategy:      doc.PricingStrategy,
		KeyFactors:           doc.KeyFactors,
		Risks:                doc.Risks,
		Recommendations:      doc.Recommendations,
		ConfidenceScore:      clampScore(doc.ConfidenceScore),
		DataSources:          pricingDataSources,
	}

	if err := s.store.UpsertPriceOptimization(&optimization); err != nil {
		return nil, nil, err
	}

	s.invalidate(ctx, companyID)
	return &optimization, doc.Summary, nil
}

func pricingUserPrompt(product *models.Product, params PricingParams, tradeData []models.TradeData) string {
	var b strings.Builder

	b.WriteString("Analyze optimal pricing strategy for this product:\n\n")
	b.WriteString("PRODUCT DETAILS:\n")
	fmt.Fprintf(&b, "- Name: %s\n", product.ProductName)
	fmt.Fprintf(&b, "- Category: %s\n", strOrDefault(product.Category, "Not specified"))
	fmt.Fprintf(&b, "- HS Code: %s\n", strOrDefault(product.HSCode, "Not specified"))
	fmt.Fprintf(&b, "- Current Price: %.2f %s\n", floatOrZero(product.UnitPrice), strOrDefault(product.Currency, "USD"))
	fmt.Fprintf(&b, "- Material: %s\n", strOrDefault(product.Material, "Not specified"))
	fmt.Fprintf(&b, "- Technical Specs: %s\n", strOrDefault(product.TechnicalSpecs, "Standard specifications"))

	fmt.Fprintf(&b, "\nTARGET MARKET: %s\n", params.TargetMarket)

	b.WriteString("\nMARKET DATA CONTEXT:\n")
	excerpt := tradeData
	if len(excerpt) > 5 {
		excerpt = excerpt[:5]
	}
	for _, t := range excerpt {
		fmt.Fprintf(&b, "Year %d: Import Value $%.1fM, Growth %.1f%%\n", t.Year, t.ImportValue, t.GrowthRate)
	}

	competitorData := "{}"
	if len(params.CompetitorData) > 0 {
		competitorData = string(params.CompetitorData)
	}
	marketConditions := "{}"
	if len(params.MarketConditions) > 0 {
		marketConditions = string(params.MarketConditions)
	}
	fmt.Fprintf(&b, "\nCOMPETITOR DATA: %s\n", competitorData)
	fmt.Fprintf(&b, "MARKET CONDITIONS: %s\n", marketConditions)

	b.WriteString(`
Provide comprehensive pricing optimization analysis:

1. OPTIMAL PRICING STRATEGY:
   - Recommended optimal price point
   - Pricing range (min-max)
   - Profit margin analysis
   - Market positioning strategy

2. COMPETITIVE ANALYSIS:
   - Competitiveness score vs market
   - Price sensitivity analysis
   - Value proposition assessment

3. STRATEGIC RECOMMENDATIONS:
   - Key pricing factors
   - Risk assessment
   - Implementation recommendations
   - Market entry pricing tactics

4. CONFIDENCE METRICS:
   - Analysis confidence level
   - Data quality assessment

Focus on actionable pricing strategies that maximize both competitiveness and profitability.
`)

	return b.String()
}
