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

const matchingDataSources = "AI Analysis, Trade Statistics, Market Intelligence"

const matchingSystemPrompt = `You are an expert international trade analyst specializing in product-market matching. Analyze products and identify the best target markets with detailed scoring and insights.`

const matchingSchema = `{
  "type": "object",
  "properties": {
    "matches": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "target_market": {"type": "string"},
          "match_score": {"type": "number"},
          "market_size": {"type": "string"},
          "competition_level": {"type": "string"},
          "entry_barriers": {"type": "string"},
          "growth_potential": {"type": "string"},
          "cultural_fit": {"type": "number"},
          "regulatory_complexity": {"type": "string"},
          "key_advantages": {"type": "array", "items": {"type": "string"}},
          "risk_factors": {"type": "array", "items": {"type": "string"}},
          "recommendations": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["target_market", "match_score", "market_size", "competition_level", "entry_barriers", "growth_potential", "cultural_fit", "regulatory_complexity", "key_advantages", "risk_factors", "recommendations"],
        "additionalProperties": false
      }
    },
    "summary": {
      "type": "object",
      "properties": {
        "total_markets_analyzed": {"type": "number"},
        "best_match_market": {"type": "string"},
        "average_match_score": {"type": "number"},
        "key_insights": {"type": "array", "items": {"type": "string"}},
        "strategic_recommendations": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["total_markets_analyzed", "best_match_market", "average_match_score", "key_insights", "strategic_recommendations"],
      "additionalProperties": false
    }
  },
  "required": ["matches", "summary"],
  "additionalProperties": false
}`

type matchItem struct {
	TargetMarket         string   `json:"target_market"`
	MatchScore           float64  `json:"match_score"`
	MarketSize           string   `json:"market_size"`
	CompetitionLevel     string   `json:"competition_level"`
	EntryBarriers        string   `json:"entry_barriers"`
	GrowthPotential      string   `json:"growth_potential"`
	CulturalFit          float64  `json:"cultural_fit"`
	RegulatoryComplexity string   `json:"regulatory_complexity"`
	KeyAdvantages        []string `json:"key_advantages"`
	RiskFactors          []string `json:"risk_factors"`
	Recommendations      []string `json:"recommendations"`
}

// MatchSummary is advisory only and never persisted.
type MatchSummary struct {
	TotalMarketsAnalyzed     float64  `json:"total_markets_analyzed"`
	BestMatchMarket          string   `json:"best_match_market"`
	AverageMatchScore        float64  `json:"average_match_score"`
	KeyInsights              []string `json:"key_insights"`
	StrategicRecommendations []string `json:"strategic_recommendations"`
}

type matchDocument struct {
	Matches []matchItem   `json:"matches"`
	Summary *MatchSummary `json:"summary"`
}

// RunProductMatching analyzes one product against candidate markets and
// upserts one row per returned market on the natural key.
func (s *Service) RunProductMatching(ctx context.Context, companyID, productID int64, targetMarkets []string) ([]models.ProductMatch, *MatchSummary, error) {
	start := time.Now()

	matches, summary, err := s.runProductMatching(ctx, companyID, productID, targetMarkets)
	observe("product_matching", start, err)
	return matches, summary, err
}

func (s *Service) runProductMatching(ctx context.Context, companyID, productID int64, targetMarkets []string) ([]models.ProductMatch, *MatchSummary, error) {
	product, err := s.store.GetProduct(productID, companyID)
	if err != nil {
		return nil, nil, err
	}

	var tradeData []models.TradeData
	if product.HSCode != nil {
		tradeData, err = s.store.ListTradeDataByHSCode(*product.HSCode, tradeDataFetchLimit)
		if err != nil {
			return nil, nil, err
		}
	}

	raw, err := s.completer.CompleteJSON(ctx, llm.Request{
		SystemPrompt: matchingSystemPrompt,
		UserPrompt:   matchingUserPrompt(product, tradeData, targetMarkets),
		SchemaName:   "product_market_matching",
		Schema:       json.RawMessage(matchingSchema),
	})
	if err != nil {
		return nil, nil, err
	}

	var doc matchDocument
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Matches) == 0 || doc.Summary == nil {
		return nil, nil, errs.Analysis("validate", fmt.Errorf("completion missing matches or summary"))
	}

	saved := make([]models.ProductMatch, 0, len(doc.Matches))
	for _, item := range doc.Matches {
		match := models.ProductMatch{
			CompanyID:            companyID,
			ProductID:            productID,
			TargetMarket:         item.TargetMarket,
			MatchScore:           clampScore(item.MatchScore),
			MarketSize:           item.MarketSize,
			CompetitionLevel:     item.CompetitionLevel,
			EntryBarriers:        item.EntryBarriers,
			GrowthPotential:      item.GrowthPotential,
			CulturalFit:          clampScore(item.CulturalFit),
			RegulatoryComplexity: item.RegulatoryComplexity,
			KeyAdvantages:        item.KeyAdvantages,
			RiskFactors:          item.RiskFactors,
			Recommendations:      item.Recommendations,
			DataSources:          matchingDataSources,
		}
		if err := s.store.UpsertProductMatch(&match); err != nil {
			return nil, nil, err
		}
		saved = append(saved, match)
	}

	s.invalidate(ctx, companyID)
	return saved, doc.Summary, nil
}

func matchingUserPrompt(product *models.Product, tradeData []models.TradeData, targetMarkets []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this product for optimal market matching:\n\n")
	fmt.Fprintf(&b, "PRODUCT DETAILS:\n")
	fmt.Fprintf(&b, "- Name: %s\n", product.ProductName)
	fmt.Fprintf(&b, "- Category: %s\n", strOrDefault(product.Category, "Not specified"))
	fmt.Fprintf(&b, "- HS Code: %s\n", strOrDefault(product.HSCode, "Not specified"))
	fmt.Fprintf(&b, "- Material: %s\n", strOrDefault(product.Material, "Not specified"))
	fmt.Fprintf(&b, "- Unit Price: %.2f %s\n", floatOrZero(product.UnitPrice), strOrDefault(product.Currency, "USD"))
	fmt.Fprintf(&b, "- Technical Specs: %s\n", strOrDefault(product.TechnicalSpecs, "Standard specifications"))

	b.WriteString("\nTRADE DATA CONTEXT:\n")
	excerpt := tradeData
	if len(excerpt) > 10 {
		excerpt = excerpt[:10]
	}
	for _, t := range excerpt {
		fmt.Fprintf(&b, "%s: Import Value $%.1fM, Growth %.1f%%\n", t.Country, t.ImportValue, t.GrowthRate)
	}

	markets := "All major markets (US, Germany, UK, France, Italy, Japan, China, Canada, Australia, Netherlands)"
	if len(targetMarkets) > 0 {
		markets = strings.Join(targetMarkets, ", ")
	}
	fmt.Fprintf(&b, "\nTARGET MARKETS TO EVALUATE: %s\n", markets)

	b.WriteString(`
Provide comprehensive market matching analysis with:

1. MATCH SCORING (0.0-1.0 scale):
   - Overall compatibility score
   - Market size assessment
   - Competition intensity
   - Entry barrier difficulty
   - Growth potential rating
   - Cultural fit score
   - Regulatory complexity

2. DETAILED ANALYSIS:
   - Key competitive advantages
   - Main risk factors
   - Strategic recommendations
   - Market entry suggestions

Focus on data-driven insights and practical business recommendations.
`)

	return b.String()
}
