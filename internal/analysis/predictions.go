package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/exportai/backend/internal/llm"
	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/pkg/errs"
)

// Prediction types the generator accepts. Anything else is a validation
// error before any external call is made.
const (
	PredictionMarketForecast   = "market_forecast"
	PredictionPriceTrend       = "price_trend"
	PredictionDemandPrediction = "demand_prediction"
)

const marketForecastSystemPrompt = `You are an expert trade analyst specializing in global market forecasting. Analyze the provided data and generate accurate market predictions.`

const priceTrendSystemPrompt = `You are a pricing analyst expert in global trade. Analyze market conditions and predict price trends with high accuracy.`

const demandPredictionSystemPrompt = `You are a demand forecasting specialist with expertise in international trade patterns and consumer behavior analysis.`

const marketForecastSchema = `{
  "type": "object",
  "properties": {
    "market_size_change": {"type": "number"},
    "growth_percentage": {"type": "number"},
    "estimated_value": {"type": "number"},
    "confidence_score": {"type": "number"},
    "growth_drivers": {"type": "array", "items": {"type": "string"}},
    "risks": {"type": "array", "items": {"type": "string"}},
    "seasonal_trends": {
      "type": "object",
      "properties": {
        "high_season": {"type": "string"},
        "low_season": {"type": "string"},
        "seasonal_variance": {"type": "number"}
      },
      "required": ["high_season", "low_season", "seasonal_variance"],
      "additionalProperties": false
    },
    "key_insights": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["market_size_change", "growth_percentage", "estimated_value", "confidence_score", "growth_drivers", "risks", "seasonal_trends", "key_insights", "recommendations"],
  "additionalProperties": false
}`

const priceTrendSchema = `{
  "type": "object",
  "properties": {
    "price_direction": {"type": "string"},
    "percentage_change": {"type": "number"},
    "volatility_level": {"type": "string"},
    "confidence_score": {"type": "number"},
    "cost_factors": {"type": "array", "items": {"type": "string"}},
    "price_drivers": {"type": "array", "items": {"type": "string"}},
    "key_insights": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["price_direction", "percentage_change", "volatility_level", "confidence_score", "cost_factors", "price_drivers", "key_insights", "recommendations"],
  "additionalProperties": false
}`

const demandPredictionSchema = `{
  "type": "object",
  "properties": {
    "demand_direction": {"type": "string"},
    "volume_change_percentage": {"type": "number"},
    "market_saturation": {"type": "string"},
    "confidence_score": {"type": "number"},
    "demand_drivers": {"type": "array", "items": {"type": "string"}},
    "consumer_trends": {"type": "array", "items": {"type": "string"}},
    "seasonal_patterns": {
      "type": "object",
      "properties": {
        "peak_months": {"type": "array", "items": {"type": "string"}},
        "low_months": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["peak_months", "low_months"],
      "additionalProperties": false
    },
    "key_insights": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["demand_direction", "volume_change_percentage", "market_saturation", "confidence_score", "demand_drivers", "consumer_trends", "seasonal_patterns", "key_insights", "recommendations"],
  "additionalProperties": false
}`

// PredictionParams carries the request fields for one prediction run.
// MarketData is arbitrary caller-supplied context echoed into the prompt.
type PredictionParams struct {
	PredictionType  string
	TargetMarket    *string
	ProductCategory *string
	HSCode          *string
	Period          string
	MarketData      json.RawMessage
}

type marketForecastDocument struct {
	MarketSizeChange float64         `json:"market_size_change"`
	GrowthPercentage float64         `json:"growth_percentage"`
	EstimatedValue   float64         `json:"estimated_value"`
	ConfidenceScore  float64         `json:"confidence_score"`
	GrowthDrivers    []string        `json:"growth_drivers"`
	Risks            []string        `json:"risks"`
	SeasonalTrends   json.RawMessage `json:"seasonal_trends"`
	KeyInsights      []string        `json:"key_insights"`
	Recommendations  []string        `json:"recommendations"`
}

type priceTrendDocument struct {
	PriceDirection   string   `json:"price_direction"`
	PercentageChange float64  `json:"percentage_change"`
	VolatilityLevel  string   `json:"volatility_level"`
	ConfidenceScore  float64  `json:"confidence_score"`
	CostFactors      []string `json:"cost_factors"`
	PriceDrivers     []string `json:"price_drivers"`
	KeyInsights      []string `json:"key_insights"`
	Recommendations  []string `json:"recommendations"`
}

type demandPredictionDocument struct {
	DemandDirection        string          `json:"demand_direction"`
	VolumeChangePercentage float64         `json:"volume_change_percentage"`
	MarketSaturation       string          `json:"market_saturation"`
	ConfidenceScore        float64         `json:"confidence_score"`
	DemandDrivers          []string        `json:"demand_drivers"`
	ConsumerTrends         []string        `json:"consumer_trends"`
	SeasonalPatterns       json.RawMessage `json:"seasonal_patterns"`
	KeyInsights            []string        `json:"key_insights"`
	Recommendations        []string        `json:"recommendations"`
}

// RunPrediction dispatches on the prediction type and appends the result
// as a new row. Confidence arrives on a 0-100 scale and is stored as
// [0,1].
func (s *Service) RunPrediction(ctx context.Context, companyID int64, params PredictionParams) (*models.AIPrediction, error) {
	start := time.Now()

	prediction, err := s.runPrediction(ctx, companyID, params)
	observe("prediction", start, err)
	return prediction, err
}

func (s *Service) runPrediction(ctx context.Context, companyID int64, params PredictionParams) (*models.AIPrediction, error) {
	var (
		systemPrompt string
		schemaName   string
		schema       string
	)

	switch params.PredictionType {
	case PredictionMarketForecast:
		systemPrompt, schemaName, schema = marketForecastSystemPrompt, "market_forecast", marketForecastSchema
	case PredictionPriceTrend:
		systemPrompt, schemaName, schema = priceTrendSystemPrompt, "price_trend", priceTrendSchema
	case PredictionDemandPrediction:
		systemPrompt, schemaName, schema = demandPredictionSystemPrompt, "demand_prediction", demandPredictionSchema
	default:
		return nil, errs.Validation("invalid prediction type")
	}

	raw, err := s.completer.CompleteJSON(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   predictionUserPrompt(params),
		SchemaName:   schemaName,
		Schema:       json.RawMessage(schema),
	})
	if err != nil {
		return nil, err
	}

	prediction := models.AIPrediction{
		CompanyID:       companyID,
		PredictionType:  params.PredictionType,
		TargetMarket:    params.TargetMarket,
		ProductCategory: params.ProductCategory,
		HSCode:          params.HSCode,
		Period:          params.Period,
	}

	switch params.PredictionType {
	case PredictionMarketForecast:
		var doc marketForecastDocument
		if err := decodeStrict(raw, &doc); err != nil {
			return nil, err
		}
		data, err := json.Marshal(map[string]interface{}{
			"market_size_change": doc.MarketSizeChange,
			"growth_percentage":  doc.GrowthPercentage,
			"estimated_value":    doc.EstimatedValue,
			"seasonal_trends":    doc.SeasonalTrends,
		})
		if err != nil {
			return nil, errs.Analysis("validate", err)
		}
		prediction.ConfidenceScore = clampScore(doc.ConfidenceScore / 100)
		prediction.PredictionData = data
		prediction.KeyInsights = doc.KeyInsights
		prediction.Recommendations = doc.Recommendations
		prediction.DataSources = "AI Analysis, Trade Statistics, Market Intelligence"

	case PredictionPriceTrend:
		var doc priceTrendDocument
		if err := decodeStrict(raw, &doc); err != nil {
			return nil, err
		}
		data, err := json.Marshal(map[string]interface{}{
			"price_direction":   doc.PriceDirection,
			"percentage_change": doc.PercentageChange,
			"volatility_level":  doc.VolatilityLevel,
			"cost_factors":      doc.CostFactors,
		})
		if err != nil {
			return nil, errs.Analysis("validate", err)
		}
		prediction.ConfidenceScore = clampScore(doc.ConfidenceScore / 100)
		prediction.PredictionData = data
		prediction.KeyInsights = doc.KeyInsights
		prediction.Recommendations = doc.Recommendations
		prediction.DataSources = "AI Price Analysis, Market Data, Economic Indicators"

	case PredictionDemandPrediction:
		var doc demandPredictionDocument
		if err := decodeStrict(raw, &doc); err != nil {
			return nil, err
		}
		data, err := json.Marshal(map[string]interface{}{
			"demand_direction":         doc.DemandDirection,
			"volume_change_percentage": doc.VolumeChangePercentage,
			"market_saturation":        doc.MarketSaturation,
			"seasonal_patterns":        doc.SeasonalPatterns,
		})
		if err != nil {
			return nil, errs.Analysis("validate", err)
		}
		prediction.ConfidenceScore = clampScore(doc.ConfidenceScore / 100)
		prediction.PredictionData = data
		prediction.KeyInsights = doc.KeyInsights
		prediction.Recommendations = doc.Recommendations
		prediction.DataSources = "AI Demand Analysis, Consumer Data, Trade Statistics"
	}

	if err := s.store.InsertPrediction(&prediction); err != nil {
		return nil, err
	}

	s.invalidate(ctx, companyID)
	return &prediction, nil
}

func predictionUserPrompt(params PredictionParams) string {
	marketData := "{}"
	if len(params.MarketData) > 0 {
		marketData = string(params.MarketData)
	}

	header := fmt.Sprintf(
		"- Target Market: %s\n- Product Category: %s\n- HS Code: %s\n- Forecast Period: %s\n- Market Data: %s\n",
		strOrDefault(params.TargetMarket, "Global"),
		strOrDefault(params.ProductCategory, "General"),
		strOrDefault(params.HSCode, "Not specified"),
		params.Period,
		marketData,
	)

	switch params.PredictionType {
	case PredictionPriceTrend:
		return "Analyze price trends for:\n" + header + `
Provide detailed price analysis including:
1. Price direction (increase/decrease/stable)
2. Expected percentage change
3. Price volatility assessment
4. Cost factor analysis (raw materials, shipping, regulations)
5. Competitive pricing impact
6. Currency exchange effects
7. Confidence level
`
	case PredictionDemandPrediction:
		return "Predict demand patterns for:\n" + header + `
Analyze:
1. Demand growth/decline predictions
2. Consumer behavior shifts
3. Market saturation levels
4. Import/export volume forecasts
5. Seasonal demand patterns
6. Economic impact on demand
7. Competitive substitution risks
`
	default:
		return "Generate a comprehensive market forecast for:\n" + header + `
Please provide:
1. Market size predictions (growth percentage, value estimates)
2. Key growth drivers and risks
3. Competitive landscape changes
4. Consumer demand trends
5. Economic factors impact
6. Seasonal variations
7. Confidence level (0-100%)

Format your response as structured analysis with specific numerical predictions where possible.
`
	}
}
