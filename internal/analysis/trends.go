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

const trendDataSources = "AI Trend Analysis, Trade Statistics, Market Intelligence"

const trendSystemPrompt = `You are an expert trend analyst specializing in international trade patterns, emerging markets, and global commerce trends. Identify and analyze significant market trends with data-driven insights.`

const trendSchema = `{
  "type": "object",
  "properties": {
    "trends": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "trend_type": {"type": "string"},
          "description": {"type": "string"},
          "trend_strength": {"type": "number"},
          "growth_rate": {"type": "number"},
          "confidence_score": {"type": "number"},
          "key_indicators": {"type": "array", "items": {"type": "string"}},
          "impact_assessment": {"type": "string"},
          "opportunities": {"type": "array", "items": {"type": "string"}},
          "recommendations": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["trend_type", "description", "trend_strength", "growth_rate", "confidence_score", "key_indicators", "impact_assessment", "opportunities", "recommendations"],
        "additionalProperties": false
      }
    },
    "summary": {
      "type": "object",
      "properties": {
        "total_trends_identified": {"type": "number"},
        "strongest_trend": {"type": "string"},
        "highest_opportunity": {"type": "string"},
        "key_insights": {"type": "array", "items": {"type": "string"}},
        "strategic_priorities": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["total_trends_identified", "strongest_trend", "highest_opportunity", "key_insights", "strategic_priorities"],
      "additionalProperties": false
    }
  },
  "required": ["trends", "summary"],
  "additionalProperties": false
}`

type trendItem struct {
	TrendType        string   `json:"trend_type"`
	Description      string   `json:"description"`
	TrendStrength    float64  `json:"trend_strength"`
	GrowthRate       float64  `json:"growth_rate"`
	ConfidenceScore  float64  `json:"confidence_score"`
	KeyIndicators    []string `json:"key_indicators"`
	ImpactAssessment string   `json:"impact_assessment"`
	Opportunities    []string `json:"opportunities"`
	Recommendations  []string `json:"recommendations"`
}

// TrendSummary is advisory only and never persisted.
type TrendSummary struct {
	TotalTrendsIdentified float64  `json:"total_trends_identified"`
	StrongestTrend        string   `json:"strongest_trend"`
	HighestOpportunity    string   `json:"highest_opportunity"`
	KeyInsights           []string `json:"key_insights"`
	StrategicPriorities   []string `json:"strategic_priorities"`
}

type trendDocument struct {
	Trends  []trendItem   `json:"trends"`
	Summary *TrendSummary `json:"summary"`
}

// TrendParams carries the optional request fields. Zero values get the
// documented defaults before the prompt is rendered.
type TrendParams struct {
	AnalysisScope string
	Timeframe     string
	FocusAreas    []string
}

// RunTrendDetection surveys recent trade data and appends one row per
// detected trend. Each analysis run is a new observation, never a
// correction, so there is no upsert here.
func (s *Service) RunTrendDetection(ctx context.Context, companyID int64, params TrendParams) ([]models.TrendDetection, *TrendSummary, error) {
	start := time.Now()

	trends, summary, err := s.runTrendDetection(ctx, companyID, params)
	observe("trend_detection", start, err)
	return trends, summary, err
}

func (s *Service) runTrendDetection(ctx context.Context, companyID int64, params TrendParams) ([]models.TrendDetection, *TrendSummary, error) {
	if params.AnalysisScope == "" {
		params.AnalysisScope = "global"
	}
	if params.Timeframe == "" {
		params.Timeframe = "12_months"
	}
	if len(params.FocusAreas) == 0 {
		params.FocusAreas = []string{"market_growth", "emerging_products", "trade_patterns"}
	}

	tradeData, err := s.store.ListTradeData(trendFetchLimit)
	if err != nil {
		return nil, nil, err
	}

	raw, err := s.completer.CompleteJSON(ctx, llm.Request{
		SystemPrompt: trendSystemPrompt,
		UserPrompt:   trendUserPrompt(params, tradeData),
		SchemaName:   "trend_detection",
		Schema:       json.RawMessage(trendSchema),
	})
	if err != nil {
		return nil, nil, err
	}

	var doc trendDocument
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Trends) == 0 || doc.Summary == nil {
		return nil, nil, errs.Analysis("validate", fmt.Errorf("completion missing trends or summary"))
	}

	saved := make([]models.TrendDetection, 0, len(doc.Trends))
	for _, item := range doc.Trends {
		trend := models.TrendDetection{
			CompanyID:        companyID,
			TrendType:        item.TrendType,
			Timeframe:        params.Timeframe,
			MarketScope:      params.AnalysisScope,
			TrendStrength:    clampScore(item.TrendStrength),
			GrowthRate:       item.GrowthRate,
			ConfidenceScore:  clampScore(item.ConfidenceScore),
			TrendDescription: item.Description,
			KeyIndicators:    item.KeyIndicators,
			ImpactAssessment: item.ImpactAssessment,
			Opportunities:    item.Opportunities,
			Recommendations:  item.Recommendations,
			DataSources:      trendDataSources,
		}
		if err := s.store.InsertTrendDetection(&trend); err != nil {
			return nil, nil, err
		}
		saved = append(saved, trend)
	}

	s.invalidate(ctx, companyID)
	return saved, doc.Summary, nil
}

func trendUserPrompt(params TrendParams, tradeData []models.TradeData) string {
	var b strings.Builder

	b.WriteString("Analyze emerging trends in international trade:\n\n")
	b.WriteString("ANALYSIS PARAMETERS:\n")
	fmt.Fprintf(&b, "- Scope: %s\n", params.AnalysisScope)
	fmt.Fprintf(&b, "- Timeframe: %s\n", params.Timeframe)
	fmt.Fprintf(&b, "- Focus Areas: %s\n", strings.Join(params.FocusAreas, ", "))

	b.WriteString("\nTRADE DATA SAMPLE:\n")
	excerpt := tradeData
	if len(excerpt) > promptExcerptLimit {
		excerpt = excerpt[:promptExcerptLimit]
	}
	for _, t := range excerpt {
		fmt.Fprintf(&b, "%s - %s: $%.1fM imports, $%.1fM exports, %.1f%% growth (%d)\n",
			t.Country, t.ProductCategory, t.ImportValue, t.ExportValue, t.GrowthRate, t.Year)
	}

	b.WriteString(`
Identify and analyze significant trends:

1. EMERGING MARKET TRENDS:
   - Growing markets and sectors
   - Declining markets to avoid
   - Seasonal patterns and cycles
   - Geographic shifts in trade

2. PRODUCT & CATEGORY TRENDS:
   - Rising product categories
   - Innovation-driven changes
   - Consumer preference shifts
   - Technology impact on trade

3. TRADE PATTERN ANALYSIS:
   - New trade corridors
   - Policy-driven changes
   - Supply chain evolution
   - Economic factor impacts

4. OPPORTUNITY IDENTIFICATION:
   - Untapped markets
   - Early-mover advantages
   - Partnership opportunities
   - Investment timing insights

Provide actionable insights with trend strength ratings and confidence scores.
`)

	return b.String()
}
