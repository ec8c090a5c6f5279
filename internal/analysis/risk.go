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

const riskDataSources = "AI Risk Analysis, Economic Indicators, Political Data"

const riskSystemPrompt = `You are an expert international trade risk analyst with deep knowledge of global markets, political stability, economic indicators, and regulatory environments.`

const riskSchema = `{
  "type": "object",
  "properties": {
    "overall_risk_score": {"type": "number"},
    "risk_categories": {
      "type": "object",
      "properties": {
        "political": {"type": "number"},
        "economic": {"type": "number"},
        "regulatory": {"type": "number"},
        "currency": {"type": "number"},
        "market": {"type": "number"},
        "operational": {"type": "number"}
      },
      "required": ["political", "economic", "regulatory", "currency", "market", "operational"],
      "additionalProperties": false
    },
    "risk_factors": {"type": "array", "items": {"type": "string"}},
    "mitigation_strategies": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "confidence_score": {"type": "number"},
    "summary": {
      "type": "object",
      "properties": {
        "risk_level": {"type": "string"},
        "primary_concerns": {"type": "array", "items": {"type": "string"}},
        "market_entry_advice": {"type": "string"},
        "monitoring_priorities": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["risk_level", "primary_concerns", "market_entry_advice", "monitoring_priorities"],
      "additionalProperties": false
    }
  },
  "required": ["overall_risk_score", "risk_categories", "risk_factors", "mitigation_strategies", "recommendations", "confidence_score", "summary"],
  "additionalProperties": false
}`

type riskCategories struct {
	Political   float64 `json:"political"`
	Economic    float64 `json:"economic"`
	Regulatory  float64 `json:"regulatory"`
	Currency    float64 `json:"currency"`
	Market      float64 `json:"market"`
	Operational float64 `json:"operational"`
}

// RiskSummary is advisory only and never persisted.
type RiskSummary struct {
	RiskLevel            string   `json:"risk_level"`
	PrimaryConcerns      []string `json:"primary_concerns"`
	MarketEntryAdvice    string   `json:"market_entry_advice"`
	MonitoringPriorities []string `json:"monitoring_priorities"`
}

type riskDocument struct {
	OverallRiskScore     float64         `json:"overall_risk_score"`
	RiskCategories       *riskCategories `json:"risk_categories"`
	RiskFactors          []string        `json:"risk_factors"`
	MitigationStrategies []string        `json:"mitigation_strategies"`
	Recommendations      []string        `json:"recommendations"`
	ConfidenceScore      float64         `json:"confidence_score"`
	Summary              *RiskSummary    `json:"summary"`
}

// RiskParams carries the optional request fields with their defaults
// already applied by the handler.
type RiskParams struct {
	TargetMarket    string
	ProductCategory string
	AssessmentType  string
}

// RunRiskAssessment generates one assessment for a company and market and
// upserts it on (company, market, product category).
func (s *Service) RunRiskAssessment(ctx context.Context, companyID int64, params RiskParams) (*models.RiskAssessment, *RiskSummary, error) {
	start := time.Now()

	assessment, summary, err := s.runRiskAssessment(ctx, companyID, params)
	observe("risk_assessment", start, err)
	return assessment, summary, err
}

func (s *Service) runRiskAssessment(ctx context.Context, companyID int64, params RiskParams) (*models.RiskAssessment, *RiskSummary, error) {
	if params.ProductCategory == "" {
		params.ProductCategory = "General"
	}
	if params.AssessmentType == "" {
		params.AssessmentType = "comprehensive"
	}

	raw, err := s.completer.CompleteJSON(ctx, llm.Request{
		SystemPrompt: riskSystemPrompt,
		UserPrompt:   riskUserPrompt(params),
		SchemaName:   "risk_assessment",
		Schema:       json.RawMessage(riskSchema),
	})
	if err != nil {
		return nil, nil, err
	}

	var doc riskDocument
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, nil, err
	}
	if doc.RiskCategories == nil || doc.Summary == nil {
		return nil, nil, errs.Analysis("validate", fmt.Errorf("completion missing risk categories or summary"))
	}

	assessment := models.RiskAssessment{
		CompanyID:            companyID,
		TargetMarket:         params.TargetMarket,
		ProductCategory:      params.ProductCategory,
		RiskType:             params.AssessmentType,
		OverallRiskScore:     clampScore(doc.OverallRiskScore),
		PoliticalRisk:        clampScore(doc.RiskCategories.Political),
		EconomicRisk:         clampScore(doc.RiskCategories.Economic),
		RegulatoryRisk:       clampScore(doc.RiskCategories.Regulatory),
		CurrencyRisk:         clampScore(doc.RiskCategories.Currency),
		MarketRisk:           clampScore(doc.RiskCategories.Market),
		OperationalRisk:      clampScore(doc.RiskCategories.Operational),
		RiskFactors:          doc.RiskFactors,
		MitigationStrategies: doc.MitigationStrategies,
		Recommendations:      doc.Recommendations,
		ConfidenceScore:      clampScore(doc.ConfidenceScore),
		DataSources:          riskDataSources,
	}

	if err := s.store.UpsertRiskAssessment(&assessment); err != nil {
		return nil, nil, err
	}

	s.invalidate(ctx, companyID)
	return &assessment, doc.Summary, nil
}

func riskUserPrompt(params RiskParams) string {
	return fmt.Sprintf(`
Conduct comprehensive risk assessment for international trade:

TARGET MARKET: %s
PRODUCT CATEGORY: %s
ASSESSMENT TYPE: %s

Analyze all major risk categories and provide detailed assessment:

1. POLITICAL RISK ANALYSIS:
   - Government stability
   - Trade policy changes
   - Regulatory environment
   - International relations

2. ECONOMIC RISK FACTORS:
   - Currency volatility
   - Inflation rates
   - GDP growth stability
   - Economic policy changes

3. MARKET & OPERATIONAL RISKS:
   - Market competition
   - Consumer behavior shifts
   - Supply chain disruptions
   - Infrastructure challenges

4. REGULATORY & COMPLIANCE:
   - Import/export regulations
   - Product standards
   - Certification requirements
   - Tax implications

Provide actionable insights with risk scores (0.0-1.0) and mitigation strategies.
`, params.TargetMarket, params.ProductCategory, params.AssessmentType)
}
