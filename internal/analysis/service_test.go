package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportai/backend/internal/llm"
	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/internal/storage/sqlite"
	"github.com/exportai/backend/pkg/errs"
)

// stubCompleter returns a canned document per schema name and records
// every request it receives.
type stubCompleter struct {
	responses map[string]string
	err       error
	requests  []llm.Request
}

func (s *stubCompleter) CompleteJSON(_ context.Context, req llm.Request) (json.RawMessage, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	resp, ok := s.responses[req.SchemaName]
	if !ok {
		return nil, errors.New("no canned response for schema " + req.SchemaName)
	}
	return json.RawMessage(resp), nil
}

type stubInvalidator struct {
	companies []int64
}

func (s *stubInvalidator) InvalidateCompany(_ context.Context, companyID int64) {
	s.companies = append(s.companies, companyID)
}

func newTestStore(t *testing.T) *sqlite.Client {
	t.Helper()

	store, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema())
	return store
}

func seedCompanyAndProduct(t *testing.T, store *sqlite.Client) (int64, int64) {
	t.Helper()

	user, err := store.CreateUser("owner@example.com", nil, "hash")
	require.NoError(t, err)

	company := &models.Company{UserID: user.ID, CompanyName: "Acme Exports"}
	require.NoError(t, store.InsertCompany(company))

	hs := "620520"
	price := 12.5
	product := &models.Product{
		CompanyID:   company.ID,
		ProductName: "Cotton T-shirts",
		HSCode:      &hs,
		UnitPrice:   &price,
	}
	require.NoError(t, store.InsertProduct(product))

	return company.ID, product.ID
}

const matchingResponse = `{
  "matches": [
    {
      "target_market": "Germany",
      "match_score": 0.82,
      "market_size": "Large",
      "competition_level": "Medium",
      "entry_barriers": "Low",
      "growth_potential": "High",
      "cultural_fit": 1.4,
      "regulatory_complexity": "Medium",
      "key_advantages": ["strong demand"],
      "risk_factors": ["currency"],
      "recommendations": ["enter via distributor"]
    },
    {
      "target_market": "Japan",
      "match_score": -0.1,
      "market_size": "Medium",
      "competition_level": "High",
      "entry_barriers": "High",
      "growth_potential": "Medium",
      "cultural_fit": 0.5,
      "regulatory_complexity": "High",
      "key_advantages": [],
      "risk_factors": ["distance"],
      "recommendations": ["local partner"]
    }
  ],
  "summary": {
    "total_markets_analyzed": 2,
    "best_match_market": "Germany",
    "average_match_score": 0.46,
    "key_insights": ["Germany leads"],
    "strategic_recommendations": ["focus EU"]
  }
}`

func TestRunProductMatchingPersistsAndClamps(t *testing.T) {
	store := newTestStore(t)
	companyID, productID := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{responses: map[string]string{
		"product_market_matching": matchingResponse,
	}}
	invalidator := &stubInvalidator{}
	svc := NewService(store, completer, invalidator)

	matches, summary, err := svc.RunProductMatching(context.Background(), companyID, productID, []string{"Germany", "Japan"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.NotNil(t, summary)
	assert.Equal(t, "Germany", summary.BestMatchMarket)

	// Out-of-range scores come back clamped into [0,1].
	assert.Equal(t, 1.0, matches[0].CulturalFit)
	assert.Equal(t, 0.0, matches[1].MatchScore)

	stored, err := store.ListProductMatches(companyID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	for _, m := range stored {
		assert.GreaterOrEqual(t, m.MatchScore, 0.0)
		assert.LessOrEqual(t, m.MatchScore, 1.0)
		assert.Equal(t, "AI Analysis, Trade Statistics, Market Intelligence", m.DataSources)
	}

	assert.Equal(t, []int64{companyID}, invalidator.companies)
}

func TestRunProductMatchingRerunOverwrites(t *testing.T) {
	store := newTestStore(t)
	companyID, productID := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{responses: map[string]string{
		"product_market_matching": matchingResponse,
	}}
	svc := NewService(store, completer, nil)

	_, _, err := svc.RunProductMatching(context.Background(), companyID, productID, nil)
	require.NoError(t, err)
	_, _, err = svc.RunProductMatching(context.Background(), companyID, productID, nil)
	require.NoError(t, err)

	// Same natural keys, so a rerun never duplicates rows.
	stored, err := store.ListProductMatches(companyID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRunProductMatchingUnknownProduct(t *testing.T) {
	store := newTestStore(t)
	companyID, _ := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{responses: map[string]string{
		"product_market_matching": matchingResponse,
	}}
	svc := NewService(store, completer, nil)

	_, _, err := svc.RunProductMatching(context.Background(), companyID, 9999, nil)
	assert.True(t, errs.IsNotFound(err))
	assert.Empty(t, completer.requests)
}

const riskResponse = `{
  "overall_risk_score": 0.45,
  "risk_categories": {
    "political": 0.3,
    "economic": 0.5,
    "regulatory": 0.4,
    "currency": 0.6,
    "market": 0.35,
    "operational": 0.25
  },
  "risk_factors": ["currency volatility"],
  "mitigation_strategies": ["hedge currency exposure"],
  "recommendations": ["start with small shipments"],
  "confidence_score": 0.8,
  "summary": {
    "risk_level": "Medium",
    "primary_concerns": ["currency"],
    "market_entry_advice": "Proceed with hedging",
    "monitoring_priorities": ["exchange rates"]
  }
}`

func TestRunRiskAssessmentDefaultsAndPersists(t *testing.T) {
	store := newTestStore(t)
	companyID, _ := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{responses: map[string]string{
		"risk_assessment": riskResponse,
	}}
	svc := NewService(store, completer, nil)

	assessment, summary, err := svc.RunRiskAssessment(context.Background(), companyID, RiskParams{
		TargetMarket: "Germany",
	})
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "Medium", summary.RiskLevel)

	assert.Equal(t, "General", assessment.ProductCategory)
	assert.Equal(t, "comprehensive", assessment.RiskType)
	assert.Equal(t, 0.45, assessment.OverallRiskScore)
	assert.Equal(t, 0.6, assessment.CurrencyRisk)

	stored, err := store.ListRiskAssessments(companyID, "Germany", "")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "AI Risk Analysis, Economic Indicators, Political Data", stored[0].DataSources)
}

func TestRunRiskAssessmentCompletionFailureLeavesNoRow(t *testing.T) {
	store := newTestStore(t)
	companyID, _ := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{err: errs.Analysis("completion", errors.New("upstream timeout"))}
	invalidator := &stubInvalidator{}
	svc := NewService(store, completer, invalidator)

	_, _, err := svc.RunRiskAssessment(context.Background(), companyID, RiskParams{TargetMarket: "Germany"})
	require.Error(t, err)
	assert.True(t, errs.IsAnalysis(err))

	stored, err := store.ListRiskAssessments(companyID, "", "")
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Empty(t, invalidator.companies)
}

const trendResponse = `{
  "trends": [
    {
      "trend_type": "market_growth",
      "description": "EU textile imports accelerating",
      "trend_strength": 0.7,
      "growth_rate": 12.5,
      "confidence_score": 0.85,
      "key_indicators": ["import value growth"],
      "impact_assessment": "High",
      "opportunities": ["expand EU presence"],
      "recommendations": ["prioritize Germany"]
    }
  ],
  "summary": {
    "total_trends_identified": 1,
    "strongest_trend": "market_growth",
    "highest_opportunity": "EU expansion",
    "key_insights": ["EU demand rising"],
    "strategic_priorities": ["EU first"]
  }
}`

func TestRunTrendDetectionAppendsEachRun(t *testing.T) {
	store := newTestStore(t)
	companyID, _ := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{responses: map[string]string{
		"trend_detection": trendResponse,
	}}
	svc := NewService(store, completer, nil)

	for i := 0; i < 2; i++ {
		trends, summary, err := svc.RunTrendDetection(context.Background(), companyID, TrendParams{})
		require.NoError(t, err)
		require.Len(t, trends, 1)
		require.NotNil(t, summary)
		assert.Equal(t, "12_months", trends[0].Timeframe)
		assert.Equal(t, "global", trends[0].MarketScope)
	}

	stored, err := store.ListTrendDetections(companyID, "", "")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

const marketForecastResponse = `{
  "market_size_change": 5.2,
  "growth_percentage": 8.1,
  "estimated_value": 1200000,
  "confidence_score": 85,
  "growth_drivers": ["e-commerce"],
  "risks": ["tariffs"],
  "seasonal_trends": {
    "high_season": "Q4",
    "low_season": "Q1",
    "seasonal_variance": 0.2
  },
  "key_insights": ["steady growth"],
  "recommendations": ["increase inventory for Q4"]
}`

func TestRunPredictionScalesConfidence(t *testing.T) {
	store := newTestStore(t)
	companyID, _ := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{responses: map[string]string{
		"market_forecast": marketForecastResponse,
	}}
	svc := NewService(store, completer, nil)

	market := "Germany"
	prediction, err := svc.RunPrediction(context.Background(), companyID, PredictionParams{
		PredictionType: PredictionMarketForecast,
		TargetMarket:   &market,
		Period:         "12_months",
	})
	require.NoError(t, err)

	// Confidence arrives on a 0-100 scale and is stored as [0,1].
	assert.InDelta(t, 0.85, prediction.ConfidenceScore, 1e-9)
	assert.Equal(t, PredictionMarketForecast, prediction.PredictionType)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(prediction.PredictionData, &data))
	assert.Equal(t, 8.1, data["growth_percentage"])

	stored, err := store.ListPredictions(companyID, "", "")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRunPredictionInvalidType(t *testing.T) {
	store := newTestStore(t)
	companyID, _ := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{}
	svc := NewService(store, completer, nil)

	_, err := svc.RunPrediction(context.Background(), companyID, PredictionParams{
		PredictionType: "weather_forecast",
		Period:         "12_months",
	})
	assert.True(t, errs.IsValidation(err))
	// Rejected before any completion call.
	assert.Empty(t, completer.requests)
}

const pricingResponse = `{
  "optimal_price": 14.2,
  "price_range": {"min": 12.0, "max": 16.5},
  "profit_margin": 0.32,
  "competitiveness_score": 0.75,
  "market_positioning": "Mid-market",
  "pricing_strategy": "Penetration",
  "key_factors": ["material costs"],
  "risks": ["price war"],
  "recommendations": ["review quarterly"],
  "confidence_score": 0.8,
  "summary": {
    "price_change_percentage": 13.6,
    "expected_impact": "Positive",
    "implementation_priority": "High",
    "market_response_prediction": "Favorable",
    "key_insights": ["room to raise price"]
  }
}`

func TestRunPriceOptimizationUsesCurrentPrice(t *testing.T) {
	store := newTestStore(t)
	companyID, productID := seedCompanyAndProduct(t, store)

	completer := &stubCompleter{responses: map[string]string{
		"price_optimization": pricingResponse,
	}}
	svc := NewService(store, completer, nil)

	optimization, summary, err := svc.RunPriceOptimization(context.Background(), companyID, productID, PricingParams{})
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, "Global", optimization.TargetMarket)
	assert.Equal(t, 12.5, optimization.CurrentPrice)
	assert.Equal(t, 14.2, optimization.OptimalPrice)
	assert.Equal(t, 12.0, optimization.PriceRangeMin)
	assert.Equal(t, 16.5, optimization.PriceRangeMax)

	stored, err := store.ListPriceOptimizations(companyID, nil, "")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "AI Price Analysis, Market Data, Competitor Intelligence", stored[0].DataSources)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, clampScore(-3))
	assert.Equal(t, 1.0, clampScore(42))
	assert.Equal(t, 0.5, clampScore(0.5))
}
