package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/exportai/backend/internal/analysis"
	"github.com/exportai/backend/internal/cache/redis"
	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/storage/sqlite"
	"github.com/exportai/backend/pkg/utils"
)

const defaultMinScore = 0.5

// AnalysisHandler fronts the five analysis generators and their list
// endpoints. List reads go through the company-scoped cache when one is
// configured; generator POSTs invalidate it.
type AnalysisHandler struct {
	store   *sqlite.Client
	service *analysis.Service
	cache   *redis.Client
}

func NewAnalysisHandler(store *sqlite.Client, service *analysis.Service, cache *redis.Client) *AnalysisHandler {
	return &AnalysisHandler{
		store:   store,
		service: service,
		cache:   cache,
	}
}

// cachedList serves a list response from the cache when possible, falling
// back to fetch and caching the result. Cache failures degrade to a plain
// fetch.
func (h *AnalysisHandler) cachedList(c *fiber.Ctx, companyID int64, listKey, errMsg string, fetch func() (interface{}, error)) error {
	var cached json.RawMessage
	ok, err := h.cache.GetAnalysisList(c.Context(), companyID, listKey, &cached)
	if err == nil && ok {
		c.Set("Content-Type", "application/json")
		return c.Send(cached)
	}

	result, err := fetch()
	if err != nil {
		return respondError(c, err, errMsg)
	}

	_ = h.cache.SetAnalysisList(c.Context(), companyID, listKey, result)
	return c.JSON(result)
}

func (h *AnalysisHandler) ListProductMatches(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch matches")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	var productID *int64
	if id := c.QueryInt("product_id"); id > 0 {
		v := int64(id)
		productID = &v
	}

	minScore := defaultMinScore
	if raw := c.Query("min_score"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			minScore = v
		}
	}

	listKey := utils.CacheKey("matches", c.Query("product_id"), c.Query("min_score"))
	return h.cachedList(c, company.ID, listKey, "Failed to fetch matches", func() (interface{}, error) {
		matches, err := h.store.ListProductMatches(company.ID, productID, minScore)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"matches": matches}, nil
	})
}

func (h *AnalysisHandler) RunProductMatching(c *fiber.Ctx) error {
	var req struct {
		CompanyID     int64    `json:"company_id"`
		ProductID     int64    `json:"product_id"`
		TargetMarkets []string `json:"target_markets"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CompanyID == 0 || req.ProductID == 0 {
		return badRequest(c, "Company ID and Product ID are required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create matches")
	}

	matches, summary, err := h.service.RunProductMatching(c.Context(), req.CompanyID, req.ProductID, req.TargetMarkets)
	if err != nil {
		return respondError(c, err, "Failed to create matches")
	}

	return c.JSON(fiber.Map{
		"matches":          matches,
		"analysis_summary": summary,
		"status":           "success",
	})
}

func (h *AnalysisHandler) ListRiskAssessments(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch assessments")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	targetMarket := c.Query("target_market")
	riskType := c.Query("risk_type")

	listKey := utils.CacheKey("assessments", targetMarket, riskType)
	return h.cachedList(c, company.ID, listKey, "Failed to fetch assessments", func() (interface{}, error) {
		assessments, err := h.store.ListRiskAssessments(company.ID, targetMarket, riskType)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"assessments": assessments}, nil
	})
}

func (h *AnalysisHandler) RunRiskAssessment(c *fiber.Ctx) error {
	var req struct {
		CompanyID       int64  `json:"company_id"`
		TargetMarket    string `json:"target_market"`
		ProductCategory string `json:"product_category"`
		AssessmentType  string `json:"assessment_type"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CompanyID == 0 || req.TargetMarket == "" {
		return badRequest(c, "Company ID and target market are required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create assessment")
	}

	assessment, summary, err := h.service.RunRiskAssessment(c.Context(), req.CompanyID, analysis.RiskParams{
		TargetMarket:    req.TargetMarket,
		ProductCategory: req.ProductCategory,
		AssessmentType:  req.AssessmentType,
	})
	if err != nil {
		return respondError(c, err, "Failed to create assessment")
	}

	return c.JSON(fiber.Map{
		"assessment":       assessment,
		"analysis_summary": summary,
		"status":           "success",
	})
}

func (h *AnalysisHandler) ListTrendDetections(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch trends")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	trendType := c.Query("trend_type")
	timeframe := c.Query("timeframe")

	listKey := utils.CacheKey("trends", trendType, timeframe)
	return h.cachedList(c, company.ID, listKey, "Failed to fetch trends", func() (interface{}, error) {
		trends, err := h.store.ListTrendDetections(company.ID, trendType, timeframe)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"trends": trends}, nil
	})
}

func (h *AnalysisHandler) RunTrendDetection(c *fiber.Ctx) error {
	var req struct {
		CompanyID     int64    `json:"company_id"`
		AnalysisScope string   `json:"analysis_scope"`
		Timeframe     string   `json:"timeframe"`
		FocusAreas    []string `json:"focus_areas"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CompanyID == 0 {
		return badRequest(c, "Company ID is required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create trend analysis")
	}

	trends, summary, err := h.service.RunTrendDetection(c.Context(), req.CompanyID, analysis.TrendParams{
		AnalysisScope: req.AnalysisScope,
		Timeframe:     req.Timeframe,
		FocusAreas:    req.FocusAreas,
	})
	if err != nil {
		return respondError(c, err, "Failed to create trend analysis")
	}

	return c.JSON(fiber.Map{
		"trends":           trends,
		"analysis_summary": summary,
		"status":           "success",
	})
}

func (h *AnalysisHandler) ListPredictions(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch predictions")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	predictionType := c.Query("type")
	period := c.Query("period")

	listKey := utils.CacheKey("predictions", predictionType, period)
	return h.cachedList(c, company.ID, listKey, "Failed to fetch predictions", func() (interface{}, error) {
		predictions, err := h.store.ListPredictions(company.ID, predictionType, period)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"predictions": predictions}, nil
	})
}

func (h *AnalysisHandler) RunPrediction(c *fiber.Ctx) error {
	var req struct {
		CompanyID       int64           `json:"company_id"`
		PredictionType  string          `json:"prediction_type"`
		TargetMarket    *string         `json:"target_market"`
		ProductCategory *string         `json:"product_category"`
		HSCode          *string         `json:"hs_code"`
		Period          string          `json:"period"`
		MarketData      json.RawMessage `json:"market_data"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CompanyID == 0 || req.PredictionType == "" || req.Period == "" {
		return badRequest(c, "Company ID, prediction type, and period are required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create prediction")
	}

	prediction, err := h.service.RunPrediction(c.Context(), req.CompanyID, analysis.PredictionParams{
		PredictionType:  req.PredictionType,
		TargetMarket:    trimmed(req.TargetMarket),
		ProductCategory: trimmed(req.ProductCategory),
		HSCode:          trimmed(req.HSCode),
		Period:          req.Period,
		MarketData:      req.MarketData,
	})
	if err != nil {
		return respondError(c, err, "Failed to create prediction")
	}

	return c.JSON(fiber.Map{
		"prediction": prediction,
		"status":     "success",
	})
}

func (h *AnalysisHandler) ListPriceOptimizations(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch optimizations")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	var productID *int64
	if id := c.QueryInt("product_id"); id > 0 {
		v := int64(id)
		productID = &v
	}
	targetMarket := c.Query("target_market")

	listKey := utils.CacheKey("optimizations", c.Query("product_id"), targetMarket)
	return h.cachedList(c, company.ID, listKey, "Failed to fetch optimizations", func() (interface{}, error) {
		optimizations, err := h.store.ListPriceOptimizations(company.ID, productID, targetMarket)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"optimizations": optimizations}, nil
	})
}

func (h *AnalysisHandler) RunPriceOptimization(c *fiber.Ctx) error {
	var req struct {
		CompanyID        int64           `json:"company_id"`
		ProductID        int64           `json:"product_id"`
		TargetMarket     string          `json:"target_market"`
		CompetitorData   json.RawMessage `json:"competitor_data"`
		MarketConditions json.RawMessage `json:"market_conditions"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CompanyID == 0 || req.ProductID == 0 {
		return badRequest(c, "Company ID and Product ID are required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create optimization")
	}

	optimization, summary, err := h.service.RunPriceOptimization(c.Context(), req.CompanyID, req.ProductID, analysis.PricingParams{
		TargetMarket:     req.TargetMarket,
		CompetitorData:   req.CompetitorData,
		MarketConditions: req.MarketConditions,
	})
	if err != nil {
		return respondError(c, err, "Failed to create optimization")
	}

	return c.JSON(fiber.Map{
		"optimization":     optimization,
		"analysis_summary": summary,
		"status":           "success",
	})
}
