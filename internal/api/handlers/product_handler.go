package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/internal/storage/sqlite"
)

type ProductHandler struct {
	store *sqlite.Client
}

func NewProductHandler(store *sqlite.Client) *ProductHandler {
	return &ProductHandler{store: store}
}

// companyFromQuery resolves the company_id query parameter and confirms
// the session user owns it. Rows from other tenants are indistinguishable
// from missing ones.
func companyFromQuery(c *fiber.Ctx, store *sqlite.Client) (*models.Company, error) {
	companyID := c.QueryInt("company_id")
	if companyID <= 0 {
		return nil, nil
	}
	return store.GetCompany(int64(companyID), authmw.UserID(c))
}

func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch products")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	products, err := h.store.ListProducts(company.ID)
	if err != nil {
		return respondError(c, err, "Failed to fetch products")
	}

	return c.JSON(fiber.Map{"products": products})
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req struct {
		CompanyID      int64     `json:"company_id"`
		ProductName    string    `json:"product_name"`
		HSCode         *string   `json:"hs_code"`
		Category       *string   `json:"category"`
		Material       *string   `json:"material"`
		TechnicalSpecs *string   `json:"technical_specs"`
		UnitPrice      flexFloat `json:"unit_price"`
		Currency       *string   `json:"currency"`
		Description    *string   `json:"description"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CompanyID == 0 {
		return badRequest(c, "Company ID is required")
	}
	if strings.TrimSpace(req.ProductName) == "" {
		return badRequest(c, "Product name is required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create product")
	}

	product := models.Product{
		CompanyID:      req.CompanyID,
		ProductName:    strings.TrimSpace(req.ProductName),
		HSCode:         trimmed(req.HSCode),
		Category:       trimmed(req.Category),
		Material:       trimmed(req.Material),
		TechnicalSpecs: trimmed(req.TechnicalSpecs),
		UnitPrice:      req.UnitPrice.Ptr(),
		Currency:       trimmed(req.Currency),
		Description:    trimmed(req.Description),
	}

	if err := h.store.InsertProduct(&product); err != nil {
		return respondError(c, err, "Failed to create product")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"product": product})
}

func (h *ProductHandler) ListTargetMarkets(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch target markets")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	markets, err := h.store.ListTargetMarkets(company.ID)
	if err != nil {
		return respondError(c, err, "Failed to fetch target markets")
	}

	return c.JSON(fiber.Map{"target_markets": markets})
}

func (h *ProductHandler) CreateTargetMarket(c *fiber.Ctx) error {
	var req struct {
		ProductID        int64     `json:"product_id"`
		CompanyID        int64     `json:"company_id"`
		Country          string    `json:"country"`
		MarketPotential  *string   `json:"market_potential"`
		ImportVolume     flexFloat `json:"import_volume"`
		AveragePrice     flexFloat `json:"average_price"`
		GrowthRate       flexFloat `json:"growth_rate"`
		CompetitionLevel *string   `json:"competition_level"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.ProductID == 0 {
		return badRequest(c, "Product ID is required")
	}
	if req.CompanyID == 0 {
		return badRequest(c, "Company ID is required")
	}
	if strings.TrimSpace(req.Country) == "" {
		return badRequest(c, "Country is required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create target market")
	}
	if _, err := h.store.GetProduct(req.ProductID, req.CompanyID); err != nil {
		return respondError(c, err, "Failed to create target market")
	}

	market := models.TargetMarket{
		ProductID:        req.ProductID,
		Country:          strings.TrimSpace(req.Country),
		MarketPotential:  trimmed(req.MarketPotential),
		ImportVolume:     req.ImportVolume.Ptr(),
		AveragePrice:     req.AveragePrice.Ptr(),
		GrowthRate:       req.GrowthRate.Ptr(),
		CompetitionLevel: trimmed(req.CompetitionLevel),
	}

	if err := h.store.InsertTargetMarket(&market); err != nil {
		return respondError(c, err, "Failed to create target market")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"target_market": market})
}
