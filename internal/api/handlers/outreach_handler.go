package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/internal/storage/sqlite"
)

// OutreachHandler covers campaigns, potential buyers, and market reports.
type OutreachHandler struct {
	store *sqlite.Client
}

func NewOutreachHandler(store *sqlite.Client) *OutreachHandler {
	return &OutreachHandler{store: store}
}

// ListCampaigns accepts an optional company_id filter. Without it, all
// campaigns across the user's companies are returned.
func (h *OutreachHandler) ListCampaigns(c *fiber.Ctx) error {
	var companyID *int64
	if id := c.QueryInt("company_id"); id > 0 {
		v := int64(id)
		companyID = &v
	}

	campaigns, err := h.store.ListCampaigns(authmw.UserID(c), companyID)
	if err != nil {
		return respondError(c, err, "Failed to fetch campaigns")
	}

	return c.JSON(fiber.Map{"campaigns": campaigns})
}

func (h *OutreachHandler) CreateCampaign(c *fiber.Ctx) error {
	var req struct {
		CompanyID     *int64  `json:"company_id"`
		CampaignName  string  `json:"campaign_name"`
		TargetCountry *string `json:"target_country"`
		EmailTemplate *string `json:"email_template"`
		Status        *string `json:"status"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if strings.TrimSpace(req.CampaignName) == "" {
		return badRequest(c, "Campaign name is required")
	}

	if req.CompanyID != nil {
		if _, err := h.store.GetCompany(*req.CompanyID, authmw.UserID(c)); err != nil {
			return respondError(c, err, "Failed to create campaign")
		}
	}

	campaign := models.Campaign{
		CompanyID:     req.CompanyID,
		CampaignName:  strings.TrimSpace(req.CampaignName),
		TargetCountry: trimmed(req.TargetCountry),
		EmailTemplate: req.EmailTemplate,
	}
	if req.Status != nil {
		campaign.Status = strings.TrimSpace(*req.Status)
	}

	if err := h.store.InsertCampaign(&campaign); err != nil {
		return respondError(c, err, "Failed to create campaign")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"campaign": campaign})
}

func (h *OutreachHandler) ListBuyers(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch buyers")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	buyers, err := h.store.ListBuyers(company.ID)
	if err != nil {
		return respondError(c, err, "Failed to fetch buyers")
	}

	return c.JSON(fiber.Map{"buyers": buyers})
}

func (h *OutreachHandler) CreateBuyer(c *fiber.Ctx) error {
	var req struct {
		CompanyID       int64     `json:"company_id"`
		BuyerName       string    `json:"buyer_name"`
		BuyerCountry    *string   `json:"buyer_country"`
		IndustrySegment *string   `json:"industry_segment"`
		CompanySize     *string   `json:"company_size"`
		ImportFrequency *string   `json:"import_frequency"`
		LastImportDate  *string   `json:"last_import_date"`
		MatchScore      flexFloat `json:"match_score"`
		ContactEmail    *string   `json:"contact_email"`
		ContactPhone    *string   `json:"contact_phone"`
		Website         *string   `json:"website"`
		Notes           *string   `json:"notes"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CompanyID == 0 {
		return badRequest(c, "Company ID is required")
	}
	if strings.TrimSpace(req.BuyerName) == "" {
		return badRequest(c, "Buyer name is required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create buyer")
	}

	buyer := models.PotentialBuyer{
		CompanyID:       req.CompanyID,
		BuyerName:       strings.TrimSpace(req.BuyerName),
		BuyerCountry:    trimmed(req.BuyerCountry),
		IndustrySegment: trimmed(req.IndustrySegment),
		CompanySize:     trimmed(req.CompanySize),
		ImportFrequency: trimmed(req.ImportFrequency),
		LastImportDate:  trimmed(req.LastImportDate),
		MatchScore:      req.MatchScore.Ptr(),
		ContactEmail:    trimmed(req.ContactEmail),
		ContactPhone:    trimmed(req.ContactPhone),
		Website:         trimmed(req.Website),
		Notes:           req.Notes,
	}

	if err := h.store.InsertBuyer(&buyer); err != nil {
		return respondError(c, err, "Failed to create buyer")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"buyer": buyer})
}

func (h *OutreachHandler) ListMarketReports(c *fiber.Ctx) error {
	company, err := companyFromQuery(c, h.store)
	if err != nil {
		return respondError(c, err, "Failed to fetch reports")
	}
	if company == nil {
		return badRequest(c, "Company ID is required")
	}

	reports, err := h.store.ListMarketReports(company.ID)
	if err != nil {
		return respondError(c, err, "Failed to fetch reports")
	}

	return c.JSON(fiber.Map{"reports": reports})
}

func (h *OutreachHandler) CreateMarketReport(c *fiber.Ctx) error {
	var req struct {
		CompanyID        int64     `json:"company_id"`
		ReportTitle      string    `json:"report_title"`
		ReportType       *string   `json:"report_type"`
		Country          *string   `json:"country"`
		ProductCategory  *string   `json:"product_category"`
		TotalImports     flexFloat `json:"total_imports"`
		TotalExports     flexFloat `json:"total_exports"`
		AverageUnitPrice flexFloat `json:"average_unit_price"`
		TrendDirection   *string   `json:"trend_direction"`
		KeyCompetitors   []string  `json:"key_competitors"`
		Recommendations  []string  `json:"recommendations"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CompanyID == 0 {
		return badRequest(c, "Company ID is required")
	}
	if strings.TrimSpace(req.ReportTitle) == "" {
		return badRequest(c, "Report title is required")
	}

	if _, err := h.store.GetCompany(req.CompanyID, authmw.UserID(c)); err != nil {
		return respondError(c, err, "Failed to create report")
	}

	report := models.MarketReport{
		CompanyID:        req.CompanyID,
		ReportTitle:      strings.TrimSpace(req.ReportTitle),
		ReportType:       trimmed(req.ReportType),
		Country:          trimmed(req.Country),
		ProductCategory:  trimmed(req.ProductCategory),
		TotalImports:     req.TotalImports.Ptr(),
		TotalExports:     req.TotalExports.Ptr(),
		AverageUnitPrice: req.AverageUnitPrice.Ptr(),
		TrendDirection:   trimmed(req.TrendDirection),
		KeyCompetitors:   req.KeyCompetitors,
		Recommendations:  req.Recommendations,
	}

	if err := h.store.InsertMarketReport(&report); err != nil {
		return respondError(c, err, "Failed to create report")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"report": report})
}
