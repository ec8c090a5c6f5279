package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/internal/storage/sqlite"
)

type CompanyHandler struct {
	store *sqlite.Client
}

func NewCompanyHandler(store *sqlite.Client) *CompanyHandler {
	return &CompanyHandler{store: store}
}

// ListCompanies returns the session user's companies, newest first.
func (h *CompanyHandler) ListCompanies(c *fiber.Ctx) error {
	userID := authmw.UserID(c)

	companies, err := h.store.ListCompanies(userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch companies")
	}

	return c.JSON(fiber.Map{"companies": companies})
}

func (h *CompanyHandler) CreateCompany(c *fiber.Ctx) error {
	userID := authmw.UserID(c)

	var req struct {
		CompanyName   string    `json:"company_name"`
		Industry      *string   `json:"industry"`
		Country       *string   `json:"country"`
		EmployeeCount *string   `json:"employee_count"`
		AnnualRevenue flexFloat `json:"annual_revenue"`
		Website       *string   `json:"website"`
		Description   *string   `json:"description"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if strings.TrimSpace(req.CompanyName) == "" {
		return badRequest(c, "Company name is required")
	}

	company := models.Company{
		UserID:        userID,
		CompanyName:   strings.TrimSpace(req.CompanyName),
		Industry:      trimmed(req.Industry),
		Country:       trimmed(req.Country),
		EmployeeCount: trimmed(req.EmployeeCount),
		AnnualRevenue: req.AnnualRevenue.Ptr(),
		Website:       trimmed(req.Website),
		Description:   trimmed(req.Description),
	}

	if err := h.store.InsertCompany(&company); err != nil {
		return respondError(c, err, "Failed to create company")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"company": company})
}
