package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/storage/sqlite"
)

type ProfileHandler struct {
	store *sqlite.Client
}

func NewProfileHandler(store *sqlite.Client) *ProfileHandler {
	return &ProfileHandler{store: store}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.store.GetUser(authmw.UserID(c))
	if err != nil {
		return respondError(c, err, "Failed to fetch profile")
	}

	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile applies patch semantics: only fields present in the body
// are written, trimmed. Name must be non-empty; the other fields may be
// cleared by sending an empty string.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name        *string `json:"name"`
		CompanyName *string `json:"company_name"`
		Industry    *string `json:"industry"`
		Country     *string `json:"country"`
		Phone       *string `json:"phone"`
		Address     *string `json:"address"`
		Website     *string `json:"website"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	var patch sqlite.ProfilePatch
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			patch.Name = &name
		}
	}
	patch.CompanyName = trimInPlace(req.CompanyName)
	patch.Industry = trimInPlace(req.Industry)
	patch.Country = trimInPlace(req.Country)
	patch.Phone = trimInPlace(req.Phone)
	patch.Address = trimInPlace(req.Address)
	patch.Website = trimInPlace(req.Website)

	user, err := h.store.UpdateUserProfile(authmw.UserID(c), patch)
	if err != nil {
		return respondError(c, err, "Failed to update profile")
	}

	return c.JSON(fiber.Map{"user": user})
}

// trimInPlace trims a present field but keeps empty strings, unlike
// trimmed, so clients can blank a profile field.
func trimInPlace(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
