package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/exportai/backend/internal/auth"
	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/storage/sqlite"
	"github.com/exportai/backend/pkg/errs"
	"github.com/exportai/backend/pkg/logger"
)

type AuthHandler struct {
	store      *sqlite.Client
	issuer     *auth.TokenIssuer
	tokenCache *auth.TokenCache
	bcryptCost int
}

func NewAuthHandler(store *sqlite.Client, issuer *auth.TokenIssuer, tokenCache *auth.TokenCache, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		store:      store,
		issuer:     issuer,
		tokenCache: tokenCache,
		bcryptCost: bcryptCost,
	}
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req struct {
		Email    string  `json:"email"`
		Password string  `json:"password"`
		Name     *string `json:"name"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return badRequest(c, "A valid email is required")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return badRequest(c, fmt.Sprintf("Password must be at least %d characters long", auth.MinPasswordLength))
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		return respondError(c, err, "Failed to create account")
	}

	user, err := h.store.CreateUser(email, trimmed(req.Name), hash)
	if err != nil {
		if errs.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "An account with this email already exists",
			})
		}
		return respondError(c, err, "Failed to create account")
	}

	token, _, err := h.issuer.Issue(user.ID)
	if err != nil {
		return respondError(c, err, "Failed to create account")
	}

	logger.Info("User signed up", zap.Int64("user_id", user.ID))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	user, hash, err := h.store.GetUserByEmail(email)
	if err != nil || hash == "" || !auth.VerifyPassword(hash, req.Password) {
		// Same response for unknown email and bad password.
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	token, _, err := h.issuer.Issue(user.ID)
	if err != nil {
		return respondError(c, err, "Failed to sign in")
	}

	logger.Info("User signed in", zap.Int64("user_id", user.ID))

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// SignOut revokes the presented session. The revocation is held until the
// token itself expires, so the session stays dead across cache sweeps.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if token, _ := c.Locals("token").(string); token != "" {
		if err := h.tokenCache.RevokeToken(token); err != nil {
			logger.Warn("Failed to revoke session", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID := authmw.UserID(c)

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return badRequest(c, "Current password and new password are required")
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		return badRequest(c, fmt.Sprintf("New password must be at least %d characters long", auth.MinPasswordLength))
	}

	hash, err := h.store.GetCredential(userID)
	if err != nil {
		if errs.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found or no password set",
			})
		}
		return respondError(c, err, "Failed to change password")
	}

	if !auth.VerifyPassword(hash, req.CurrentPassword) {
		return badRequest(c, "Current password is incorrect")
	}

	newHash, err := auth.HashPassword(req.NewPassword, h.bcryptCost)
	if err != nil {
		return respondError(c, err, "Failed to change password")
	}

	if err := h.store.UpdatePassword(userID, newHash); err != nil {
		return respondError(c, err, "Failed to change password")
	}

	logger.Info("Password changed", zap.Int64("user_id", userID))

	return c.JSON(fiber.Map{"success": true})
}

// DeleteAccount removes the user and all owned data, then revokes the
// presented session.
func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	userID := authmw.UserID(c)

	if err := h.store.DeleteUser(userID); err != nil {
		return respondError(c, err, "Failed to delete account")
	}

	if token, _ := c.Locals("token").(string); token != "" {
		if err := h.tokenCache.RevokeToken(token); err != nil {
			logger.Warn("Failed to revoke session", zap.Error(err))
		}
	}

	logger.Info("Account deleted", zap.Int64("user_id", userID))

	return c.JSON(fiber.Map{"success": true})
}
