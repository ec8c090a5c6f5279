package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/exportai/backend/internal/auth"
	"github.com/exportai/backend/pkg/logger"
)

// UserIDKey is the locals key downstream handlers read the authenticated
// user id from.
const UserIDKey = "user_id"

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(token string) (int64, error)
}

// Middleware authenticates requests via the Authorization header. Tokens
// may also arrive in the "token" query parameter for websocket upgrades,
// where browsers cannot set headers.
func Middleware(verifier Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			if err != auth.ErrSessionRevoked {
				logger.Debug("Token verification failed", zap.Error(err))
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		c.Locals(UserIDKey, userID)
		c.Locals("token", token)
		return c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(UserIDKey).(int64)
	return id
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
