package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxBodySize         int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces content-type and body-size limits on mutating
// requests before any handler parses them.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 1 * 1024 * 1024
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut && c.Method() != fiber.MethodPatch {
			return c.Next()
		}

		contentType := c.Get("Content-Type")
		if contentType != "" {
			allowed := false
			for _, allowedType := range cfg.AllowedContentTypes {
				if strings.Contains(contentType, allowedType) {
					allowed = true
					break
				}
			}
			if !allowed {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		if len(c.Body()) > cfg.MaxBodySize {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Request body too large",
					zap.String("ip", c.IP()),
					zap.String("path", c.Path()),
					zap.Int("size", len(c.Body())),
				)
			}
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Request body exceeds maximum size",
			})
		}

		return c.Next()
	}
}
