package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/exportai/backend/internal/analysis"
	"github.com/exportai/backend/internal/api/handlers"
	"github.com/exportai/backend/internal/auth"
	"github.com/exportai/backend/internal/cache/redis"
	"github.com/exportai/backend/internal/llm"
	"github.com/exportai/backend/internal/metrics"
	authmw "github.com/exportai/backend/internal/middleware/auth"
	"github.com/exportai/backend/internal/middleware/ratelimit"
	"github.com/exportai/backend/internal/middleware/security"
	"github.com/exportai/backend/internal/middleware/validation"
	"github.com/exportai/backend/internal/notify"
	"github.com/exportai/backend/internal/storage/sqlite"
	"github.com/exportai/backend/pkg/config"
	appLogger "github.com/exportai/backend/pkg/logger"
	"github.com/exportai/backend/pkg/retry"
)

func main() {
	// .env is optional; real deployments configure via the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting ExportAI API Server")

	metrics.Init()

	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cache *redis.Client
	if cfg.Redis.Enabled {
		// Redis may come up after us; retry the initial connect only.
		// Request-path cache reads never retry.
		err := retry.Do(context.Background(), retry.Config{
			MaxAttempts:  5,
			InitialDelay: time.Second,
			Logger:       appLogger.GetLogger(),
		}, func() error {
			var err error
			cache, err = redis.NewClient(
				cfg.Redis.Host,
				cfg.Redis.Port,
				cfg.Redis.Password,
				cfg.Redis.DB,
				time.Duration(cfg.Redis.TTLSec)*time.Second,
			)
			return err
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer cache.Close()
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	analysisService := analysis.NewService(store, llmClient, cache)

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMin)
	if err != nil {
		appLogger.Fatal("Failed to create token issuer", zap.Error(err))
	}
	tokenCache := auth.NewTokenCache(issuer, 5*time.Minute)

	hub := notify.NewHub()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		metrics.RequestDuration.WithLabelValues(
			c.Method(),
			c.Route().Path,
			strconv.Itoa(c.Response().StatusCode()),
		).Observe(time.Since(start).Seconds())
		return err
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(validation.Middleware(validation.Config{
		MaxBodySize: cfg.Server.BodyLimit,
		Logger:      appLogger.GetLogger(),
	}))

	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
			Logger:               appLogger.GetLogger(),
		})
		defer limiter.Stop()
	}

	authHandler := handlers.NewAuthHandler(store, issuer, tokenCache, cfg.Auth.BcryptCost)
	profileHandler := handlers.NewProfileHandler(store)
	companyHandler := handlers.NewCompanyHandler(store)
	productHandler := handlers.NewProductHandler(store)
	outreachHandler := handlers.NewOutreachHandler(store)
	analysisHandler := handlers.NewAnalysisHandler(store, analysisService, cache)
	notificationHandler := handlers.NewNotificationHandler(store, hub)
	wsHandler := handlers.NewWebSocketHandler(store, hub)

	app.Get("/metrics", metrics.MetricsHandler())
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	app.Get("/ready", func(c *fiber.Ctx) error {
		if err := store.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
			})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	api := app.Group("/api")

	api.Post("/auth/signup", authHandler.SignUp)
	api.Post("/auth/signin", authHandler.SignIn)

	// Everything below requires a session.
	api.Use(authmw.Middleware(tokenCache))
	if limiter != nil {
		api.Use(limiter.Middleware())
	}

	api.Post("/auth/signout", authHandler.SignOut)
	api.Post("/auth/change-password", authHandler.ChangePassword)
	api.Delete("/auth/delete-account", authHandler.DeleteAccount)

	api.Get("/profile", profileHandler.GetProfile)
	api.Put("/profile", profileHandler.UpdateProfile)

	api.Get("/companies", companyHandler.ListCompanies)
	api.Post("/companies", companyHandler.CreateCompany)

	api.Get("/products", productHandler.ListProducts)
	api.Post("/products", productHandler.CreateProduct)
	api.Get("/target-markets", productHandler.ListTargetMarkets)
	api.Post("/target-markets", productHandler.CreateTargetMarket)

	api.Get("/campaigns", outreachHandler.ListCampaigns)
	api.Post("/campaigns", outreachHandler.CreateCampaign)
	api.Get("/potential-buyers", outreachHandler.ListBuyers)
	api.Post("/potential-buyers", outreachHandler.CreateBuyer)
	api.Get("/market-reports", outreachHandler.ListMarketReports)
	api.Post("/market-reports", outreachHandler.CreateMarketReport)

	api.Get("/product-matching", analysisHandler.ListProductMatches)
	api.Post("/product-matching", analysisHandler.RunProductMatching)
	api.Get("/risk-assessment", analysisHandler.ListRiskAssessments)
	api.Post("/risk-assessment", analysisHandler.RunRiskAssessment)
	api.Get("/trend-detection", analysisHandler.ListTrendDetections)
	api.Post("/trend-detection", analysisHandler.RunTrendDetection)
	api.Get("/ai-predictions", analysisHandler.ListPredictions)
	api.Post("/ai-predictions", analysisHandler.RunPrediction)
	api.Get("/price-optimization", analysisHandler.ListPriceOptimizations)
	api.Post("/price-optimization", analysisHandler.RunPriceOptimization)

	api.Get("/notifications", notificationHandler.ListNotifications)
	api.Post("/notifications", notificationHandler.CreateNotification)
	api.Put("/notifications", notificationHandler.MarkNotifications)

	app.Use("/ws", authmw.Middleware(tokenCache), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/notifications", websocket.New(wsHandler.HandleConnection))

	// Expired sessions and revocations are swept in the background.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepDone:
				return
			case <-ticker.C:
				tokenCache.Sweep()
			}
		}
	}()
	defer close(sweepDone)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
