package api

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppConfig controls the surfaces mounted by NewApp.
type AppConfig struct {
	StaticDir   string
	MaxUploadMB int
	// Metrics is served on /metrics when set.
	Metrics prometheus.Gatherer
}

// NewApp builds the fiber application with middleware and all routes.
func NewApp(h *Handler, cfg AppConfig) *fiber.App {
	bodyLimit := cfg.MaxUploadMB << 20
	if bodyLimit <= 0 {
		bodyLimit = 32 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:               "royalty-statement-converter",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(h.logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestLogger(h.logger))

	h.RegisterRoutes(app)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{})))
	}
	if cfg.StaticDir != "" {
		registerStatic(app, cfg.StaticDir)
	}
	return app
}

// RegisterRoutes sets up the API routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	routes := app.Group("/api")
	routes.Get("/health", h.HandleHealth)
	routes.Post("/convert", h.HandleConvert)
	routes.Post("/convert/xlsx", h.HandleConvertXLSX)
}

// registerStatic serves the React build. Unknown non-API paths get
// index.html so client-side routes work.
func registerStatic(app *fiber.App, dir string) {
	app.Static("/", dir)
	app.Get("/*", func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return fiber.ErrNotFound
		}
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		msg := err.Error()
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "status", code, "error", err)
		}
		return c.Status(code).JSON(ConvertResponse{Success: false, Error: msg})
	}
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		logger.Info("request",
			"id", requestID,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start))
		return err
	}
}
