package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"shoptrend-go/pkg/logger"
)

type ServerConfig struct {
	CORSOrigins  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// NewApp creates the Fiber app with middleware and all routes registered.
func NewApp(ctl *Controller, config ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "shoptrend-go " + Version,
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          ctl.handleError,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestLogger(logger.GetLogger().WithField("component", "http")))
	if config.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: config.CORSOrigins,
			AllowMethods: "GET,POST,OPTIONS",
		}))
	}

	app.Get("/", ctl.Index)

	api := app.Group("/api")
	api.Get("/trends", ctl.Trends)
	api.Get("/trends/:limit", ctl.TopTrends)
	api.Post("/refresh", ctl.Refresh)
	api.Get("/health", ctl.Health)

	if config.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(config.Metrics))
	}

	return app
}

// handleError renders unmatched routes and handler errors in the API error
// envelope.
func (ctl *Controller) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	if status >= fiber.StatusInternalServerError {
		ctl.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
	}
	return ctl.fail(c, status, err.Error())
}

// requestLogger logs one line per request, skipping health checks and
// metric scrapes.
func requestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/api/health" || path == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		log.WithFields(map[string]interface{}{
			"method":   c.Method(),
			"path":     path,
			"status":   status,
			"duration": time.Since(start).String(),
			"ip":       c.IP(),
		}).Info("HTTP request")
		return err
	}
}
