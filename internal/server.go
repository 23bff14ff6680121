package internal

import (
	"errors"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/karloscodes/cartridge"

	v1 "reportlens/api/v1"
	"reportlens/internal/config"
	"reportlens/internal/pipeline"
)

// publicCORSConfig lets dashboards on other origins read the API.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization",
}

// NewServer builds the fiber app serving the JSON API.
func NewServer(cfg *config.Config, dbManager cartridge.DBManager, analyzer *pipeline.Analyzer, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		BodyLimit:             cfg.MaxUploadBytes,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.Error("Request failed", slog.String("path", c.Path()), slog.Any("error", err))
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(publicCORSConfig))
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		logger.Debug("Handled request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()))
		return err
	})

	v1.NewHandler(dbManager, analyzer, logger).Mount(app, cfg.APIKey, logger)
	return app
}
