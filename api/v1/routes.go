package v1

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"reportlens/internal/http/middleware"
)

// Mount registers the v1 routes under router. Archive writes require
// apiKey when it is set.
func (h *Handler) Mount(router fiber.Router, apiKey string, logger *slog.Logger) {
	api := router.Group("/api/v1")

	api.Get("/health", h.Health)
	api.Post("/summaries", h.CreateSummary)
	api.Post("/snapshots", middleware.APIKeyAuth(apiKey, logger), h.CreateSnapshot)
	api.Get("/snapshots", h.ListSnapshots)
	api.Get("/snapshots/:id", h.GetSnapshot)
}
