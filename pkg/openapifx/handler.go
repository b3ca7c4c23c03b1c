package openapifx

import (
	"github.com/go-core-fx/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"openapifx",
		logger.WithNamedLogger("openapifx"),
		fx.Provide(New),
	)
}

// Handler serves the generated OpenAPI document and its UI.
type Handler struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// Register mounts the swagger UI on the given router group.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/*", swagger.HandlerDefault)

	h.logger.Debug("openapi docs registered")
}
