package agents

import (
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/agents"
	"go.uber.org/zap"
)

type Handler struct {
	registry *agents.Registry

	logger *zap.Logger
}

func NewHandler(registry *agents.Registry, logger *zap.Logger) handler.Handler {
	return &Handler{
		registry: registry,

		logger: logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/agents")

	r.Get("/", h.list)
	r.Get("/:serverID", h.get)
}

//	@Summary		List agent connections
//	@Description	List the currently connected agents
//	@Tags			agents
//	@Accept			json
//	@Produce		json
//	@Success		200	{array}	agents.AgentConnection
//	@Router			/agents [get]
//
// List agent connections.
func (h *Handler) list(c *fiber.Ctx) error {
	return c.JSON(h.registry.Connections())
}

//	@Summary		Get a server's agent connection
//	@Description	Report connectivity of a specific server's agent
//	@Tags			agents
//	@Accept			json
//	@Produce		json
//	@Param			serverID	path		string	true	"Server ID"
//	@Success		200			{object}	agents.AgentConnection
//	@Failure		400			{object}	fiberfx.ErrorResponse
//	@Router			/agents/{serverID} [get]
//
// Get a server's agent connection.
func (h *Handler) get(c *fiber.Ctx) error {
	serverID, err := uuid.Parse(c.Params("serverID"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(h.registry.Connection(serverID))
}
