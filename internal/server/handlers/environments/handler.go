package environments

import (
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/environments"
	"github.com/syntra/syntra/internal/server/validation"
	"go.uber.org/zap"
)

type Handler struct {
	environmentsSvc *environments.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	environmentsSvc *environments.Service,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		environmentsSvc: environmentsSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/environments")

	r.Use(h.errorsHandler)
	r.Get("/", h.list)
	r.Get("/:id", h.get)
	r.Post("/:id/lock", validation.DecorateWithBodyEx(h.validator, h.lock))
	r.Post("/:id/unlock", h.unlock)
}

//	@Summary		List environments
//	@Description	Retrieve the environments of a project
//	@Tags			environments
//	@Accept			json
//	@Produce		json
//	@Param			project_id	query	string	true	"Project ID"
//	@Success		200	{array}		EnvironmentResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Router			/environments [get]
//
// List environments.
func (h *Handler) list(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Query("project_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
	}

	items, err := h.environmentsSvc.ListByProject(c.Context(), projectID)
	if err != nil {
		return fmt.Errorf("failed to list environments: %w", err)
	}

	responses := make([]EnvironmentResponse, len(items))
	for i, environment := range items {
		responses[i] = toResponse(&environment)
	}

	return c.JSON(responses)
}

//	@Summary		Get a specific environment
//	@Description	Retrieve details of a specific environment by ID
//	@Tags			environments
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Environment ID"
//	@Success		200	{object}	EnvironmentResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Router			/environments/{id} [get]
//
// Get a specific environment.
func (h *Handler) get(c *fiber.Ctx) error {
	id, err := getEnvironmentID(c)
	if err != nil {
		return err
	}

	environment, err := h.environmentsSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get environment: %w", err)
	}

	return c.JSON(toResponse(environment))
}

//	@Summary		Lock an environment
//	@Description	Lock an environment against promotions
//	@Tags			environments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Environment ID"
//	@Param			lock	body		LockRequest	true	"Lock request"
//	@Success		200		{object}	EnvironmentResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/environments/{id}/lock [post]
//
// Lock an environment.
func (h *Handler) lock(c *fiber.Ctx, req *LockRequest) error {
	id, err := getEnvironmentID(c)
	if err != nil {
		return err
	}

	if err := h.environmentsSvc.Lock(c.Context(), id, req.Reason); err != nil {
		return fmt.Errorf("failed to lock environment: %w", err)
	}

	return h.get(c)
}

//	@Summary		Unlock an environment
//	@Description	Remove an environment's promotion lock
//	@Tags			environments
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Environment ID"
//	@Success		200	{object}	EnvironmentResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Router			/environments/{id}/unlock [post]
//
// Unlock an environment.
func (h *Handler) unlock(c *fiber.Ctx) error {
	id, err := getEnvironmentID(c)
	if err != nil {
		return err
	}

	if err := h.environmentsSvc.Unlock(c.Context(), id); err != nil {
		return fmt.Errorf("failed to unlock environment: %w", err)
	}

	return h.get(c)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	if errors.Is(err, environments.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func getEnvironmentID(c *fiber.Ctx) (uuid.UUID, error) {
	idParam := c.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return uuid.UUID{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return id, nil
}

func toResponse(environment *environments.Environment) EnvironmentResponse {
	return EnvironmentResponse{
		ID:                 environment.ID,
		ProjectID:          environment.ProjectID,
		Name:               environment.Name,
		ActiveDeploymentID: environment.ActiveDeploymentID,
		IsLocked:           environment.IsLocked,
		LockedReason:       environment.LockedReason,
		RequiresApproval:   environment.RequiresApproval,
		CreatedAt:          environment.CreatedAt,
		UpdatedAt:          environment.UpdatedAt,
	}
}
