package services

import (
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/deployments"
	"github.com/syntra/syntra/internal/server/validation"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap"
)

type Handler struct {
	servicesSvc    *services.Manager
	deploymentsSvc *deployments.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	servicesSvc *services.Manager,
	deploymentsSvc *deployments.Service,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		servicesSvc:    servicesSvc,
		deploymentsSvc: deploymentsSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/services")

	r.Use(h.errorsHandler)
	r.Post("/", validation.DecorateWithBodyEx(h.validator, h.post))
	r.Get("/", h.list)
	r.Get("/:id", h.get)
	r.Get("/:id/deployments", h.deployments)
	r.Patch("/:id/scale", validation.DecorateWithBodyEx(h.validator, h.scale))
	r.Patch("/:id/server", validation.DecorateWithBodyEx(h.validator, h.assignServer))
}

//	@Summary		Create a new service
//	@Description	Create a service within a project
//	@Tags			services
//	@Accept			json
//	@Produce		json
//	@Param			service	body		CreateRequest	true	"Service creation request"
//	@Success		201		{object}	ServiceResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Router			/services [post]
//
// Create a new service.
func (h *Handler) post(c *fiber.Ctx, req *CreateRequest) error {
	service, err := h.servicesSvc.Create(c.Context(), services.ServiceDraft{
		ProjectID: req.ProjectID,
		ServerID:  req.ServerID,
		Name:      req.Name,
		Image:     req.Image,
		Replicas:  req.Replicas,
	})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(toResponse(service))
}

//	@Summary		List services
//	@Description	Retrieve services, optionally scoped to a project
//	@Tags			services
//	@Accept			json
//	@Produce		json
//	@Param			project_id	query	string	false	"Project ID"
//	@Success		200	{array}	ServiceResponse
//	@Router			/services [get]
//
// List services.
func (h *Handler) list(c *fiber.Ctx) error {
	var (
		items []services.Service
		err   error
	)

	if projectParam := c.Query("project_id"); projectParam != "" {
		projectID, parseErr := uuid.Parse(projectParam)
		if parseErr != nil {
			return fiber.NewError(fiber.StatusBadRequest, parseErr.Error())
		}
		items, err = h.servicesSvc.ListByProject(c.Context(), projectID)
	} else {
		items, err = h.servicesSvc.List(c.Context())
	}
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}

	responses := make([]ServiceResponse, len(items))
	for i, service := range items {
		responses[i] = toResponse(&service)
	}

	return c.JSON(responses)
}

//	@Summary		Get a specific service
//	@Description	Retrieve details of a specific service by ID
//	@Tags			services
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Service ID"
//	@Success		200	{object}	ServiceResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Router			/services/{id} [get]
//
// Get a specific service.
func (h *Handler) get(c *fiber.Ctx) error {
	id, err := getServiceID(c)
	if err != nil {
		return err
	}

	service, err := h.servicesSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get service: %w", err)
	}

	return c.JSON(toResponse(service))
}

//	@Summary		List a service's deployments
//	@Description	Retrieve the deployment history of a service, newest first
//	@Tags			services
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string	true	"Service ID"
//	@Param			limit	query	int		false	"Maximum records"
//	@Success		200	{array}		object
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Router			/services/{id}/deployments [get]
//
// List a service's deployments.
func (h *Handler) deployments(c *fiber.Ctx) error {
	id, err := getServiceID(c)
	if err != nil {
		return err
	}

	items, err := h.deploymentsSvc.ListByService(c.Context(), id, c.QueryInt("limit"))
	if err != nil {
		return fmt.Errorf("failed to list deployments: %w", err)
	}

	return c.JSON(items)
}

//	@Summary		Scale a service
//	@Description	Change a service's replica count
//	@Tags			services
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Service ID"
//	@Param			scale	body		ScaleRequest	true	"Scale request"
//	@Success		200		{object}	ServiceResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/services/{id}/scale [patch]
//
// Scale a service.
func (h *Handler) scale(c *fiber.Ctx, req *ScaleRequest) error {
	id, err := getServiceID(c)
	if err != nil {
		return err
	}

	if err := h.servicesSvc.SetReplicas(c.Context(), id, req.Replicas); err != nil {
		return fmt.Errorf("failed to scale service: %w", err)
	}

	return h.get(c)
}

//	@Summary		Assign a server
//	@Description	Place a service on a server
//	@Tags			services
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Service ID"
//	@Param			server	body		AssignServerRequest	true	"Server assignment request"
//	@Success		200		{object}	ServiceResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/services/{id}/server [patch]
//
// Assign a server.
func (h *Handler) assignServer(c *fiber.Ctx, req *AssignServerRequest) error {
	id, err := getServiceID(c)
	if err != nil {
		return err
	}

	if err := h.servicesSvc.AssignServer(c.Context(), id, req.ServerID); err != nil {
		return fmt.Errorf("failed to assign server: %w", err)
	}

	return h.get(c)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func getServiceID(c *fiber.Ctx) (uuid.UUID, error) {
	idParam := c.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return uuid.UUID{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return id, nil
}

func toResponse(service *services.Service) ServiceResponse {
	return ServiceResponse{
		ID:        service.ID,
		ProjectID: service.ProjectID,
		ServerID:  service.ServerID,
		Name:      service.Name,
		Image:     service.Image,
		Replicas:  service.Replicas,
		CreatedAt: service.CreatedAt,
		UpdatedAt: service.UpdatedAt,
	}
}
