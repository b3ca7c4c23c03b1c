package deployments

import (
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/syntra/syntra/internal/deployments"
	"github.com/syntra/syntra/internal/rollback"
	"github.com/syntra/syntra/internal/server/validation"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap"
)

type Handler struct {
	deploymentsSvc *deployments.Service
	rollbackSvc    *rollback.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	deploymentsSvc *deployments.Service,
	rollbackSvc *rollback.Service,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		deploymentsSvc: deploymentsSvc,
		rollbackSvc:    rollbackSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/deployments")

	r.Use(h.errorsHandler)
	r.Post("/", validation.DecorateWithBodyEx(h.validator, h.post))
	r.Get("/:id", h.get)
	r.Post("/:id/cancel", h.cancel)
	r.Post("/:id/stop", h.stop)
	r.Post("/:id/rollback", h.rollback)
	r.Get("/:id/rollback-candidates", h.candidates)
}

//	@Summary		Create a new deployment
//	@Description	Create a manually triggered deployment for a service
//	@Tags			deployments
//	@Accept			json
//	@Produce		json
//	@Param			deployment	body		CreateRequest	true	"Deployment creation request"
//	@Success		201			{object}	DeploymentResponse
//	@Failure		400			{object}	fiberfx.ErrorResponse
//	@Failure		404			{object}	fiberfx.ErrorResponse
//	@Router			/deployments [post]
//
// Create a new deployment.
func (h *Handler) post(c *fiber.Ctx, req *CreateRequest) error {
	actor := getActorID(c)
	draft := deployments.DeploymentDraft{
		ServiceID:        req.ServiceID,
		DockerImageTag:   req.DockerImageTag,
		GitCommitSHA:     req.GitCommitSHA,
		GitCommitMessage: req.GitCommitMessage,
		GitCommitAuthor:  req.GitCommitAuthor,
		GitBranch:        req.GitBranch,
		TriggerType:      deployments.TriggerManual,
		TriggeredBy:      &actor,
	}

	deployment, err := h.deploymentsSvc.Create(c.Context(), draft)
	if err != nil {
		return fmt.Errorf("failed to create deployment: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(toResponse(deployment))
}

//	@Summary		Get a specific deployment
//	@Description	Retrieve details of a specific deployment by ID
//	@Tags			deployments
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Deployment ID"
//	@Success		200	{object}	DeploymentResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Router			/deployments/{id} [get]
//
// Get a specific deployment.
func (h *Handler) get(c *fiber.Ctx) error {
	id, err := getDeploymentID(c)
	if err != nil {
		return err
	}

	deployment, err := h.deploymentsSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get deployment: %w", err)
	}

	return c.JSON(toResponse(deployment))
}

//	@Summary		Cancel a deployment
//	@Description	Cancel a deployment that has not yet reached a terminal state
//	@Tags			deployments
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Deployment ID"
//	@Success		200	{object}	CancelResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Failure		409	{object}	fiberfx.ErrorResponse
//	@Router			/deployments/{id}/cancel [post]
//
// Cancel a deployment.
func (h *Handler) cancel(c *fiber.Ctx) error {
	id, err := getDeploymentID(c)
	if err != nil {
		return err
	}

	result, err := h.deploymentsSvc.Cancel(c.Context(), id, getActorID(c))
	if err != nil {
		return fmt.Errorf("failed to cancel deployment: %w", err)
	}

	return c.JSON(CancelResponse{
		ID:             result.Deployment.ID,
		Status:         string(result.Deployment.Status),
		PreviousStatus: string(result.PreviousStatus),
	})
}

//	@Summary		Stop a deployment
//	@Description	Stop a running deployment's container
//	@Tags			deployments
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Deployment ID"
//	@Success		200	{object}	DeploymentResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Failure		409	{object}	fiberfx.ErrorResponse
//	@Router			/deployments/{id}/stop [post]
//
// Stop a deployment.
func (h *Handler) stop(c *fiber.Ctx) error {
	id, err := getDeploymentID(c)
	if err != nil {
		return err
	}

	deployment, err := h.deploymentsSvc.Stop(c.Context(), id, getActorID(c))
	if err != nil {
		return fmt.Errorf("failed to stop deployment: %w", err)
	}

	return c.JSON(toResponse(deployment))
}

//	@Summary		Roll back to a deployment
//	@Description	Create a rollback deployment re-deploying this deployment's artifact
//	@Tags			deployments
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Target deployment ID"
//	@Success		201	{object}	RollbackResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Failure		409	{object}	fiberfx.ErrorResponse
//	@Failure		503	{object}	fiberfx.ErrorResponse
//	@Router			/deployments/{id}/rollback [post]
//
// Roll back to a deployment.
func (h *Handler) rollback(c *fiber.Ctx) error {
	id, err := getDeploymentID(c)
	if err != nil {
		return err
	}

	result, err := h.rollbackSvc.Rollback(c.Context(), id, getActorID(c))
	if err != nil {
		return fmt.Errorf("failed to rollback: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(RollbackResponse{
		ID:               result.Deployment.ID,
		Status:           string(result.Deployment.Status),
		RollbackFromID:   result.RollbackFromID,
		RollbackTargetID: result.TargetID,
		DockerImageTag:   result.Deployment.DockerImageTag,
	})
}

//	@Summary		List rollback candidates
//	@Description	List prior successful deployments this deployment's service may roll back to
//	@Tags			deployments
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Deployment ID"
//	@Success		200	{object}	CandidatesResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Router			/deployments/{id}/rollback-candidates [get]
//
// List rollback candidates.
func (h *Handler) candidates(c *fiber.Ctx) error {
	id, err := getDeploymentID(c)
	if err != nil {
		return err
	}

	candidates, err := h.rollbackSvc.Candidates(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to list rollback candidates: %w", err)
	}

	response := CandidatesResponse{
		CurrentDeployment:  toResponse(candidates.Current),
		RollbackCandidates: make([]DeploymentResponse, len(candidates.Candidates)),
	}
	for i, candidate := range candidates.Candidates {
		response.RollbackCandidates[i] = toResponse(&candidate)
	}

	return c.JSON(response)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, deployments.ErrNotFound), errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, deployments.ErrInvalidState), errors.Is(err, deployments.ErrNoContainer):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, deployments.ErrNotAllowed):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, deployments.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, rollback.ErrInvalidTarget), errors.Is(err, rollback.ErrNoImage):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, rollback.ErrNoServer):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, rollback.ErrServerOffline):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func toResponse(deployment *deployments.Deployment) DeploymentResponse {
	return DeploymentResponse{
		ID:               deployment.ID,
		ServiceID:        deployment.ServiceID,
		ServerID:         deployment.ServerID,
		Status:           string(deployment.Status),
		DockerImageTag:   deployment.DockerImageTag,
		ContainerID:      deployment.ContainerID,
		GitCommitSHA:     deployment.GitCommitSHA,
		GitCommitMessage: deployment.GitCommitMessage,
		GitCommitAuthor:  deployment.GitCommitAuthor,
		GitBranch:        deployment.GitBranch,
		TriggerType:      string(deployment.TriggerType),
		TriggeredBy:      deployment.TriggeredBy,
		RollbackFromID:   deployment.RollbackFromID,
		BuildStartedAt:   deployment.BuildStartedAt,
		BuildFinishedAt:  deployment.BuildFinishedAt,
		DeployStartedAt:  deployment.DeployStartedAt,
		DeployFinishedAt: deployment.DeployFinishedAt,
		CreatedAt:        deployment.CreatedAt,
		UpdatedAt:        deployment.UpdatedAt,
	}
}
