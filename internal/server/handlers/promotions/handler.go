package promotions

import (
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/deployments"
	"github.com/syntra/syntra/internal/environments"
	"github.com/syntra/syntra/internal/promotions"
	"github.com/syntra/syntra/internal/server/validation"
	"go.uber.org/zap"
)

type Handler struct {
	promotionsSvc *promotions.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	promotionsSvc *promotions.Service,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		promotionsSvc: promotionsSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/promotions")

	r.Use(h.errorsHandler)
	r.Post("/", validation.DecorateWithBodyEx(h.validator, h.post))
	r.Get("/", h.list)
	r.Get("/:id", h.get)
	r.Post("/:id/approve", h.approve)
	r.Post("/:id/reject", validation.DecorateWithBodyEx(h.validator, h.reject))
}

//	@Summary		Promote a deployment
//	@Description	Promote an environment's active deployment to another environment
//	@Tags			promotions
//	@Accept			json
//	@Produce		json
//	@Param			promotion	body		PromoteRequest	true	"Promotion request"
//	@Success		201			{object}	PromotionResponse
//	@Failure		400			{object}	fiberfx.ErrorResponse
//	@Failure		404			{object}	fiberfx.ErrorResponse
//	@Failure		409			{object}	fiberfx.ErrorResponse
//	@Router			/promotions [post]
//
// Promote a deployment.
func (h *Handler) post(c *fiber.Ctx, req *PromoteRequest) error {
	promotion, err := h.promotionsSvc.Promote(
		c.Context(),
		req.TargetEnvironmentID,
		req.SourceDeploymentID,
		getActorID(c),
	)
	if err != nil {
		return fmt.Errorf("failed to promote: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(toResponse(promotion))
}

//	@Summary		List promotions
//	@Description	Retrieve the promotions of a project, newest first
//	@Tags			promotions
//	@Accept			json
//	@Produce		json
//	@Param			project_id	query	string	true	"Project ID"
//	@Success		200	{array}		PromotionResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Router			/promotions [get]
//
// List promotions.
func (h *Handler) list(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Query("project_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
	}

	items, err := h.promotionsSvc.ListByProject(c.Context(), projectID)
	if err != nil {
		return fmt.Errorf("failed to list promotions: %w", err)
	}

	responses := make([]PromotionResponse, len(items))
	for i, promotion := range items {
		responses[i] = toResponse(&promotion)
	}

	return c.JSON(responses)
}

//	@Summary		Get a specific promotion
//	@Description	Retrieve details of a specific promotion by ID
//	@Tags			promotions
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Promotion ID"
//	@Success		200	{object}	PromotionResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Router			/promotions/{id} [get]
//
// Get a specific promotion.
func (h *Handler) get(c *fiber.Ctx) error {
	id, err := getPromotionID(c)
	if err != nil {
		return err
	}

	promotion, err := h.promotionsSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get promotion: %w", err)
	}

	return c.JSON(toResponse(promotion))
}

//	@Summary		Approve a pending promotion
//	@Description	Pass the approval gate on a pending promotion
//	@Tags			promotions
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Promotion ID"
//	@Success		200	{object}	PromotionResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Failure		409	{object}	fiberfx.ErrorResponse
//	@Router			/promotions/{id}/approve [post]
//
// Approve a pending promotion.
func (h *Handler) approve(c *fiber.Ctx) error {
	id, err := getPromotionID(c)
	if err != nil {
		return err
	}

	promotion, err := h.promotionsSvc.Approve(c.Context(), id, getActorID(c))
	if err != nil {
		return fmt.Errorf("failed to approve promotion: %w", err)
	}

	return c.JSON(toResponse(promotion))
}

//	@Summary		Reject a pending promotion
//	@Description	Refuse a pending promotion with a reason
//	@Tags			promotions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Promotion ID"
//	@Param			reject	body		RejectRequest	true	"Rejection request"
//	@Success		200		{object}	PromotionResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Failure		409		{object}	fiberfx.ErrorResponse
//	@Router			/promotions/{id}/reject [post]
//
// Reject a pending promotion.
func (h *Handler) reject(c *fiber.Ctx, req *RejectRequest) error {
	id, err := getPromotionID(c)
	if err != nil {
		return err
	}

	promotion, err := h.promotionsSvc.Reject(c.Context(), id, getActorID(c), req.Reason)
	if err != nil {
		return fmt.Errorf("failed to reject promotion: %w", err)
	}

	return c.JSON(toResponse(promotion))
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, promotions.ErrNotFound),
		errors.Is(err, environments.ErrNotFound),
		errors.Is(err, deployments.ErrNotFound),
		errors.Is(err, promotions.ErrNotActive):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, environments.ErrLocked),
		errors.Is(err, promotions.ErrNotPromotable),
		errors.Is(err, promotions.ErrNotPending):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, promotions.ErrProjectMismatch):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, promotions.ErrNotAllowed):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func toResponse(promotion *promotions.Promotion) PromotionResponse {
	return PromotionResponse{
		ID:                promotion.ID,
		ProjectID:         promotion.ProjectID,
		FromEnvironmentID: promotion.FromEnvironmentID,
		ToEnvironmentID:   promotion.ToEnvironmentID,
		DeploymentID:      promotion.DeploymentID,
		Status:            string(promotion.Status),
		RequestedBy:       promotion.RequestedBy,
		ApprovedBy:        promotion.ApprovedBy,
		RejectedBy:        promotion.RejectedBy,
		ApprovedAt:        promotion.ApprovedAt,
		RejectedAt:        promotion.RejectedAt,
		DeployedAt:        promotion.DeployedAt,
		RejectedReason:    promotion.RejectedReason,
		NewDeploymentID:   promotion.Metadata[promotions.MetadataNewDeploymentID],
		Metadata:          promotion.Metadata,
		CreatedAt:         promotion.CreatedAt,
		UpdatedAt:         promotion.UpdatedAt,
	}
}
