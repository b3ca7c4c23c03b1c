package autoscaling

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/autoscaling"
	"github.com/syntra/syntra/internal/server/validation"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap"
)

type Handler struct {
	autoscalingSvc *autoscaling.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	autoscalingSvc *autoscaling.Service,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		autoscalingSvc: autoscalingSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/autoscaling/rules")

	r.Use(h.errorsHandler)
	r.Post("/", validation.DecorateWithBodyEx(h.validator, h.post))
	r.Get("/", h.list)
	r.Get("/:id", h.get)
	r.Put("/:id", validation.DecorateWithBodyEx(h.validator, h.put))
	r.Delete("/:id", h.delete)
}

//	@Summary		Create an auto-scaling rule
//	@Description	Create a scaling rule for a service
//	@Tags			autoscaling
//	@Accept			json
//	@Produce		json
//	@Param			rule	body		RuleRequest	true	"Rule creation request"
//	@Success		201		{object}	RuleResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/autoscaling/rules [post]
//
// Create an auto-scaling rule.
func (h *Handler) post(c *fiber.Ctx, req *RuleRequest) error {
	rule, err := h.autoscalingSvc.Create(c.Context(), toDraft(req), getActorID(c))
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(toResponse(rule))
}

//	@Summary		List auto-scaling rules
//	@Description	Retrieve the scaling rules of a service
//	@Tags			autoscaling
//	@Accept			json
//	@Produce		json
//	@Param			service_id	query	string	true	"Service ID"
//	@Success		200	{array}		RuleResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Router			/autoscaling/rules [get]
//
// List auto-scaling rules.
func (h *Handler) list(c *fiber.Ctx) error {
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "service_id is required")
	}

	rules, err := h.autoscalingSvc.ListByService(c.Context(), serviceID)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	responses := make([]RuleResponse, len(rules))
	for i, rule := range rules {
		responses[i] = toResponse(&rule)
	}

	return c.JSON(responses)
}

//	@Summary		Get a specific auto-scaling rule
//	@Description	Retrieve details of a specific rule by ID
//	@Tags			autoscaling
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Rule ID"
//	@Success		200	{object}	RuleResponse
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Router			/autoscaling/rules/{id} [get]
//
// Get a specific auto-scaling rule.
func (h *Handler) get(c *fiber.Ctx) error {
	id, err := getRuleID(c)
	if err != nil {
		return err
	}

	rule, err := h.autoscalingSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get rule: %w", err)
	}

	return c.JSON(toResponse(rule))
}

//	@Summary		Update an auto-scaling rule
//	@Description	Replace a rule's configuration
//	@Tags			autoscaling
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Rule ID"
//	@Param			rule	body		RuleRequest	true	"Rule update request"
//	@Success		200		{object}	RuleResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/autoscaling/rules/{id} [put]
//
// Update an auto-scaling rule.
func (h *Handler) put(c *fiber.Ctx, req *RuleRequest) error {
	id, err := getRuleID(c)
	if err != nil {
		return err
	}

	rule, err := h.autoscalingSvc.Update(c.Context(), id, toDraft(req), getActorID(c))
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	return c.JSON(toResponse(rule))
}

//	@Summary		Delete an auto-scaling rule
//	@Description	Delete a rule by ID
//	@Tags			autoscaling
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Rule ID"
//	@Success		204
//	@Failure		400	{object}	fiberfx.ErrorResponse
//	@Failure		404	{object}	fiberfx.ErrorResponse
//	@Router			/autoscaling/rules/{id} [delete]
//
// Delete an auto-scaling rule.
func (h *Handler) delete(c *fiber.Ctx) error {
	id, err := getRuleID(c)
	if err != nil {
		return err
	}

	if err := h.autoscalingSvc.Delete(c.Context(), id, getActorID(c)); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, autoscaling.ErrNotFound), errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, autoscaling.ErrValidation):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, autoscaling.ErrNotAllowed):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func getRuleID(c *fiber.Ctx) (uuid.UUID, error) {
	idParam := c.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return uuid.UUID{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return id, nil
}

func getActorID(c *fiber.Ctx) uuid.UUID {
	actor, err := uuid.Parse(c.Get("X-Actor-ID"))
	if err != nil {
		return uuid.Nil
	}
	return actor
}

func toDraft(req *RuleRequest) autoscaling.RuleDraft {
	return autoscaling.RuleDraft{
		ServiceID:            req.ServiceID,
		Name:                 req.Name,
		Metric:               autoscaling.Metric(req.Metric),
		CustomMetricName:     req.CustomMetricName,
		IsEnabled:            req.IsEnabled,
		ScaleUpThreshold:     req.ScaleUpThreshold,
		ScaleUpBy:            req.ScaleUpBy,
		ScaleUpCooldown:      time.Duration(req.ScaleUpCooldown) * time.Second,
		ScaleDownThreshold:   req.ScaleDownThreshold,
		ScaleDownBy:          req.ScaleDownBy,
		ScaleDownCooldown:    time.Duration(req.ScaleDownCooldown) * time.Second,
		MinReplicas:          req.MinReplicas,
		MaxReplicas:          req.MaxReplicas,
		EvaluationPeriod:     time.Duration(req.EvaluationPeriod) * time.Second,
		EvaluationDataPoints: req.EvaluationDataPoints,
	}
}

func toResponse(rule *autoscaling.Rule) RuleResponse {
	return RuleResponse{
		RuleRequest: RuleRequest{
			ServiceID:            rule.ServiceID,
			Name:                 rule.Name,
			Metric:               string(rule.Metric),
			CustomMetricName:     rule.CustomMetricName,
			IsEnabled:            rule.IsEnabled,
			ScaleUpThreshold:     rule.ScaleUpThreshold,
			ScaleUpBy:            rule.ScaleUpBy,
			ScaleUpCooldown:      int(rule.ScaleUpCooldown / time.Second),
			ScaleDownThreshold:   rule.ScaleDownThreshold,
			ScaleDownBy:          rule.ScaleDownBy,
			ScaleDownCooldown:    int(rule.ScaleDownCooldown / time.Second),
			MinReplicas:          rule.MinReplicas,
			MaxReplicas:          rule.MaxReplicas,
			EvaluationPeriod:     int(rule.EvaluationPeriod / time.Second),
			EvaluationDataPoints: rule.EvaluationDataPoints,
		},

		ID:                 rule.ID,
		LastScaleAction:    rule.LastScaleAction,
		LastScaleDirection: string(rule.LastScaleDirection),
		CreatedAt:          rule.CreatedAt,
		UpdatedAt:          rule.UpdatedAt,
	}
}
