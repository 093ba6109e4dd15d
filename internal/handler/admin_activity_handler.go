package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/service"
	"github.com/noah-isme/gema-grading-api/internal/utils"
)

// AdminActivityHandler wires authoring and regrade endpoints for admins and teachers.
type AdminActivityHandler struct {
	activities service.ActivityService
	regrade    service.RegradeService
	logger     zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(activities service.ActivityService, regrade service.RegradeService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		activities: activities,
		regrade:    regrade,
		logger:     logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches authoring endpoints to the router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/regrade", h.regradeActivity)
}

func (h *AdminActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.activities.Create(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *AdminActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.activities.Update(c.UserContext(), id, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update activity")
	}

	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *AdminActivityHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.activities.Delete(c.UserContext(), id, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to delete activity")
	}

	return utils.SendSuccess(c, "activity deleted", nil)
}

func (h *AdminActivityHandler) regradeActivity(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.regrade.Regrade(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to regrade activity")
	}

	return utils.SendSuccess(c, "activity regraded", result)
}
