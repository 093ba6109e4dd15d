package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/service"
	"github.com/noah-isme/gema-grading-api/internal/utils"
)

// AdminReviewHandler wires manual review endpoints for admins and teachers.
type AdminReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewAdminReviewHandler constructs the handler.
func NewAdminReviewHandler(service service.ReviewService, logger zerolog.Logger) *AdminReviewHandler {
	return &AdminReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_review_handler").Logger(),
	}
}

// Register attaches review endpoints to the router group.
func (h *AdminReviewHandler) Register(router fiber.Router) {
	router.Patch("/:id/review", h.review)
}

func (h *AdminReviewHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AttemptReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	attempt, err := h.service.Review(c.UserContext(), id, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to review attempt")
	}

	return utils.SendSuccess(c, "attempt reviewed", attempt)
}
