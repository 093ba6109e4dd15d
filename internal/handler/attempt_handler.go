package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/service"
	"github.com/noah-isme/gema-grading-api/internal/utils"
)

// AttemptHandler accepts learner submissions and reports progress.
type AttemptHandler struct {
	service service.AttemptService
	limiter fiber.Handler
	logger  zerolog.Logger
}

// NewAttemptHandler constructs the handler. limiter guards submissions and may be nil.
func NewAttemptHandler(service service.AttemptService, limiter fiber.Handler, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		limiter: limiter,
		logger:  logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// Register attaches attempt and progress routes.
func (h *AttemptHandler) Register(router fiber.Router) {
	submit := []fiber.Handler{h.submit}
	if h.limiter != nil {
		submit = append([]fiber.Handler{h.limiter}, submit...)
	}

	router.Post("/activities/:id/attempts", submit...)
	router.Get("/activities/:id/attempts", h.list)
	router.Get("/me/progress", h.progress)
}

func (h *AttemptHandler) submit(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AttemptSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	attempt, err := h.service.Submit(c.UserContext(), activityID, userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit attempt")
	}

	message := "attempt graded"
	if !attempt.IsGraded {
		message = "attempt submitted for review"
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, attempt)
}

func (h *AttemptHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempts, err := h.service.List(c.UserContext(), activityID, userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list attempts")
	}

	return utils.SendSuccess(c, "attempts retrieved", attempts)
}

func (h *AttemptHandler) progress(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	progress, err := h.service.Progress(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load progress")
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}
