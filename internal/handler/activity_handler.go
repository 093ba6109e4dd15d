package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/service"
	"github.com/noah-isme/gema-grading-api/internal/utils"
)

// ActivityHandler serves activity reads to every authenticated user.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity read routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.ActivityListRequest{
		Page:         page,
		PageSize:     pageSize,
		ActivityType: c.Query("type"),
		Search:       c.Query("search"),
	}

	result, err := h.service.List(c.UserContext(), req, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activities")
	}

	return utils.OK(c, result.Items, "activities retrieved", result.Pagination)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.service.Get(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load activity")
	}

	return utils.SendSuccess(c, "activity retrieved", activity)
}
