package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/service"
	"github.com/noah-isme/gema-grading-api/internal/utils"
)

// AdminAuditHandler exposes the audit trail to administrators.
type AdminAuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAdminAuditHandler constructs the handler.
func NewAdminAuditHandler(service service.AuditService, logger zerolog.Logger) *AdminAuditHandler {
	return &AdminAuditHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_audit_handler").Logger(),
	}
}

// Register attaches audit routes.
func (h *AdminAuditHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
}

func (h *AdminAuditHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actorID, err := parseQueryInt(c, "actor_id")
	if err != nil || actorID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor_id")
	}

	req := dto.AuditListRequest{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    uint(actorID),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}

	result, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list audit logs")
	}

	return utils.OK(c, result.Items, "audit logs retrieved", result.Pagination)
}
