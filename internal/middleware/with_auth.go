package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-grading-api/internal/utils"
)

// Auth levels understood by WithAuth.
const (
	AuthRoleAny    = "any"
	AuthRoleAuthor = "author"
	AuthRoleAdmin  = "admin"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role           string
	AllowAnonymous bool
}

// WithAuth wraps a handler with user and role guards. Every level requires
// an authenticated user unless AllowAnonymous is set on AuthRoleAny.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	level := strings.ToLower(strings.TrimSpace(opts.Role))
	if level == "" {
		level = AuthRoleAny
	}
	anonymous := opts.AllowAnonymous && level == AuthRoleAny

	return func(c *fiber.Ctx) error {
		if c.Locals(LocalUserID) == nil {
			if anonymous {
				return handler(c)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		role := normalizeRoleValue(c.Locals(LocalUserRole))
		switch level {
		case AuthRoleAny:
		case AuthRoleAuthor:
			if role != RoleAdmin && role != RoleTeacher {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		default:
			if role != level {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		}

		return handler(c)
	}
}
