package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grading-api/internal/middleware"
)

func guarded(userID interface{}, role string, opts middleware.AuthOptions) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != nil {
			c.Locals(middleware.LocalUserID, userID)
		}
		if role != "" {
			c.Locals(middleware.LocalUserRole, role)
		}
		return c.Next()
	})
	app.Get("/", middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}, opts))
	return app
}

func TestWithAuthAnyRequiresUser(t *testing.T) {
	resp := perform(t, guarded(nil, "", middleware.AuthOptions{Role: middleware.AuthRoleAny}))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = perform(t, guarded(uint(10), "student", middleware.AuthOptions{}))
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestWithAuthAnyAllowsAnonymousWhenOptedIn(t *testing.T) {
	resp := perform(t, guarded(nil, "", middleware.AuthOptions{Role: middleware.AuthRoleAny, AllowAnonymous: true}))
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestWithAuthAuthorAllowsTeacherAndAdmin(t *testing.T) {
	for _, role := range []string{"teacher", "Admin"} {
		resp := perform(t, guarded(uint(1), role, middleware.AuthOptions{Role: middleware.AuthRoleAuthor}))
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode, role)
	}

	resp := perform(t, guarded(uint(1), "student", middleware.AuthOptions{Role: middleware.AuthRoleAuthor}))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWithAuthAdminExcludesTeacher(t *testing.T) {
	resp := perform(t, guarded(uint(1), "teacher", middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = perform(t, guarded(nil, "", middleware.AuthOptions{Role: middleware.AuthRoleAdmin, AllowAnonymous: true}))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func perform(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
