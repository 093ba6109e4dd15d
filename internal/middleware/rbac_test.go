package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func roleApp(userID interface{}, role interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != nil {
			c.Locals(LocalUserID, userID)
		}
		if role != nil {
			c.Locals(LocalUserRole, role)
		}
		return c.Next()
	})
	app.Use(RequireRole(AuthorRoles...))
	app.Get("/admin", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		userID interface{}
		role   interface{}
		status int
	}{
		{"admin", uint(1), "admin", fiber.StatusOK},
		{"teacher mixed case", uint(2), " Teacher ", fiber.StatusOK},
		{"student", uint(3), "student", fiber.StatusForbidden},
		{"user without role", uint(4), nil, fiber.StatusForbidden},
		{"anonymous", nil, nil, fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := roleApp(tc.userID, tc.role).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
