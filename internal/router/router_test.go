package router_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-grading-api/internal/config"
	"github.com/noah-isme/gema-grading-api/internal/database"
	"github.com/noah-isme/gema-grading-api/internal/grading"
	"github.com/noah-isme/gema-grading-api/internal/handler"
	"github.com/noah-isme/gema-grading-api/internal/middleware"
	"github.com/noah-isme/gema-grading-api/internal/repository"
	"github.com/noah-isme/gema-grading-api/internal/router"
	"github.com/noah-isme/gema-grading-api/internal/service"
)

const secret = "router-test-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	activityRepo := repository.NewActivityRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	audit := service.NewAuditService(repository.NewAuditLogRepository(db), logger)
	publisher := service.NewAttemptPublisher(redisClient, "gema:test", nil, logger)
	cache := service.NewProgressCache(redisClient, time.Minute, logger)

	activities := service.NewActivityService(activityRepo, validate, nil, audit, logger)
	attempts := service.NewAttemptService(activityRepo, attemptRepo, validate, publisher, cache, logger)
	reviews := service.NewReviewService(attemptRepo, validate, audit, publisher, cache, logger)
	regrade := service.NewRegradeService(activityRepo, attemptRepo, grading.NewEngine(grading.WithConcurrency(2)), audit, publisher, cache, logger)

	cfg := config.Config{AppName: "grader-test", AppEnv: "test", JWTSecret: secret}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:      handler.NewActivityHandler(activities, logger),
		AttemptHandler:       handler.NewAttemptHandler(attempts, middleware.RateLimit("attempts", 100, time.Minute), logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activities, regrade, logger),
		AdminReviewHandler:   handler.NewAdminReviewHandler(reviews, logger),
		AdminAuditHandler:    handler.NewAdminAuditHandler(audit, logger),
		JWTMiddleware:        middleware.JWTProtected(secret),
	})
	return app
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := middleware.IssueToken(secret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func call(t *testing.T, app *fiber.App, method, path, auth, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, payload
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	return schema
}

func validateAgainst(t *testing.T, schema *jsonschema.Schema, body []byte) {
	t.Helper()
	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func dataID(t *testing.T, body []byte) uint {
	t.Helper()
	var envelope struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Data.ID
}

func TestGradingFlowEndToEnd(t *testing.T) {
	app := newTestApp(t)
	teacher := bearer(t, 1, "teacher")
	learner := bearer(t, 50, "student")
	admin := bearer(t, 2, "admin")

	status, body := call(t, app, http.MethodPost, "/api/admin/activities", teacher,
		`{"title":"Order the planets","activity_type":"SORTING_RANKING","correct_answers":["Mercury","Venus","Earth"]}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	sortingID := dataID(t, body)

	status, body = call(t, app, http.MethodPost, "/api/admin/activities", teacher,
		`{"title":"Reflect on the lesson","activity_type":"DEEP_DIVE"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	essayID := dataID(t, body)

	status, body = call(t, app, http.MethodGet, fmt.Sprintf("/api/v2/activities/%d", sortingID), learner, "")
	require.Equal(t, fiber.StatusOK, status)
	require.NotContains(t, string(body), "correct_answers")

	attemptSchema := compileSchema(t, "attempt_envelope.schema.json")

	status, body = call(t, app, http.MethodPost, fmt.Sprintf("/api/v2/activities/%d/attempts", sortingID), learner,
		`{"answer":["Mercury","Earth","Venus"]}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	validateAgainst(t, attemptSchema, body)
	require.Contains(t, string(body), `"score":0`)

	status, body = call(t, app, http.MethodPost, fmt.Sprintf("/api/v2/activities/%d/attempts", essayID), learner,
		`{"answer":"Gravity shapes orbits."}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	validateAgainst(t, attemptSchema, body)
	require.Contains(t, string(body), `"is_graded":false`)
	essayAttemptID := dataID(t, body)

	status, body = call(t, app, http.MethodPatch, fmt.Sprintf("/api/admin/attempts/%d/review", essayAttemptID), teacher,
		`{"score":88,"feedback":"Good insight"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	require.Contains(t, string(body), `"score":88`)

	status, body = call(t, app, http.MethodPut, fmt.Sprintf("/api/admin/activities/%d", sortingID), teacher,
		`{"title":"Order the planets","activity_type":"SORTING_RANKING","correct_answers":["Mercury","Earth","Venus"]}`)
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, body = call(t, app, http.MethodPost, fmt.Sprintf("/api/admin/activities/%d/regrade", sortingID), teacher, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	require.Contains(t, string(body), `"changed":1`)

	status, body = call(t, app, http.MethodGet, "/api/v2/me/progress", learner, "")
	require.Equal(t, fiber.StatusOK, status)
	validateAgainst(t, compileSchema(t, "progress_envelope.schema.json"), body)
	require.Contains(t, string(body), `"average_best_score":94`)

	status, body = call(t, app, http.MethodGet, "/api/admin/audit?action=activity.regraded", admin, "")
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, string(body), "activity.regraded")
}

func TestRoutesEnforceAuthentication(t *testing.T) {
	app := newTestApp(t)

	status, _ := call(t, app, http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/v2/activities", "", "")
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodPost, "/api/admin/activities", bearer(t, 5, "student"), `{}`)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/admin/audit", bearer(t, 1, "teacher"), "")
	require.Equal(t, fiber.StatusForbidden, status)

	status, body := call(t, app, http.MethodPost, "/api/admin/activities", bearer(t, 1, "teacher"),
		`{"title":"Broken","activity_type":"CLASSIFICATION","correct_answers":["not","a","map"]}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, status, string(body))

	status, _ = call(t, app, http.MethodGet, "/metrics", "", "")
	require.Equal(t, fiber.StatusOK, status)
}

func TestLearnersCannotReadKeysFromContent(t *testing.T) {
	app := newTestApp(t)
	teacher := bearer(t, 1, "teacher")
	learner := bearer(t, 50, "student")

	status, body := call(t, app, http.MethodPost, "/api/admin/activities", teacher,
		`{"title":"Fill the grid","activity_type":"TABLE_COMPLETION","content":{"rows":2,"answers":{"0_1":"42"}}}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	tableID := dataID(t, body)

	status, body = call(t, app, http.MethodGet, fmt.Sprintf("/api/v2/activities/%d", tableID), learner, "")
	require.Equal(t, fiber.StatusOK, status)
	require.NotContains(t, string(body), "answers")
	require.NotContains(t, string(body), "0_1")
	require.Contains(t, string(body), `"rows":2`)

	status, body = call(t, app, http.MethodPost, fmt.Sprintf("/api/v2/activities/%d/attempts", tableID), learner,
		`{"answer":{"0_1":"42"}}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	require.Contains(t, string(body), `"score":100`)

	status, body = call(t, app, http.MethodPut, fmt.Sprintf("/api/admin/activities/%d", tableID), teacher,
		`{"title":"Fill the grid","activity_type":"DEEP_DIVE"}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, status, string(body))
}
