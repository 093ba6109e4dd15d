package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestAttemptsGradedCounter(t *testing.T) {
	counter := AttemptsGraded().WithLabelValues("NUMERIC_ENTRY", "graded")
	before := testutil.ToFloat64(counter)

	counter.Inc()

	require.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	RegradeChanged().WithLabelValues("SORTING_RANKING").Add(2)

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "grading_regrade_changed_total")
}
