package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/tasks", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/tasks", "GET", 200, 5*time.Millisecond)
	m.RecordError("/tasks/upload", "POST", "INSUFFICIENT_AGENTS")
	m.RecordUpload(true, 12)
	m.RecordUpload(false, 0)
	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/tasks", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues("POST", "/tasks/upload", "INSUFFICIENT_AGENTS")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.TasksDistributed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordUpload(true, 1)
		m.RecordLoginAttempt("admin", true)
		m.RecordTaskTransition("completed")
		m.RecordCache(true)
	})
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	first := NewMetrics()
	second := NewMetrics()
	first.RecordLoginAttempt("agent", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(first.LoginAttempts.WithLabelValues("agent", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.LoginAttempts.WithLabelValues("agent", "failed")))
}

func TestRequestLogger_SetsRequestIDAndRecords(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/items/42", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.ReadAll(resp.Body)

	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "200")))

	req := httptest.NewRequest("GET", "/items/7", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", resp.Header.Get(RequestIDHeader))
}
