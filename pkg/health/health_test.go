package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReady_ManualGate(t *testing.T) {
	h := New()
	assert.False(t, h.IsReady())

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestCheck_FailureThreshold(t *testing.T) {
	failing := errors.New("db down")
	c := newCheck("db", time.Second, func(context.Context) error { return failing })

	assert.True(t, c.healthy.Load())

	// Stays healthy until failureThreshold consecutive failures.
	for i := 0; i < failureThreshold-1; i++ {
		c.run(context.Background())
		assert.True(t, c.healthy.Load(), "after %d failures", i+1)
	}
	c.run(context.Background())
	assert.False(t, c.healthy.Load())

	msg, failed := c.failure()
	require.True(t, failed)
	assert.Equal(t, "db down", msg)
}

func TestCheck_RecoversAfterSuccess(t *testing.T) {
	var err error = errors.New("flaky")
	c := newCheck("flaky", time.Second, func(context.Context) error { return err })

	for i := 0; i < failureThreshold; i++ {
		c.run(context.Background())
	}
	require.False(t, c.healthy.Load())

	err = nil
	c.run(context.Background())
	assert.True(t, c.healthy.Load())
}

func TestIsReady_FailingReadinessCheck(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("db", time.Second, func(context.Context) error { return errors.New("down") })

	// The check starts healthy; drive it to failure by hand.
	require.True(t, h.IsReady())
	for i := 0; i < failureThreshold; i++ {
		h.readiness[0].run(context.Background())
	}
	assert.False(t, h.IsReady())
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(100000))

	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestReadyEndpoint_NotReady(t *testing.T) {
	h := New()

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks, "_readiness")
}

func TestReadyEndpoint_Ready(t *testing.T) {
	h := New()
	h.SetReady(true)

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	require.Error(t, GoroutineCountCheck(1)(context.Background()))
}
