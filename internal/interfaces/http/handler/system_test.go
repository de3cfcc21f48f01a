package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping() error { return p.err }

type fakeEventStats struct{ delivered, failed int64 }

func (s fakeEventStats) Stats() (int64, int64) { return s.delivered, s.failed }

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	engine := newTestRouter(NewSystemHandler("pharma-engine", "1.2.0", nil, fakeEventStats{delivered: 7, failed: 1}, nil))

	w, resp := perform(t, engine, http.MethodGet, "/api/v1/system/info", nil, uuid.Nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var info SystemInfoResponse
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, "pharma-engine", info.Name)
	assert.Equal(t, "1.2.0", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Equal(t, int64(7), info.EventsDelivered)
	assert.Equal(t, int64(1), info.EventsFailed)
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		engine := newTestRouter(NewSystemHandler("svc", "dev", fakePinger{}, nil, nil))

		w, resp := perform(t, engine, http.MethodGet, "/api/v1/system/health", nil, uuid.Nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var health HealthResponse
		require.NoError(t, json.Unmarshal(resp.Data, &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "ok", health.Database)
	})

	t.Run("database unreachable", func(t *testing.T) {
		engine := newTestRouter(NewSystemHandler("svc", "dev", fakePinger{err: errors.New("connection refused")}, nil, nil))

		w, resp := perform(t, engine, http.MethodGet, "/api/v1/system/health", nil, uuid.Nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.False(t, resp.Success)
		var health HealthResponse
		require.NoError(t, json.Unmarshal(resp.Data, &health))
		assert.Equal(t, "unhealthy", health.Status)
		assert.Equal(t, "error", health.Database)
	})
}
