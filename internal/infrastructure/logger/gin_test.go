package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	router := gin.New()
	router.Use(GinMiddleware(log), Recovery(log))
	return router, recorded
}

func requestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	logs := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, logs, 1)
	return logs[0]
}

func TestGinMiddleware_AssignsRequestID(t *testing.T) {
	router, recorded := newObservedRouter(t)
	var seen string
	router.GET("/invoices", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices?status=draft", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	entry := requestLog(t, recorded)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := fieldMap(entry)
	assert.Equal(t, seen, fields["request_id"])
	assert.Equal(t, "/invoices", fields["path"])
	assert.Equal(t, "status=draft", fields["query"])
}

func TestGinMiddleware_KeepsIncomingRequestID(t *testing.T) {
	router, recorded := newObservedRouter(t)
	router.GET("/ping", func(c *gin.Context) {
		GetGinLogger(c, nil).Info("handler")
		L(c.Request.Context()).Info("service")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "from-client")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "from-client", w.Header().Get(RequestIDHeader))
	for _, entry := range recorded.All() {
		assert.Equal(t, "from-client", fieldMap(entry)["request_id"], entry.Message)
	}
	assert.Len(t, recorded.All(), 3)
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusConflict, zapcore.WarnLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			router, recorded := newObservedRouter(t)
			router.GET("/x", func(c *gin.Context) { c.Status(tt.status) })
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.level, requestLog(t, recorded).Level)
		})
	}
}

func TestRecovery(t *testing.T) {
	router, recorded := newObservedRouter(t)
	router.GET("/panic", func(c *gin.Context) { panic("ledger exploded") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	assert.Len(t, recorded.FilterMessage("Panic recovered").All(), 1)
}

func TestGetGinLogger_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewExample()
	assert.Same(t, fallback, GetGinLogger(c, fallback))
	assert.NotNil(t, GetGinLogger(c, nil))
}
