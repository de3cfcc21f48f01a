package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// EventStats reports event delivery counters
type EventStats interface {
	Stats() (delivered, failed int64)
}

// SystemHandler serves service information and health checks
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	events    EventStats
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. db and events may be nil.
func NewSystemHandler(name, version string, db Pinger, events EventStats, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: NewBaseHandler(logger),
		name:        name,
		version:     version,
		db:          db,
		events:      events,
		startTime:   time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	GoVersion       string `json:"go_version"`
	Uptime          string `json:"uptime"`
	EventsDelivered int64  `json:"events_delivered"`
	EventsFailed    int64  `json:"events_failed"`
}

// GetSystemInfo returns version, uptime and event delivery counters
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.events != nil {
		info.EventsDelivered, info.EventsFailed = h.events.Stats()
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Database string `json:"database"`
}

// Health reports 503 when the database cannot be reached
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Time: time.Now().UTC().Format(time.RFC3339), Database: "ok"}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			resp.Status, resp.Database = "unhealthy", "error"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
			return
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// RegisterRoutes mounts the system endpoints under /system
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/system")
	g.GET("/info", h.GetSystemInfo)
	g.GET("/health", h.Health)
}
