// Package handler adapts the reconciliation engine's application services to
// gin. Handlers decode requests, identify the acting user and translate
// domain errors into the standard response envelope.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/logger"
	"github.com/Erenishere/pharam-sub008/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorIDHeader identifies the user performing a mutation
const ActorIDHeader = "X-Actor-ID"

const dateLayout = "2006-01-02"

// BaseHandler provides common handler utilities
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a BaseHandler that logs unexpected errors to logger
func NewBaseHandler(l *zap.Logger) BaseHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return BaseHandler{logger: l}
}

// getRequestID extracts the request ID assigned by the logging middleware
func getRequestID(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// actorID reads the acting user from the X-Actor-ID header. A body value is
// used when the header is absent.
func (h *BaseHandler) actorID(c *gin.Context, fromBody uuid.UUID) (uuid.UUID, bool) {
	raw := c.GetHeader(ActorIDHeader)
	if raw == "" {
		if fromBody != uuid.Nil {
			return fromBody, true
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeMissingActor, "X-Actor-ID header is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeMissingActor, "X-Actor-ID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses a UUID path parameter
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body into req
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size")
			return false
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
		return false
	}
	return true
}

// queryTime parses an optional date or RFC 3339 query parameter. Date-only
// values resolve to the end of that day in UTC when endOfDay is set.
func (h *BaseHandler) queryTime(c *gin.Context, name string, endOfDay bool) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": use YYYY-MM-DD or RFC 3339")
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

// queryRange reads the from/to query parameters as an inclusive range
func (h *BaseHandler) queryRange(c *gin.Context) (shared.DateRange, bool) {
	from, ok := h.queryTime(c, "from", false)
	if !ok {
		return shared.DateRange{}, false
	}
	to, ok := h.queryTime(c, "to", true)
	if !ok {
		return shared.DateRange{}, false
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		h.BadRequest(c, "to must not be before from")
		return shared.DateRange{}, false
	}
	return shared.DateRange{From: from, To: to}, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError converts err into a response. Domain errors keep their message
// and details; anything else is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, status := dto.ErrorCodeFor(err)
	requestID := getRequestID(c)

	var de *shared.DomainError
	if !errors.As(err, &de) {
		_ = c.Error(err)
		logger.GetGinLogger(c, h.logger).Error("request failed", zap.Error(err))
		c.JSON(status, dto.NewErrorResponseWithRequestID(code, "An unexpected error occurred", requestID))
		return
	}

	resp := dto.NewErrorResponseWithRequestID(code, de.Message, requestID)
	resp.Error.Details = de.Details
	c.JSON(status, resp)
}
