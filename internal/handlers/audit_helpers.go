package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/middleware"
	"chat-backend/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}

	requestID := c.GetHeader(middleware.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *string {
	if userID := c.GetInt("userID"); userID != 0 {
		value := strconv.Itoa(userID)
		return &value
	}
	return nil
}

// auditor is embedded by handlers that publish audit records.
type auditor struct {
	audit *telemetry.AuditEmitter
}

func (a auditor) emitAudit(c *gin.Context, level, text string) {
	if a.audit == nil {
		return
	}
	a.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

// fail writes err as {"error": message} with its mapped status and audits it.
func (a auditor) fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: method=%s path=%s request_id=%s err=%v", c.Request.Method, c.FullPath(), requestIDFromContext(c), err)
	}
	a.emitAudit(c, "ERROR", apperrors.Message(err))
	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}

func paramID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid " + name)
	}
	return id, nil
}

// bindError converts a binding failure into a validation error.
func bindError(err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return &apperrors.Error{Kind: apperrors.KindValidation, Message: "invalid request payload: " + err.Error(), Err: err}
}
