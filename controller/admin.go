package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/ctxkey"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

// The admin surface speaks a plain {success, message, data} envelope, not the
// OpenAI error schema; it is an operator API, not a client-facing one. Store
// outcomes map to statuses as Success=200, NotFound=404, Duplicate=409,
// anything else 500 with no store detail in the body.

func adminOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func adminError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func adminStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		adminError(c, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrDuplicate):
		adminError(c, http.StatusConflict, "api key already belongs to another user")
	default:
		logger.Logger.Error("store operation failed",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		adminError(c, http.StatusInternalServerError, "internal error")
	}
}

// auditLog records which admin identity performed a mutating operation.
func auditLog(c *gin.Context, action string, id uuid.UUID) {
	logger.Logger.Info("admin operation",
		zap.String("action", action),
		zap.String("id", id.String()),
		zap.String("admin", c.GetString(ctxkey.AdminUser)),
		zap.String("client_ip", c.ClientIP()))
}

// pathID parses the :id route parameter. Writes the 400 response itself on
// failure.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		adminError(c, http.StatusBadRequest, "invalid uuid in path")
		return uuid.Nil, false
	}
	return id, true
}

// assignID fills a zero UUID on POST. Time-ordered ids keep list output in
// creation order.
func assignID(id uuid.UUID) uuid.UUID {
	if id != uuid.Nil {
		return id
	}
	assigned, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return assigned
}
