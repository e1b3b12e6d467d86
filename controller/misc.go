package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/graceful"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/helper"
)

var startTime = time.Now()

// Status is the liveness endpoint. It keeps answering while draining so load
// balancers can distinguish "shutting down" from "dead".
func Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status":         "ok",
			"draining":       graceful.IsDraining(),
			"timestamp":      helper.GetTimestamp(),
			"uptime_seconds": int64(time.Since(startTime).Seconds()),
		},
	})
}
