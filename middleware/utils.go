package middleware

import (
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/ctxkey"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/helper"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
)

// AbortWithError writes the OpenAI error envelope and stops the chain. The
// raw cause goes to the log, never into the response body.
func AbortWithError(c *gin.Context, errResp *relaymodel.ErrorWithStatusCode) {
	if errResp.Error.RawError != nil {
		logger.Logger.Warn("request aborted",
			zap.Int("status_code", errResp.StatusCode),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(ctxkey.RequestId)),
			zap.Error(errResp.Error.RawError))
	}
	envelope := errResp.Error
	envelope.Message = helper.MessageWithRequestId(envelope.Message, c.GetString(ctxkey.RequestId))
	c.JSON(errResp.StatusCode, gin.H{"error": envelope})
	c.Abort()
}
