package middleware

import (
	"runtime/debug"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
)

func RelayPanicRecover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				body, _ := common.GetRequestBody(c)
				logger.Logger.Error("panic detected",
					zap.Any("panic", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("request_body", body))
				errResp := relaymodel.NewInternalError("The server had an error while processing your request", nil)
				AbortWithError(c, errResp)
			}
		}()
		c.Next()
	}
}
