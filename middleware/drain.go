package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/graceful"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
)

// TrackRequest counts the request toward the graceful-drain barrier and turns
// away new work once shutdown has begun.
func TrackRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if graceful.IsDraining() {
			AbortWithError(c, relaymodel.NewModelRateLimit("server is shutting down, please retry against another instance", nil))
			return
		}
		done := graceful.BeginRequest()
		defer done()
		c.Next()
	}
}
