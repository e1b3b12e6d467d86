package router

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/controller"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/middleware"
)

// SetAPIRouter wires the OpenAI-compatible data path. Every endpoint funnels
// into the same relay handler; the endpoint catalogue decides how the body is
// decoded.
func SetAPIRouter(engine *gin.Engine) {
	v1 := engine.Group("/v1")
	v1.Use(
		middleware.TrackRequest(),
		middleware.GlobalAPIRateLimit(),
		middleware.TokenAuth(),
	)

	v1.POST("/chat/completions", controller.Relay)
	v1.POST("/completions", controller.Relay)
	v1.POST("/edits", controller.Relay)
	v1.POST("/embeddings", controller.Relay)
	v1.POST("/moderations", controller.Relay)
	v1.POST("/images/generations", controller.Relay)
	v1.POST("/images/edits", controller.Relay)
	v1.POST("/images/variations", controller.Relay)
	v1.POST("/audio/speech", controller.Relay)
	v1.POST("/audio/transcriptions", controller.Relay)
	v1.POST("/audio/translations", controller.Relay)
}
