package router

import (
	"embed"

	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/controller"
)

// SetRouter installs every route table on the engine: the /v1 data path, the
// /admin operator surface, and the embedded documentation page.
func SetRouter(engine *gin.Engine, docsFS embed.FS) {
	engine.NoRoute(controller.RelayNotFound)
	// gin only consults the NoMethod chain when this flag is on.
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(controller.RelayMethodNotAllowed)
	engine.GET("/status", controller.Status)

	SetAPIRouter(engine)
	SetAdminRouter(engine)
	SetDocsRouter(engine, docsFS)
}
