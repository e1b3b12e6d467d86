package router

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/Laisky/zap"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
)

// embedFileSystem adapts an embedded tree to the static middleware's
// filesystem interface.
type embedFileSystem struct {
	http.FileSystem
}

func (e embedFileSystem) Exists(prefix string, path string) bool {
	f, err := e.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// SetDocsRouter serves the embedded documentation page under /docs.
func SetDocsRouter(engine *gin.Engine, docsFS embed.FS) {
	sub, err := fs.Sub(docsFS, "web/docs")
	if err != nil {
		logger.Logger.Error("docs page disabled, embedded tree missing", zap.Error(err))
		return
	}
	engine.Use(static.Serve("/docs", embedFileSystem{http.FS(sub)}))
}
