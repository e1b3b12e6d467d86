package controller

import (
	"net/http"

	"github.com/Laisky/zap"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/password"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/dto"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/middleware"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
)

// AdminLogin validates the configured credential, opens a session for
// browsers, and returns a signed bearer token for headless clients.
func AdminLogin(c *gin.Context) {
	var form dto.LoginRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		middleware.AbortWithError(c, relaymodel.NewBadRequest("username and password are required", err))
		return
	}

	if form.Username != config.AdminUsername ||
		!password.Verify(form.Password, config.AdminPasswordHash) {
		logger.Logger.Warn("admin login rejected",
			zap.String("username", form.Username),
			zap.String("client_ip", c.ClientIP()))
		middleware.AbortWithError(c, relaymodel.NewAuthInvalid())
		return
	}

	token, err := middleware.IssueAdminToken(form.Username)
	if err != nil {
		middleware.AbortWithError(c, relaymodel.NewInternalError(
			"The server had an error while processing your request", err))
		return
	}

	session := sessions.Default(c)
	session.Set("username", form.Username)
	if err := session.Save(); err != nil {
		middleware.AbortWithError(c, relaymodel.NewInternalError(
			"The server had an error while processing your request", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

// AdminLogout drops the session; bearer tokens expire on their own.
func AdminLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
