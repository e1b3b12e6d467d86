package middleware

import (
	"encoding/base64"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/ctxkey"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
)

// extractAPIKey pulls the client key from the Authorization header. Bearer is
// the documented scheme; Basic is accepted for clients that can only send
// credentials as a password (the username is ignored).
func extractAPIKey(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.Request.Header.Get("Authorization"))
	if authHeader == "" {
		return "", false
	}
	if key, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		key = strings.TrimSpace(key)
		return key, key != ""
	}
	if encoded, ok := strings.CutPrefix(authHeader, "Basic "); ok {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return "", false
		}
		_, password, found := strings.Cut(string(decoded), ":")
		if !found || password == "" {
			return "", false
		}
		return password, true
	}
	return "", false
}

// TokenAuth authenticates the data path: API key → principal view. The
// principal snapshot set here is immutable for the rest of the request.
func TokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := extractAPIKey(c)
		if !ok {
			AbortWithError(c, relaymodel.NewAuthMissing())
			return
		}

		principal, err := model.ResolvePrincipal(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				AbortWithError(c, relaymodel.NewAuthInvalid())
				return
			}
			AbortWithError(c, relaymodel.NewInternalError(
				"The server had an error while processing your request", err))
			return
		}

		c.Set(ctxkey.Principal, principal)
		c.Next()
	}
}
