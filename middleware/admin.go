package middleware

import (
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/ctxkey"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
)

// IssueAdminToken mints the signed bearer token POST /admin/login returns for
// headless clients. Browsers use the session cookie instead.
func IssueAdminToken(username string) (string, error) {
	claims := jwt.StandardClaims{
		Subject:   username,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Duration(config.AdminTokenExpiryHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.SessionSecret))
	if err != nil {
		return "", errors.Wrap(err, "sign admin token")
	}
	return signed, nil
}

func validateAdminToken(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(config.SessionSecret), nil
	})
	if err != nil {
		return "", errors.Wrap(err, "parse admin token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid admin token")
	}
	return claims.Subject, nil
}

// AdminAuth guards the /admin surface. A logged-in session cookie or a valid
// bearer token both pass; everything else gets the generic invalid-key
// envelope so the admin surface leaks nothing about which part failed.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if username, ok := session.Get("username").(string); ok && username != "" {
			c.Set(ctxkey.AdminUser, username)
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.Request.Header.Get("Authorization"))
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			token = strings.TrimSpace(token)
			username, err := validateAdminToken(token)
			if err == nil {
				c.Set(ctxkey.AdminUser, username)
				c.Next()
				return
			}
			// A data-path API key whose principal carries an admin role also
			// passes; that is what the role's admin flag grants.
			principal, resolveErr := model.ResolvePrincipal(c.Request.Context(), token)
			if resolveErr == nil && principal.Admin {
				c.Set(ctxkey.AdminUser, principal.FirstTag().String())
				c.Next()
				return
			}
			AbortWithError(c, relaymodel.NewAuthInvalid())
			return
		}

		AbortWithError(c, relaymodel.NewAuthMissing())
	}
}
