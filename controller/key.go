package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/random"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

// GenerateUserKey handles POST /admin/users/:id/keys: mints a fresh API key
// server-side and appends it to the user, so operators never have to invent
// key material themselves.
func GenerateUserKey(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := model.GetStore().GetUser(id)
	if err != nil {
		adminStoreError(c, err)
		return
	}

	key := "sk-" + random.GenerateKey()
	user.APIKeys = append(user.APIKeys, key)
	if err := model.GetStore().InsertUser(user); err != nil {
		adminStoreError(c, err)
		return
	}
	invalidateUserCache(c, user)
	auditLog(c, "generate_key", id)
	adminOK(c, gin.H{"key": key})
}
