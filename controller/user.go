package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/dto"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

func bindUser(c *gin.Context) (*model.User, bool) {
	var form dto.User
	if err := c.ShouldBindJSON(&form); err != nil {
		adminError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	entity, err := form.Entity()
	if err != nil {
		adminError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return entity, true
}

// invalidateUserCache drops cached api-key lookups for the given users so the
// next data-path request re-resolves against the stored state.
func invalidateUserCache(c *gin.Context, users ...*model.User) {
	var keys []string
	for _, user := range users {
		if user != nil {
			keys = append(keys, user.APIKeys...)
		}
	}
	model.CacheInvalidateUserKeys(c.Request.Context(), keys)
}

// CreateUser handles POST /admin/users: zero UUID means assign one.
func CreateUser(c *gin.Context) {
	user, ok := bindUser(c)
	if !ok {
		return
	}
	user.ID = assignID(user.ID)

	displaced, _ := model.GetStore().GetUser(user.ID)
	if err := model.GetStore().InsertUser(user); err != nil {
		adminStoreError(c, err)
		return
	}
	invalidateUserCache(c, user, displaced)
	auditLog(c, "create_user", user.ID)
	adminOK(c, dto.NewUser(user))
}

// UpdateUser handles PUT /admin/users/:id: replace under the path id.
func UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, ok := bindUser(c)
	if !ok {
		return
	}
	user.ID = id

	displaced, err := model.GetStore().GetUser(id)
	if err != nil {
		adminStoreError(c, err)
		return
	}
	if err := model.GetStore().InsertUser(user); err != nil {
		adminStoreError(c, err)
		return
	}
	invalidateUserCache(c, user, displaced)
	auditLog(c, "update_user", user.ID)
	adminOK(c, dto.NewUser(user))
}

// GetUser handles GET /admin/users/:id.
func GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := model.GetStore().GetUser(id)
	if err != nil {
		adminStoreError(c, err)
		return
	}
	adminOK(c, dto.NewUser(user))
}

// GetUsers handles GET /admin/users.
func GetUsers(c *gin.Context) {
	users, err := model.GetStore().GetUsers()
	if err != nil {
		adminStoreError(c, err)
		return
	}
	forms := make([]*dto.User, 0, len(users))
	for _, user := range users {
		forms = append(forms, dto.NewUser(user))
	}
	adminOK(c, forms)
}

// DeleteUser handles DELETE /admin/users/:id.
func DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := model.GetStore().GetUser(id)
	if err != nil {
		adminStoreError(c, err)
		return
	}
	if err := model.GetStore().RemoveUser(id); err != nil {
		adminStoreError(c, err)
		return
	}
	invalidateUserCache(c, user)
	auditLog(c, "delete_user", id)
	adminOK(c, gin.H{"id": id.String()})
}
