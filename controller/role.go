package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/dto"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

// Roles are resolved from the store on every principal build, so role writes
// need no cache or worker invalidation.

func bindRole(c *gin.Context) (*model.Role, bool) {
	var form dto.Role
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

func CreateRole(c *gin.Context) {
	role, ok := bindRole(c)
	if !ok {
		return
	}
	role.ID = assignID(role.ID)
	if err := model.GetStore().InsertRole(role); err != nil {
		adminStoreError(c, err)
		return
	}
	auditLog(c, "create_role", role.ID)
	adminOK(c, dto.NewRole(role))
}

func UpdateRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	role, ok := bindRole(c)
	if !ok {
		return
	}
	role.ID = id
	if _, err := model.GetStore().GetRole(id); err != nil {
		adminStoreError(c, err)
		return
	}
	if err := model.GetStore().InsertRole(role); err != nil {
		adminStoreError(c, err)
		return
	}
	auditLog(c, "update_role", id)
	adminOK(c, dto.NewRole(role))
}

func GetRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	role, err := model.GetStore().GetRole(id)
	if err != nil {
		adminStoreError(c, err)
		return
	}
	adminOK(c, dto.NewRole(role))
}

func GetRoles(c *gin.Context) {
	roles, err := model.GetStore().GetRoles()
	if err != nil {
		adminStoreError(c, err)
		return
	}
	forms := make([]*dto.Role, 0, len(roles))
	for _, role := range roles {
		forms = append(forms, dto.NewRole(role))
	}
	adminOK(c, forms)
}

func DeleteRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := model.GetStore().RemoveRole(id); err != nil {
		adminStoreError(c, err)
		return
	}
	auditLog(c, "delete_role", id)
	adminOK(c, gin.H{"id": id.String()})
}
