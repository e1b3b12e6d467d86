package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/dto"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

func bindQuota(c *gin.Context) (*model.Quota, bool) {
	var form dto.Quota
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

// resetQuotaRuntime discards the quota's live limiter windows and restarts
// the workers attached to it, so a changed definition takes effect from
// scratch instead of inheriting a stale TAT.
func resetQuotaRuntime(id uuid.UUID) {
	if limiterSet == nil {
		return
	}
	limiterSet.Drop(id)
	if workerPool != nil {
		workerPool.RestartReferencing(id)
	}
}

func CreateQuota(c *gin.Context) {
	quota, ok := bindQuota(c)
	if !ok {
		return
	}
	replacing := quota.ID != uuid.Nil
	quota.ID = assignID(quota.ID)
	if err := model.GetStore().InsertQuota(quota); err != nil {
		adminStoreError(c, err)
		return
	}
	if replacing {
		resetQuotaRuntime(quota.ID)
	}
	auditLog(c, "create_quota", quota.ID)
	adminOK(c, dto.NewQuota(quota))
}

func UpdateQuota(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	quota, ok := bindQuota(c)
	if !ok {
		return
	}
	quota.ID = id
	if _, err := model.GetStore().GetQuota(id); err != nil {
		adminStoreError(c, err)
		return
	}
	if err := model.GetStore().InsertQuota(quota); err != nil {
		adminStoreError(c, err)
		return
	}
	resetQuotaRuntime(id)
	auditLog(c, "update_quota", id)
	adminOK(c, dto.NewQuota(quota))
}

func GetQuota(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	quota, err := model.GetStore().GetQuota(id)
	if err != nil {
		adminStoreError(c, err)
		return
	}
	adminOK(c, dto.NewQuota(quota))
}

func GetQuotas(c *gin.Context) {
	quotas, err := model.GetStore().GetQuotas()
	if err != nil {
		adminStoreError(c, err)
		return
	}
	forms := make([]*dto.Quota, 0, len(quotas))
	for _, quota := range quotas {
		forms = append(forms, dto.NewQuota(quota))
	}
	adminOK(c, forms)
}

func DeleteQuota(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := model.GetStore().RemoveQuota(id); err != nil {
		adminStoreError(c, err)
		return
	}
	resetQuotaRuntime(id)
	auditLog(c, "delete_quota", id)
	adminOK(c, gin.H{"id": id.String()})
}
