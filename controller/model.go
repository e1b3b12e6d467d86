package controller

import (
	"net/http"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/dto"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

func bindModel(c *gin.Context) (*model.Model, bool) {
	var form dto.Model
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

// rebuildWorkers reconciles the worker pool with the stored model set after a
// model write. Requests in flight on a replaced model's worker finish against
// the old definition.
func rebuildWorkers() {
	if workerPool == nil {
		return
	}
	models, err := model.GetStore().GetModels()
	if err != nil {
		logger.Logger.Error("worker rebuild skipped, cannot list models", zap.Error(err))
		return
	}
	workerPool.Rebuild(models)
}

func CreateModel(c *gin.Context) {
	m, ok := bindModel(c)
	if !ok {
		return
	}
	m.ID = assignID(m.ID)
	if err := model.GetStore().InsertModel(m); err != nil {
		adminStoreError(c, err)
		return
	}
	rebuildWorkers()
	auditLog(c, "create_model", m.ID)
	adminOK(c, dto.NewModel(m))
}

func UpdateModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, ok := bindModel(c)
	if !ok {
		return
	}
	m.ID = id
	if _, err := model.GetStore().GetModel(id); err != nil {
		adminStoreError(c, err)
		return
	}
	if err := model.GetStore().InsertModel(m); err != nil {
		adminStoreError(c, err)
		return
	}
	rebuildWorkers()
	auditLog(c, "update_model", id)
	adminOK(c, dto.NewModel(m))
}

func GetModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := model.GetStore().GetModel(id)
	if err != nil {
		adminStoreError(c, err)
		return
	}
	adminOK(c, dto.NewModel(m))
}

func GetModels(c *gin.Context) {
	models, err := model.GetStore().GetModels()
	if err != nil {
		adminStoreError(c, err)
		return
	}
	forms := make([]*dto.Model, 0, len(models))
	for _, m := range models {
		forms = append(forms, dto.NewModel(m))
	}
	adminOK(c, forms)
}

func DeleteModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := model.GetStore().RemoveModel(id); err != nil {
		adminStoreError(c, err)
		return
	}
	rebuildWorkers()
	auditLog(c, "delete_model", id)
	adminOK(c, gin.H{"id": id.String()})
}
