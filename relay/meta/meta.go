package meta

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/ctxkey"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

// Meta carries the relay-scoped request state from the HTTP edge through the
// worker: which endpoint, which principal, which model, and the tag list
// driving id derivation.
type Meta struct {
	Mode      int
	RequestID string
	StartTime time.Time

	// ModelLabel is the public label exactly as the client sent it; the
	// response's model field is restored to this value.
	ModelLabel string
	// Model is the resolved entity, including the backend descriptor.
	Model *model.Model
	// Tags is the principal's tag list: user UUID first, response ids
	// derive from the last entry.
	Tags []uuid.UUID
}

// GetByContext assembles the relay metadata from the gin context. The
// principal and model label must have been resolved by the middleware chain.
func GetByContext(c *gin.Context) *Meta {
	m := &Meta{
		Mode:       relaymode.GetByPath(c.Request.URL.Path),
		RequestID:  c.GetString(ctxkey.RequestId),
		StartTime:  time.Now(),
		ModelLabel: c.GetString(ctxkey.RequestModel),
	}
	if principal, ok := c.Get(ctxkey.Principal); ok {
		m.Tags = principal.(*model.Principal).Tags
	}
	return m
}
