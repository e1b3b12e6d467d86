package worker

import (
	"github.com/Laisky/zap"
	"github.com/google/uuid"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/limiter"
)

// Limiters maps stored quotas onto the shared bundle registry. Workers and
// principals referencing the same quota UUID receive the same bundle, so one
// quota's windows are global across every model and key it is attached to.
type Limiters struct {
	registry *limiter.Registry
	quotas   QuotaSource
}

func NewLimiters(registry *limiter.Registry, quotas QuotaSource) *Limiters {
	if registry == nil {
		registry = limiter.NewRegistry(nil)
	}
	return &Limiters{registry: registry, quotas: quotas}
}

// ForQuotaIDs resolves quota references into live bundles, skipping dangling
// ids the same way the policy resolver does.
func (l *Limiters) ForQuotaIDs(ids []uuid.UUID) []*limiter.Bundle {
	bundles := make([]*limiter.Bundle, 0, len(ids))
	for _, id := range ids {
		quota, err := l.quotas.GetQuota(id)
		if err != nil {
			logger.Logger.Warn("skipping unresolvable quota reference",
				zap.String("quota_id", id.String()), zap.Error(err))
			continue
		}
		bundles = append(bundles, l.forQuota(quota))
	}
	return bundles
}

// ForQuotas converts a principal's already-resolved quota list.
func (l *Limiters) ForQuotas(quotas []*model.Quota) []*limiter.Bundle {
	bundles := make([]*limiter.Bundle, 0, len(quotas))
	for _, quota := range quotas {
		bundles = append(bundles, l.forQuota(quota))
	}
	return bundles
}

func (l *Limiters) forQuota(quota *model.Quota) *limiter.Bundle {
	return l.registry.Get(quota.ID.String(), quota.Label, quota.LimiterLimits())
}

// Drop discards a removed or replaced quota's bundle; the next admission
// rebuilds fresh windows from the stored definition.
func (l *Limiters) Drop(id uuid.UUID) {
	l.registry.Drop(id.String())
}
