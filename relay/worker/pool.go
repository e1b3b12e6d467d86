package worker

import (
	"bytes"
	"sync"

	"github.com/Laisky/zap"
	"github.com/google/uuid"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor"
)

// QuotaSource resolves quota UUIDs when a worker starts. Dangling references
// are skipped, matching the policy resolver.
type QuotaSource interface {
	GetQuota(id uuid.UUID) (*model.Quota, error)
}

// AdaptorFactory picks the upstream client for a backend variant.
type AdaptorFactory func(kind model.BackendKind) adaptor.Adaptor

type poolEntry struct {
	worker   *Worker
	snapshot []byte
}

// Pool is the registry of running workers, one per model in the stored
// configuration. Admin writes to models trigger Rebuild; a changed model's
// worker drains and is replaced, an unchanged model's worker (and its queue)
// survives.
type Pool struct {
	mu         sync.Mutex
	limiters   *Limiters
	quotas     QuotaSource
	newAdaptor AdaptorFactory
	workers    map[uuid.UUID]*poolEntry
}

func NewPool(limiters *Limiters, quotas QuotaSource, newAdaptor AdaptorFactory) *Pool {
	return &Pool{
		limiters:   limiters,
		quotas:     quotas,
		newAdaptor: newAdaptor,
		workers:    make(map[uuid.UUID]*poolEntry),
	}
}

// Get returns the running worker for a model id.
func (p *Pool) Get(id uuid.UUID) (*Worker, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.workers[id]
	if !ok {
		return nil, false
	}
	return entry.worker, true
}

// Rebuild reconciles the running workers against the stored model set:
// removed models stop, new models start, changed models are replaced. The
// replaced worker keeps draining in the background; its bundles live in the
// shared registry, so the replacement observes the same windows.
func (p *Pool) Rebuild(models []*model.Model) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(models))
	for _, m := range models {
		seen[m.ID] = true
		snapshot, err := m.MarshalBinary()
		if err != nil {
			logger.Logger.Error("skipping model with unencodable value",
				zap.String("model", m.Label), zap.Error(err))
			continue
		}
		if entry, ok := p.workers[m.ID]; ok {
			if bytes.Equal(entry.snapshot, snapshot) {
				continue
			}
			entry.worker.Stop()
		}
		w := New(m, p.newAdaptor(m.Backend.Kind), p.limiters.ForQuotaIDs(m.Quotas))
		w.Start()
		p.workers[m.ID] = &poolEntry{worker: w, snapshot: snapshot}
		logger.Logger.Info("started model worker",
			zap.String("model", m.Label),
			zap.String("backend", m.Backend.Kind.String()))
	}

	for id, entry := range p.workers {
		if !seen[id] {
			entry.worker.Stop()
			entry.worker.dropMetrics()
			delete(p.workers, id)
			logger.Logger.Info("stopped model worker",
				zap.String("model", entry.worker.Model().Label))
		}
	}
}

// RestartReferencing replaces the workers of every model attached to the
// given quota. Model bytes did not change, so Rebuild alone would keep the
// old workers and their stale bundle pointers; a quota edit must rebuild the
// windows from the stored definition.
func (p *Pool) RestartReferencing(quotaID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, entry := range p.workers {
		m := entry.worker.Model()
		attached := false
		for _, ref := range m.Quotas {
			if ref == quotaID {
				attached = true
				break
			}
		}
		if !attached {
			continue
		}
		entry.worker.Stop()
		w := New(m, p.newAdaptor(m.Backend.Kind), p.limiters.ForQuotaIDs(m.Quotas))
		w.Start()
		p.workers[id] = &poolEntry{worker: w, snapshot: entry.snapshot}
		logger.Logger.Info("restarted model worker after quota change",
			zap.String("model", m.Label), zap.String("quota_id", quotaID.String()))
	}
}

// Shutdown stops every worker and waits for the queues to drain.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	entries := make([]*poolEntry, 0, len(p.workers))
	for id, entry := range p.workers {
		entries = append(entries, entry)
		delete(p.workers, id)
	}
	p.mu.Unlock()

	for _, entry := range entries {
		entry.worker.Stop()
	}
	for _, entry := range entries {
		<-entry.worker.Stopped()
	}
}
