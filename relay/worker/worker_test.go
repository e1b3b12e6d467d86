package worker

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/limiter"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/payload"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

// stubRequest satisfies payload.Request with a fixed token estimate.
type stubRequest struct {
	estimate int64
	mode     int
}

func (r *stubRequest) Mode() int {
	if r.mode != relaymode.Unknown {
		return r.mode
	}
	return relaymode.ChatCompletions
}
func (r *stubRequest) ModelLabel() string                     { return "stub" }
func (r *stubRequest) GenerationFanout() int                  { return 1 }
func (r *stubRequest) EstimatedTokens(*model.Model) int64     { return r.estimate }
func (r *stubRequest) MaxTokens(*model.Model) int64           { return r.estimate }
func (r *stubRequest) SetModelID(string)                      {}
func (r *stubRequest) SetUser(string)                         {}
func (r *stubRequest) StripStream()                           {}
func (r *stubRequest) Body() (io.Reader, string, error) {
	return strings.NewReader("{}"), "application/json", nil
}

// stubAdaptor counts calls and reports a configurable usage total.
type stubAdaptor struct {
	mu       sync.Mutex
	calls    int
	usage    int64
	delay    time.Duration
	relayErr *relaymodel.ErrorWithStatusCode
	chatOnly bool
}

func (a *stubAdaptor) SupportsMode(mode int) bool {
	return !a.chatOnly || mode == relaymode.ChatCompletions
}

func (a *stubAdaptor) Relay(ctx context.Context, m *model.Model, req payload.Request) (payload.Response, *relaymodel.ErrorWithStatusCode) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if a.relayErr != nil {
		return nil, a.relayErr
	}
	body := map[string]any{"id": "chatcmpl-upstream", "model": m.Backend.ModelID}
	if a.usage > 0 {
		body["usage"] = map[string]any{"total_tokens": float64(a.usage)}
	}
	return payload.NewJSONResponse(http.StatusOK, body), nil
}

func (a *stubAdaptor) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func testModel(queueSize int) *model.Model {
	return &model.Model{
		ID:           uuid.New(),
		Label:        "stub",
		Backend:      model.Backend{Kind: model.BackendOpenAI, ModelID: "stub-internal"},
		MaxQueueSize: queueSize,
	}
}

func tokenBundle(count int64) *limiter.Bundle {
	return limiter.NewBundle(uuid.NewString(), "test-quota", []limiter.Limit{
		{Count: count, Kind: limiter.KindToken, Period: time.Hour},
	}, nil)
}

func runJob(t *testing.T, w *Worker, job *Job) *Result {
	t.Helper()
	require.NoError(t, w.Enqueue(job))
	select {
	case result := <-job.Result:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not deliver a result")
		return nil
	}
}

func newJob(ctx context.Context, estimate int64, bundles ...*limiter.Bundle) *Job {
	return &Job{
		Ctx:       ctx,
		RequestID: "req-test",
		Request:   &stubRequest{estimate: estimate},
		Bundles:   bundles,
		Result:    make(chan *Result, 1),
	}
}

func TestWorkerRelaysAndDelivers(t *testing.T) {
	backend := &stubAdaptor{usage: 12}
	w := New(testModel(0), backend, nil)
	w.Start()
	defer w.Stop()

	result := runJob(t, w, newJob(context.Background(), 10))
	require.Nil(t, result.Err)
	require.NotNil(t, result.Response)
	require.Equal(t, 1, backend.callCount())
}

func TestWorkerSettlesToReportedUsage(t *testing.T) {
	// 128-token window: a 100-token estimate settling to 40 must leave room
	// for an immediate 88-token admission.
	bundle := tokenBundle(128)
	backend := &stubAdaptor{usage: 40}
	w := New(testModel(0), backend, []*limiter.Bundle{bundle})
	w.Start()
	defer w.Stop()

	result := runJob(t, w, newJob(context.Background(), 100))
	require.Nil(t, result.Err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	result = runJob(t, w, newJob(ctx, 88))
	require.Nil(t, result.Err)
	require.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestWorkerOversizedRejectsBeforeUpstream(t *testing.T) {
	bundle := tokenBundle(128)
	backend := &stubAdaptor{}
	w := New(testModel(0), backend, []*limiter.Bundle{bundle})
	w.Start()
	defer w.Stop()

	result := runJob(t, w, newJob(context.Background(), 200))
	require.NotNil(t, result.Err)
	require.Equal(t, http.StatusTooManyRequests, result.Err.StatusCode)
	require.Equal(t, relaymodel.ErrorTypeInsufficient, result.Err.Error.Type)
	require.Equal(t, 0, backend.callCount())
}

func TestWorkerPrincipalBundleAdmitted(t *testing.T) {
	principalBundle := tokenBundle(64)
	backend := &stubAdaptor{}
	w := New(testModel(0), backend, nil)
	w.Start()
	defer w.Stop()

	result := runJob(t, w, newJob(context.Background(), 100, principalBundle))
	require.NotNil(t, result.Err)
	require.Equal(t, http.StatusTooManyRequests, result.Err.StatusCode)
	require.Equal(t, 0, backend.callCount())
}

func TestWorkerAbortedAdmissionReleasesEarlierBundles(t *testing.T) {
	// First bundle fits, second is oversized: the first bundle's tokens must
	// come back so an unrelated full-window admission still succeeds.
	first := tokenBundle(128)
	second := tokenBundle(64)
	backend := &stubAdaptor{}
	w := New(testModel(0), backend, []*limiter.Bundle{first, second})
	w.Start()
	defer w.Stop()

	result := runJob(t, w, newJob(context.Background(), 100))
	require.NotNil(t, result.Err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	reservation, err := first.Admit(ctx, 128)
	require.NoError(t, err)
	first.Settle(reservation, 0)
}

func TestWorkerUnsupportedModeRejectsWithoutCharging(t *testing.T) {
	// A chat-only backend receiving an embeddings request must answer 400
	// before touching the limiter: a follow-up full-window admission on the
	// same bundle clears immediately.
	bundle := tokenBundle(128)
	backend := &stubAdaptor{chatOnly: true}
	w := New(testModel(0), backend, []*limiter.Bundle{bundle})
	w.Start()
	defer w.Stop()

	job := newJob(context.Background(), 100)
	job.Request = &stubRequest{estimate: 100, mode: relaymode.Embeddings}
	result := runJob(t, w, job)
	require.NotNil(t, result.Err)
	require.Equal(t, http.StatusBadRequest, result.Err.StatusCode)
	require.Equal(t, 0, backend.callCount())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	reservation, err := bundle.Admit(ctx, 128)
	require.NoError(t, err)
	bundle.Settle(reservation, 0)
}

func TestWorkerQueueFull(t *testing.T) {
	backend := &stubAdaptor{delay: 300 * time.Millisecond}
	w := New(testModel(1), backend, nil)
	w.Start()
	defer w.Stop()

	first := newJob(context.Background(), 1)
	require.NoError(t, w.Enqueue(first))
	time.Sleep(50 * time.Millisecond) // let the worker pick up the first job

	second := newJob(context.Background(), 1)
	require.NoError(t, w.Enqueue(second))

	third := newJob(context.Background(), 1)
	require.ErrorIs(t, w.Enqueue(third), ErrQueueFull)

	<-first.Result
	<-second.Result
}

func TestWorkerStopDrainsQueue(t *testing.T) {
	backend := &stubAdaptor{delay: 50 * time.Millisecond}
	w := New(testModel(0), backend, nil)
	w.Start()

	jobs := make([]*Job, 3)
	for i := range jobs {
		jobs[i] = newJob(context.Background(), 1)
		require.NoError(t, w.Enqueue(jobs[i]))
	}

	w.Stop()
	require.ErrorIs(t, w.Enqueue(newJob(context.Background(), 1)), ErrUnavailable)

	select {
	case <-w.Stopped():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not drain")
	}
	for _, job := range jobs {
		select {
		case result := <-job.Result:
			require.Nil(t, result.Err)
		default:
			t.Fatal("accepted job dropped during drain")
		}
	}
	require.Equal(t, 3, backend.callCount())
}

func TestWorkerUpstreamErrorDelivered(t *testing.T) {
	backend := &stubAdaptor{relayErr: relaymodel.NewBackendError("upstream request failed", nil)}
	w := New(testModel(0), backend, nil)
	w.Start()
	defer w.Stop()

	result := runJob(t, w, newJob(context.Background(), 1))
	require.NotNil(t, result.Err)
	require.Equal(t, http.StatusBadGateway, result.Err.StatusCode)
}

// fakeQuotaSource backs pool tests without a database.
type fakeQuotaSource struct {
	quotas map[uuid.UUID]*model.Quota
}

func (s *fakeQuotaSource) GetQuota(id uuid.UUID) (*model.Quota, error) {
	quota, ok := s.quotas[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return quota, nil
}

func stubFactory(backend *stubAdaptor) AdaptorFactory {
	return func(model.BackendKind) adaptor.Adaptor { return backend }
}

func TestPoolRebuild(t *testing.T) {
	quotaID := uuid.New()
	source := &fakeQuotaSource{quotas: map[uuid.UUID]*model.Quota{
		quotaID: {ID: quotaID, Label: "q", Limits: []model.Limit{
			{Count: 1000, Kind: model.ItemKindToken, Period: time.Hour},
		}},
	}}
	backend := &stubAdaptor{}
	pool := NewPool(NewLimiters(nil, source), source, stubFactory(backend))
	defer pool.Shutdown()

	a := testModel(0)
	a.Quotas = []uuid.UUID{quotaID, uuid.New()} // second reference dangles
	b := testModel(0)
	pool.Rebuild([]*model.Model{a, b})

	workerA, ok := pool.Get(a.ID)
	require.True(t, ok)
	_, ok = pool.Get(b.ID)
	require.True(t, ok)

	// Unchanged model keeps its worker; removed model stops.
	pool.Rebuild([]*model.Model{a})
	workerA2, ok := pool.Get(a.ID)
	require.True(t, ok)
	require.Same(t, workerA, workerA2)

	_, ok = pool.Get(b.ID)
	require.False(t, ok)

	// Changed model is replaced and the old worker drains.
	a.MaxQueueSize = 7
	pool.Rebuild([]*model.Model{a})
	workerA3, ok := pool.Get(a.ID)
	require.True(t, ok)
	require.NotSame(t, workerA, workerA3)

	select {
	case <-workerA.Stopped():
	case <-time.After(5 * time.Second):
		t.Fatal("replaced worker did not stop")
	}

	result := runJob(t, workerA3, newJob(context.Background(), 10))
	require.Nil(t, result.Err)
}

func TestLimitersSharedAcrossCallers(t *testing.T) {
	quotaID := uuid.New()
	quota := &model.Quota{ID: quotaID, Label: "shared", Limits: []model.Limit{
		{Count: 5, Kind: model.ItemKindRequest, Period: time.Hour},
	}}
	source := &fakeQuotaSource{quotas: map[uuid.UUID]*model.Quota{quotaID: quota}}
	limiters := NewLimiters(nil, source)

	byID := limiters.ForQuotaIDs([]uuid.UUID{quotaID})
	byValue := limiters.ForQuotas([]*model.Quota{quota})
	require.Len(t, byID, 1)
	require.Len(t, byValue, 1)
	require.Same(t, byID[0], byValue[0])

	limiters.Drop(quotaID)
	fresh := limiters.ForQuotas([]*model.Quota{quota})
	require.NotSame(t, byID[0], fresh[0])
}
