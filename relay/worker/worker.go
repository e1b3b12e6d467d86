// Package worker runs one dispatch goroutine per model in the active
// configuration. The worker owns all limiter interaction: a job is admitted
// against the model's quota bundles and the submitting principal's bundles,
// relayed upstream, then settled against the actual token usage. The router
// never touches a limiter.
package worker

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/monitor"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/limiter"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/payload"
)

var (
	// ErrQueueFull is returned by a non-blocking enqueue on a saturated queue.
	ErrQueueFull = errors.New("worker queue is full")
	// ErrUnavailable is returned once the worker has been told to stop.
	ErrUnavailable = errors.New("worker is shutting down")
)

// A queue bound of 0 means unbounded; channels need a cap, so "unbounded" is
// a cap no realistic deployment reaches before memory pressure matters more.
const unboundedQueueSize = 1 << 16

// Result carries exactly one of a response or an error envelope back to the
// waiting router goroutine.
type Result struct {
	Response payload.Response
	Err      *relaymodel.ErrorWithStatusCode
}

// Job is one queued relay request. Ctx governs admission waits only; the
// upstream call itself is never cancelled mid-flight.
type Job struct {
	Ctx       context.Context
	RequestID string
	Request   payload.Request

	// Bundles are the submitting principal's quota bundles, admitted after
	// the model's own.
	Bundles []*limiter.Bundle

	// Result must be buffered (cap >= 1) so settlement never blocks on a
	// receiver that gave up.
	Result chan *Result
}

// Worker owns one model's queue and backend client.
type Worker struct {
	model   *model.Model
	adaptor adaptor.Adaptor
	bundles []*limiter.Bundle

	queue   chan *Job
	done    chan struct{}
	stopped chan struct{}
}

// New builds a worker with its model-attached bundles resolved. The quota set
// is fixed for the worker's lifetime; admin quota edits take effect through a
// pool rebuild.
func New(m *model.Model, backendAdaptor adaptor.Adaptor, bundles []*limiter.Bundle) *Worker {
	queueSize := m.MaxQueueSize
	if queueSize <= 0 {
		queueSize = unboundedQueueSize
	}
	return &Worker{
		model:   m,
		adaptor: backendAdaptor,
		bundles: bundles,
		queue:   make(chan *Job, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (w *Worker) Model() *model.Model { return w.model }

// Start launches the dispatch loop.
func (w *Worker) Start() {
	monitor.QueueCapacity.WithLabelValues(w.model.Label).Set(float64(cap(w.queue)))
	go w.loop()
}

// Enqueue is non-blocking: the producer learns immediately whether the model
// is overloaded.
func (w *Worker) Enqueue(job *Job) error {
	select {
	case <-w.done:
		return ErrUnavailable
	default:
	}
	select {
	case w.queue <- job:
		monitor.QueueDepth.WithLabelValues(w.model.Label).Set(float64(len(w.queue)))
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop makes further enqueues fail, then lets the loop drain what was already
// accepted. Stopped() closes once the drain finished.
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) Stopped() <-chan struct{} { return w.stopped }

// dropMetrics removes the queue gauge series. Only called when the model
// leaves the configuration entirely; a replacement worker under the same
// label keeps the series alive.
func (w *Worker) dropMetrics() {
	monitor.QueueDepth.DeleteLabelValues(w.model.Label)
	monitor.QueueCapacity.DeleteLabelValues(w.model.Label)
}

func (w *Worker) loop() {
	defer close(w.stopped)
	for {
		select {
		case job := <-w.queue:
			monitor.QueueDepth.WithLabelValues(w.model.Label).Set(float64(len(w.queue)))
			w.process(job)
		case <-w.done:
			for {
				select {
				case job := <-w.queue:
					w.process(job)
				default:
					return
				}
			}
		}
	}
}

func (w *Worker) process(job *Job) {
	// Capability check before any cell is charged: an endpoint family the
	// backend cannot serve must not consume quota.
	if !w.adaptor.SupportsMode(job.Request.Mode()) {
		w.deliver(job, &Result{Err: relaymodel.NewBadRequest(
			"model `"+w.model.Label+"` does not support this endpoint", nil)})
		return
	}

	estimate := job.Request.EstimatedTokens(w.model)

	bundles := make([]*limiter.Bundle, 0, len(w.bundles)+len(job.Bundles))
	bundles = append(bundles, w.bundles...)
	bundles = append(bundles, job.Bundles...)

	admitStart := time.Now()
	reservations := make([]*limiter.Reservation, 0, len(bundles))
	for _, bundle := range bundles {
		reservation, err := bundle.Admit(job.Ctx, estimate)
		if err != nil {
			// Token cells already charged for this aborted admission are
			// released in full; no upstream call will consume them.
			for i, settled := range reservations {
				bundles[i].Settle(settled, 0)
			}
			w.deliver(job, &Result{Err: admissionError(err)})
			return
		}
		reservations = append(reservations, reservation)
	}
	monitor.AdmissionWait.WithLabelValues(w.model.Label).Observe(time.Since(admitStart).Seconds())

	// The admission context must not cancel the upstream call: once tokens
	// are committed the exchange runs to completion.
	upstreamStart := time.Now()
	response, errResp := w.adaptor.Relay(context.WithoutCancel(job.Ctx), w.model, job.Request)
	monitor.UpstreamDuration.WithLabelValues(w.model.Label, w.model.Backend.Kind.String()).
		Observe(time.Since(upstreamStart).Seconds())

	// No usage report (or a failed call) leaves the estimate standing.
	actual := int64(-1)
	if errResp == nil {
		if tokens, ok := response.ReportedTokens(); ok {
			actual = tokens
		}
	}
	for i, reservation := range reservations {
		bundles[i].Settle(reservation, actual)
	}
	monitor.TokensEstimated.WithLabelValues(w.model.Label).Add(float64(estimate))
	if actual < 0 {
		actual = estimate
	}
	monitor.TokensActual.WithLabelValues(w.model.Label).Add(float64(actual))

	w.deliver(job, &Result{Response: response, Err: errResp})
}

func (w *Worker) deliver(job *Job, result *Result) {
	select {
	case job.Result <- result:
	default:
		logger.Logger.Warn("dropping relay result: receiver gone",
			zap.String("model", w.model.Label),
			zap.String("request_id", job.RequestID))
	}
}

func admissionError(err error) *relaymodel.ErrorWithStatusCode {
	switch {
	case errors.Is(err, limiter.ErrOversized):
		return relaymodel.NewUserRateLimit(
			"Request exceeds the available quota for this key", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return relaymodel.NewModelRateLimit("model is overloaded, please retry later", err)
	default:
		return relaymodel.NewInternalError("failed to admit request", err)
	}
}
