package limiter

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
)

// Limit is one declared quota window.
type Limit struct {
	Count  int64
	Kind   Kind
	Period time.Duration
}

// Bundle is the ordered list of cells attached to one quota. Admission
// charges every cell in declared order; the order determines which cell's
// WaitUntil dominates the wakeup, so it is never reordered.
type Bundle struct {
	id    string
	label string
	cells []*Cell
	clock Clock
}

// NewBundle creates the runtime cells for one quota. The id/label pair only
// feeds logs and metrics.
func NewBundle(id string, label string, limits []Limit, clock Clock) *Bundle {
	if clock == nil {
		clock = SystemClock()
	}
	cells := make([]*Cell, 0, len(limits))
	for _, limit := range limits {
		cells = append(cells, NewCell(limit.Count, limit.Period, limit.Kind))
	}
	return &Bundle{
		id:    id,
		label: label,
		cells: cells,
		clock: clock,
	}
}

func (b *Bundle) ID() string    { return b.id }
func (b *Bundle) Label() string { return b.label }

type charge struct {
	cell *Cell
	cost int64
}

// Reservation remembers which cells one admission charged, and at what
// estimated token cost, so settlement touches exactly those cells.
type Reservation struct {
	bundle    *Bundle
	estimated int64
	charges   []charge
}

// EstimatedTokens returns the token cost this reservation was admitted under.
func (r *Reservation) EstimatedTokens() int64 { return r.estimated }

// Admit charges every cell of the bundle in declared order, blocking on
// saturated windows. Request cells cost 1; token cells cost estimatedTokens.
// An Oversized token cost aborts the whole admission as a permanent quota
// denial (wrapped ErrOversized); cells the aborted admission already charged
// are released, so a failure on a later cell leaves no phantom consumption
// on the earlier ones. Between Admit and Settle the reservation visibly
// consumes capacity against concurrent admissions on the same bundle; that
// is the primary backpressure mechanism.
func (b *Bundle) Admit(ctx context.Context, estimatedTokens int64) (*Reservation, error) {
	if estimatedTokens < 1 {
		estimatedTokens = 1
	}
	reservation := &Reservation{
		bundle:    b,
		estimated: estimatedTokens,
		charges:   make([]charge, 0, len(b.cells)),
	}

	for _, cell := range b.cells {
		cost := int64(1)
		if cell.Kind() == KindToken {
			cost = estimatedTokens
		}
		if err := cell.Reserve(ctx, b.clock, cost); err != nil {
			b.Settle(reservation, 0)
			return nil, errors.Wrapf(err, "admit %s cell of quota %s", cell.Kind(), b.label)
		}
		reservation.charges = append(reservation.charges, charge{cell: cell, cost: cost})
	}
	return reservation, nil
}

// Settle reconciles a reservation with the true token cost after the
// upstream call finished, successfully or not. actualTokens < 0 means the
// response reported no usage; the estimate stands. Request cells are never
// adjusted. Settle never fails and never blocks the response.
func (b *Bundle) Settle(reservation *Reservation, actualTokens int64) {
	if reservation == nil {
		return
	}
	if actualTokens < 0 {
		actualTokens = reservation.estimated
	}

	now := b.clock.Now()
	for _, charged := range reservation.charges {
		if charged.cell.Kind() != KindToken {
			continue
		}
		switch {
		case actualTokens < charged.cost:
			charged.cell.Refund(now, charged.cost, actualTokens)
		case actualTokens > charged.cost:
			logger.Logger.Warn("token usage exceeded admission estimate",
				zap.String("quota", b.label),
				zap.Int64("estimated", charged.cost),
				zap.Int64("actual", actualTokens))
			charged.cell.SettleOvershoot(now, charged.cost, actualTokens)
		}
	}
}
