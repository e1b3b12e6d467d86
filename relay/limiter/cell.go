package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
)

// Kind selects what a cell meters.
type Kind int

const (
	// KindRequest cells consume cost 1 per request.
	KindRequest Kind = iota
	// KindToken cells consume the estimated token count on admission and are
	// settled to the actual count after the upstream responds.
	KindToken
)

func (k Kind) String() string {
	if k == KindToken {
		return "token"
	}
	return "request"
}

// ErrOversized marks a cost that exceeds a cell's burst capacity: admission
// is permanently impossible on that cell, no amount of waiting helps.
var ErrOversized = errors.New("cost exceeds quota burst capacity")

// Cell is one GCRA window over requests or tokens. It keeps a single
// theoretical arrival time (TAT): the earliest moment the next unit of cost
// would be admitted under ideal pacing. Parameters derive from the quota
// limit: emission_interval = period/count, burst = period.
//
// The zero TAT means the cell has never admitted anything and is treated as
// "now" on first use.
type Cell struct {
	mu sync.Mutex

	count    int64
	interval time.Duration
	burst    time.Duration
	kind     Kind

	tat time.Time
}

// NewCell builds a cell for one quota limit. A count below 1 is clamped to 1
// so the emission interval never divides by zero.
func NewCell(count int64, period time.Duration, kind Kind) *Cell {
	if count < 1 {
		count = 1
	}
	if period <= 0 {
		period = time.Second
	}
	return &Cell{
		count:    count,
		interval: period / time.Duration(count),
		burst:    period,
		kind:     kind,
	}
}

func (c *Cell) Kind() Kind { return c.kind }

// Count returns the burst capacity in cost units.
func (c *Cell) Count() int64 { return c.count }

// Decision is the outcome of one admission attempt.
type Decision struct {
	Ready     bool
	Oversized bool
	// AllowAt is the earliest time the same attempt would succeed; only
	// meaningful when neither Ready nor Oversized is set.
	AllowAt time.Time
}

// TryAdmit attempts to charge cost against the window at time now. On Ready
// the TAT is committed; on WaitUntil nothing is mutated.
func (c *Cell) TryAdmit(now time.Time, cost int64) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tryAdmitLocked(now, cost)
}

func (c *Cell) tryAdmitLocked(now time.Time, cost int64) Decision {
	if cost > c.count {
		return Decision{Oversized: true}
	}
	if cost < 1 {
		cost = 1
	}

	tat := c.tat
	if tat.Before(now) {
		tat = now
	}
	newTat := tat.Add(time.Duration(cost) * c.interval)
	allowAt := newTat.Add(-c.burst)
	if allowAt.After(now) {
		return Decision{AllowAt: allowAt}
	}
	c.tat = newTat
	return Decision{Ready: true}
}

// Reserve is the blocking variant of TryAdmit: when the window is saturated
// it sleeps until the cell would admit the cost and then commits. The sleep
// honours ctx; a concurrent reservation may push the wakeup further out, in
// which case the loop sleeps again against the fresh decision.
func (c *Cell) Reserve(ctx context.Context, clk Clock, cost int64) error {
	for {
		now := clk.Now()
		decision := c.TryAdmit(now, cost)
		switch {
		case decision.Oversized:
			return errors.Wrapf(ErrOversized, "cost %d over burst %d", cost, c.count)
		case decision.Ready:
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "wait for rate limit window")
		case <-clk.After(decision.AllowAt.Sub(now)):
		}
	}
}

// Refund returns unused capacity after the true cost turned out lower than
// the reservation. The TAT walks back by the difference but never regresses
// past now-burst, so a refund can never manufacture capacity the window
// would not naturally have.
func (c *Cell) Refund(now time.Time, reserved int64, actual int64) {
	if actual >= reserved {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tat = c.tat.Add(-time.Duration(reserved-actual) * c.interval)
	if floor := now.Add(-c.burst); c.tat.Before(floor) {
		c.tat = floor
	}
}

// SettleOvershoot charges the portion of the true cost that exceeded the
// reservation. It never blocks: if the additional charge would have to wait,
// the TAT advances anyway and only future admissions observe the delay — the
// in-flight response has already been sent.
func (c *Cell) SettleOvershoot(now time.Time, reserved int64, actual int64) {
	if actual <= reserved {
		return
	}
	extra := actual - reserved
	c.mu.Lock()
	defer c.mu.Unlock()

	tat := c.tat
	if tat.Before(now) {
		tat = now
	}
	c.tat = tat.Add(time.Duration(extra) * c.interval)
}

// tatForTest exposes the TAT to package tests.
func (c *Cell) tatForTest() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tat
}
