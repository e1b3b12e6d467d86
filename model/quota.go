package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/limiter"
)

// ItemKind selects what one quota limit meters.
type ItemKind int

const (
	ItemKindRequest ItemKind = iota
	ItemKindToken
)

// Limit is one declared window: Count items of Kind per Period.
// Replenishment rate is Count/Period, burst capacity is Count.
type Limit struct {
	Count  int64
	Kind   ItemKind
	Period time.Duration
}

// Quota is an ordered list of limits admitted and settled together. The
// declared order is preserved end to end: it determines which window's wait
// dominates an admission.
type Quota struct {
	ID     uuid.UUID
	Label  string
	Limits []Limit
}

// clamp normalises a stored or submitted limit so no runtime cell can
// divide by zero.
func (l Limit) clamp() Limit {
	if l.Count < 1 {
		l.Count = 1
	}
	if l.Period <= 0 {
		l.Period = time.Second
	}
	return l
}

func (q *Quota) MarshalBinary() ([]byte, error) {
	e := newEncoder()
	e.uuid(q.ID)
	e.string(q.Label)
	e.uvarint(uint64(len(q.Limits)))
	for _, limit := range q.Limits {
		limit = limit.clamp()
		e.uvarint(uint64(limit.Count))
		e.uvarint(uint64(limit.Kind))
		e.duration(limit.Period)
	}
	return e.buf, nil
}

func (q *Quota) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	q.ID = d.uuid()
	q.Label = d.string()
	n := int(d.uvarint())
	q.Limits = nil
	for range n {
		limit := Limit{
			Count:  int64(d.uvarint()),
			Kind:   ItemKind(d.uvarint()),
			Period: d.duration(),
		}
		q.Limits = append(q.Limits, limit.clamp())
	}
	return d.finish()
}

// LimiterLimits converts the declared limits into the runtime limiter's
// representation, preserving order.
func (q *Quota) LimiterLimits() []limiter.Limit {
	limits := make([]limiter.Limit, 0, len(q.Limits))
	for _, l := range q.Limits {
		l = l.clamp()
		kind := limiter.KindRequest
		if l.Kind == ItemKindToken {
			kind = limiter.KindToken
		}
		limits = append(limits, limiter.Limit{
			Count:  l.Count,
			Kind:   kind,
			Period: l.Period,
		})
	}
	return limits
}
