package model

import (
	"github.com/google/uuid"
)

// Role is purely additive: a user's effective models and quotas are the
// union of its own and those of every role it names.
type Role struct {
	ID     uuid.UUID
	Label  string
	Admin  bool
	Models []uuid.UUID
	Quotas []uuid.UUID
}

func (r *Role) MarshalBinary() ([]byte, error) {
	e := newEncoder()
	e.uuid(r.ID)
	e.string(r.Label)
	e.bool(r.Admin)
	e.uuids(r.Models)
	e.uuids(r.Quotas)
	return e.buf, nil
}

func (r *Role) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	r.ID = d.uuid()
	r.Label = d.string()
	r.Admin = d.bool()
	r.Models = d.uuids()
	r.Quotas = d.uuids()
	return d.finish()
}
