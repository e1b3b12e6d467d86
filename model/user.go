package model

import (
	"github.com/google/uuid"
)

// User owns a set of globally unique API keys and references roles, models,
// and quotas by UUID. Dangling references are legal: the policy resolver
// skips them silently instead of failing the request.
type User struct {
	ID      uuid.UUID
	Label   string
	APIKeys []string
	Roles   []uuid.UUID
	Models  []uuid.UUID
	Quotas  []uuid.UUID
}

func (u *User) MarshalBinary() ([]byte, error) {
	e := newEncoder()
	e.uuid(u.ID)
	e.string(u.Label)
	e.strings(u.APIKeys)
	e.uuids(u.Roles)
	e.uuids(u.Models)
	e.uuids(u.Quotas)
	return e.buf, nil
}

func (u *User) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	u.ID = d.uuid()
	u.Label = d.string()
	u.APIKeys = d.strings()
	u.Roles = d.uuids()
	u.Models = d.uuids()
	u.Quotas = d.uuids()
	return d.finish()
}

// RelatedKeys projects the user's API keys into the api_keys index table.
// Duplicate detection on these keys at insert time is what enforces global
// API-key uniqueness.
func (u *User) RelatedKeys() [][]byte {
	keys := make([][]byte, 0, len(u.APIKeys))
	for _, key := range u.APIKeys {
		keys = append(keys, []byte(key))
	}
	return keys
}
