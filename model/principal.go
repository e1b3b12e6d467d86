package model

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the per-request immutable flattening of one user and its
// roles: which models the key may address (by public label), which quotas
// gate it, and the tag UUIDs that drive request ids and pseudonymous
// upstream user ids. Admin edits after resolution never mutate the snapshot.
type Principal struct {
	// Tags starts with the user UUID, followed by each contributing role
	// UUID and then each effective quota UUID, in resolution order. The
	// first tag feeds the pseudonymous upstream user id, the last one the
	// response-id derivation.
	Tags []uuid.UUID

	// Models keys the effective model set by public label. When a user and
	// a role expose different model UUIDs under the same label, the one
	// reached first wins: user-attached models are resolved before role
	// attachments, roles in the user's declared order.
	Models map[string]*Model

	// Quotas is the ordered, de-duplicated list of effective quotas.
	Quotas []*Quota

	// Admin is set when any contributing role carries the admin flag.
	Admin bool
}

// principalSource is the slice of the store the resolver reads. Split out so
// resolution stays testable against a fake.
type principalSource interface {
	GetRole(id uuid.UUID) (*Role, error)
	GetQuota(id uuid.UUID) (*Quota, error)
	GetModel(id uuid.UUID) (*Model, error)
}

// ResolvePrincipal authenticates an API key and flattens the user's graph.
// An unknown key returns ErrNotFound (AuthInvalid at the edge); dangling
// role/quota/model references are skipped silently, never failing the
// request.
func ResolvePrincipal(ctx context.Context, apiKey string) (*Principal, error) {
	user, err := CacheGetUserByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return buildPrincipal(user, store), nil
}

func buildPrincipal(user *User, src principalSource) *Principal {
	principal := &Principal{
		Tags:   []uuid.UUID{user.ID},
		Models: make(map[string]*Model),
	}
	seenQuotas := make(map[uuid.UUID]bool)

	addModels := func(ids []uuid.UUID) {
		for _, id := range ids {
			m, err := src.GetModel(id)
			if err != nil {
				continue
			}
			if _, taken := principal.Models[m.Label]; taken {
				// First resolution wins on label collisions.
				continue
			}
			principal.Models[m.Label] = m
		}
	}
	addQuotas := func(ids []uuid.UUID) {
		for _, id := range ids {
			if seenQuotas[id] {
				continue
			}
			quota, err := src.GetQuota(id)
			if err != nil {
				continue
			}
			seenQuotas[id] = true
			principal.Quotas = append(principal.Quotas, quota)
		}
	}

	addModels(user.Models)
	addQuotas(user.Quotas)

	for _, roleID := range user.Roles {
		role, err := src.GetRole(roleID)
		if err != nil {
			continue
		}
		principal.Tags = append(principal.Tags, role.ID)
		if role.Admin {
			principal.Admin = true
		}
		addModels(role.Models)
		addQuotas(role.Quotas)
	}

	for _, quota := range principal.Quotas {
		principal.Tags = append(principal.Tags, quota.ID)
	}
	return principal
}

// FirstTag returns the user UUID.
func (p *Principal) FirstTag() uuid.UUID {
	return p.Tags[0]
}

// LastTag returns the final tag UUID, the one response ids derive from.
func (p *Principal) LastTag() uuid.UUID {
	return p.Tags[len(p.Tags)-1]
}
