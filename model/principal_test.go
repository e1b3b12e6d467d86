package model

import (
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	roles  map[uuid.UUID]*Role
	quotas map[uuid.UUID]*Quota
	models map[uuid.UUID]*Model
}

func (f *fakeSource) GetRole(id uuid.UUID) (*Role, error) {
	if role, ok := f.roles[id]; ok {
		return role, nil
	}
	return nil, errors.WithStack(ErrNotFound)
}

func (f *fakeSource) GetQuota(id uuid.UUID) (*Quota, error) {
	if quota, ok := f.quotas[id]; ok {
		return quota, nil
	}
	return nil, errors.WithStack(ErrNotFound)
}

func (f *fakeSource) GetModel(id uuid.UUID) (*Model, error) {
	if m, ok := f.models[id]; ok {
		return m, nil
	}
	return nil, errors.WithStack(ErrNotFound)
}

func TestBuildPrincipalFlattensGraph(t *testing.T) {
	userModel := &Model{ID: uuid.New(), Label: "gpt-4-fast"}
	roleModel := &Model{ID: uuid.New(), Label: "gpt-3.5-cheap"}
	userQuota := &Quota{ID: uuid.New(), Label: "per-user", Limits: []Limit{{Count: 5, Kind: ItemKindRequest, Period: time.Minute}}}
	roleQuota := &Quota{ID: uuid.New(), Label: "per-role", Limits: []Limit{{Count: 1000, Kind: ItemKindToken, Period: time.Minute}}}
	role := &Role{ID: uuid.New(), Label: "devs", Models: []uuid.UUID{roleModel.ID}, Quotas: []uuid.UUID{roleQuota.ID}}

	src := &fakeSource{
		roles:  map[uuid.UUID]*Role{role.ID: role},
		quotas: map[uuid.UUID]*Quota{userQuota.ID: userQuota, roleQuota.ID: roleQuota},
		models: map[uuid.UUID]*Model{userModel.ID: userModel, roleModel.ID: roleModel},
	}
	user := &User{
		ID:     uuid.New(),
		Roles:  []uuid.UUID{role.ID},
		Models: []uuid.UUID{userModel.ID},
		Quotas: []uuid.UUID{userQuota.ID},
	}

	principal := buildPrincipal(user, src)

	require.Len(t, principal.Models, 2)
	require.Same(t, userModel, principal.Models["gpt-4-fast"])
	require.Same(t, roleModel, principal.Models["gpt-3.5-cheap"])

	require.Len(t, principal.Quotas, 2)
	require.Same(t, userQuota, principal.Quotas[0])
	require.Same(t, roleQuota, principal.Quotas[1])

	// Tags: user first, then contributing roles, then effective quotas.
	require.Equal(t, []uuid.UUID{user.ID, role.ID, userQuota.ID, roleQuota.ID}, principal.Tags)
	require.Equal(t, user.ID, principal.FirstTag())
	require.Equal(t, roleQuota.ID, principal.LastTag())
	require.False(t, principal.Admin)
}

func TestBuildPrincipalLabelCollisionFirstWins(t *testing.T) {
	userModel := &Model{ID: uuid.New(), Label: "gpt-4-fast", ContextLength: 8192}
	roleModel := &Model{ID: uuid.New(), Label: "gpt-4-fast", ContextLength: 128000}
	role := &Role{ID: uuid.New(), Models: []uuid.UUID{roleModel.ID}}

	src := &fakeSource{
		roles:  map[uuid.UUID]*Role{role.ID: role},
		models: map[uuid.UUID]*Model{userModel.ID: userModel, roleModel.ID: roleModel},
	}
	user := &User{
		ID:     uuid.New(),
		Roles:  []uuid.UUID{role.ID},
		Models: []uuid.UUID{userModel.ID},
	}

	principal := buildPrincipal(user, src)
	// User-attached models resolve before role attachments.
	require.Same(t, userModel, principal.Models["gpt-4-fast"])
}

func TestBuildPrincipalSkipsDanglingReferences(t *testing.T) {
	src := &fakeSource{}
	user := &User{
		ID:     uuid.New(),
		Roles:  []uuid.UUID{uuid.New()},
		Models: []uuid.UUID{uuid.New()},
		Quotas: []uuid.UUID{uuid.New()},
	}

	principal := buildPrincipal(user, src)
	require.Empty(t, principal.Models)
	require.Empty(t, principal.Quotas)
	require.Equal(t, []uuid.UUID{user.ID}, principal.Tags)
}

func TestBuildPrincipalDeterministic(t *testing.T) {
	quota := &Quota{ID: uuid.New(), Label: "shared"}
	role := &Role{ID: uuid.New(), Admin: true, Quotas: []uuid.UUID{quota.ID}}
	src := &fakeSource{
		roles:  map[uuid.UUID]*Role{role.ID: role},
		quotas: map[uuid.UUID]*Quota{quota.ID: quota},
	}
	// The quota is referenced both directly and through the role; it must
	// appear once, and repeated resolutions must agree.
	user := &User{
		ID:     uuid.New(),
		Roles:  []uuid.UUID{role.ID},
		Quotas: []uuid.UUID{quota.ID},
	}

	first := buildPrincipal(user, src)
	second := buildPrincipal(user, src)

	require.Len(t, first.Quotas, 1)
	require.Equal(t, first.Tags, second.Tags)
	require.Equal(t, first.Quotas, second.Quotas)
	require.True(t, first.Admin)
}
