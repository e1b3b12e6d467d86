package model

import (
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrateDB(db))
	return NewStore(db)
}

func TestStoreUserInsertGetRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	user := &User{
		ID:      uuid.New(),
		Label:   "alice",
		APIKeys: []string{"sk-alpha", "sk-beta"},
		Quotas:  []uuid.UUID{uuid.New()},
	}

	require.NoError(t, s.InsertUser(user))

	got, err := s.GetUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, user, got)

	// Both keys resolve through the api_keys index.
	for _, key := range user.APIKeys {
		owner, err := s.GetUserByAPIKey(key)
		require.NoError(t, err)
		require.Equal(t, user.ID, owner.ID)
	}
}

func TestStoreDuplicateAPIKeyIsAtomic(t *testing.T) {
	s := setupTestStore(t)
	first := &User{ID: uuid.New(), Label: "first", APIKeys: []string{"sk-shared"}}
	require.NoError(t, s.InsertUser(first))

	second := &User{ID: uuid.New(), Label: "second", APIKeys: []string{"sk-fresh", "sk-shared"}}
	err := s.InsertUser(second)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDuplicate))

	// Nothing of the aborted insert is visible: neither the main row nor
	// the non-colliding related key.
	_, err = s.GetUser(second.ID)
	require.True(t, errors.Is(err, ErrNotFound))
	_, err = s.GetUserByAPIKey("sk-fresh")
	require.True(t, errors.Is(err, ErrNotFound))

	// The original owner is untouched.
	owner, err := s.GetUserByAPIKey("sk-shared")
	require.NoError(t, err)
	require.Equal(t, first.ID, owner.ID)
}

func TestStoreReplaceUserDisplacesOldKeys(t *testing.T) {
	s := setupTestStore(t)
	id := uuid.New()
	require.NoError(t, s.InsertUser(&User{ID: id, Label: "v1", APIKeys: []string{"sk-old"}}))
	require.NoError(t, s.InsertUser(&User{ID: id, Label: "v2", APIKeys: []string{"sk-new"}}))

	_, err := s.GetUserByAPIKey("sk-old")
	require.True(t, errors.Is(err, ErrNotFound))

	owner, err := s.GetUserByAPIKey("sk-new")
	require.NoError(t, err)
	require.Equal(t, "v2", owner.Label)

	// Replacing a user may re-declare its own keys without tripping the
	// duplicate check.
	require.NoError(t, s.InsertUser(&User{ID: id, Label: "v3", APIKeys: []string{"sk-new"}}))
}

func TestStoreRemoveUserRemovesKeys(t *testing.T) {
	s := setupTestStore(t)
	user := &User{ID: uuid.New(), APIKeys: []string{"sk-gone"}}
	require.NoError(t, s.InsertUser(user))
	require.NoError(t, s.RemoveUser(user.ID))

	_, err := s.GetUser(user.ID)
	require.True(t, errors.Is(err, ErrNotFound))
	_, err = s.GetUserByAPIKey("sk-gone")
	require.True(t, errors.Is(err, ErrNotFound))

	require.True(t, errors.Is(s.RemoveUser(user.ID), ErrNotFound))
}

func TestStoreQuotaCRUD(t *testing.T) {
	s := setupTestStore(t)
	quota := &Quota{
		ID:    uuid.New(),
		Label: "tokens",
		Limits: []Limit{
			{Count: 128, Kind: ItemKindToken, Period: 8 * time.Second},
		},
	}

	require.NoError(t, s.InsertQuota(quota))
	got, err := s.GetQuota(quota.ID)
	require.NoError(t, err)
	require.Equal(t, quota, got)

	all, err := s.GetQuotas()
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, s.RemoveQuota(quota.ID))
	_, err = s.GetQuota(quota.ID)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreModelReplaceOnCollision(t *testing.T) {
	s := setupTestStore(t)
	id := uuid.New()
	require.NoError(t, s.InsertModel(&Model{ID: id, Label: "old"}))
	require.NoError(t, s.InsertModel(&Model{ID: id, Label: "new"}))

	got, err := s.GetModel(id)
	require.NoError(t, err)
	require.Equal(t, "new", got.Label)

	models, err := s.GetModels()
	require.NoError(t, err)
	require.Len(t, models, 1)
}
