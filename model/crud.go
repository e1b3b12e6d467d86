package model

import (
	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
)

// Typed CRUD over the five tables. Users route through the related-items
// transactions so the api_keys index stays consistent with the user table;
// the other entities are plain rows.

func projectUserKeys(value []byte) ([][]byte, error) {
	var user User
	if err := user.UnmarshalBinary(value); err != nil {
		return nil, errors.Wrap(err, "decode displaced user")
	}
	return user.RelatedKeys(), nil
}

// InsertUser inserts or replaces a user and re-projects its API keys into
// the api_keys index. A key owned by another user aborts with ErrDuplicate
// and leaves nothing visible.
func (s *Store) InsertUser(user *User) error {
	value, err := user.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode user")
	}
	related := make([]Row, 0, len(user.APIKeys))
	for _, key := range user.APIKeys {
		related = append(related, Row{Key: []byte(key), Value: user.ID[:]})
	}
	return s.insertRelatedItems(TableUsers, TableAPIKeys, user.ID[:], value, related, projectUserKeys)
}

func (s *Store) GetUser(id uuid.UUID) (*User, error) {
	value, err := s.getItem(TableUsers, id[:])
	if err != nil {
		return nil, err
	}
	var user User
	if err := user.UnmarshalBinary(value); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUsers() ([]*User, error) {
	rows, err := s.getTable(TableUsers)
	if err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		var user User
		if err := user.UnmarshalBinary(row.Value); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, nil
}

func (s *Store) RemoveUser(id uuid.UUID) error {
	return s.removeRelatedItems(TableUsers, TableAPIKeys, id[:], projectUserKeys)
}

// GetUserByAPIKey resolves an API key through the api_keys index to the
// owning user. ErrNotFound means the key is unknown (AuthInvalid at the
// client edge).
func (s *Store) GetUserByAPIKey(key string) (*User, error) {
	value, err := s.getItem(TableAPIKeys, []byte(key))
	if err != nil {
		return nil, err
	}
	id, err := uuid.FromBytes(value)
	if err != nil {
		return nil, errors.Wrap(err, "decode api key owner")
	}
	return s.GetUser(id)
}

func (s *Store) InsertRole(role *Role) error {
	value, err := role.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode role")
	}
	return s.insertItem(TableRoles, role.ID[:], value)
}

func (s *Store) GetRole(id uuid.UUID) (*Role, error) {
	value, err := s.getItem(TableRoles, id[:])
	if err != nil {
		return nil, err
	}
	var role Role
	if err := role.UnmarshalBinary(value); err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Store) GetRoles() ([]*Role, error) {
	rows, err := s.getTable(TableRoles)
	if err != nil {
		return nil, err
	}
	roles := make([]*Role, 0, len(rows))
	for _, row := range rows {
		var role Role
		if err := role.UnmarshalBinary(row.Value); err != nil {
			return nil, err
		}
		roles = append(roles, &role)
	}
	return roles, nil
}

func (s *Store) RemoveRole(id uuid.UUID) error {
	return s.removeItem(TableRoles, id[:])
}

func (s *Store) InsertQuota(quota *Quota) error {
	value, err := quota.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode quota")
	}
	return s.insertItem(TableQuotas, quota.ID[:], value)
}

func (s *Store) GetQuota(id uuid.UUID) (*Quota, error) {
	value, err := s.getItem(TableQuotas, id[:])
	if err != nil {
		return nil, err
	}
	var quota Quota
	if err := quota.UnmarshalBinary(value); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (s *Store) GetQuotas() ([]*Quota, error) {
	rows, err := s.getTable(TableQuotas)
	if err != nil {
		return nil, err
	}
	quotas := make([]*Quota, 0, len(rows))
	for _, row := range rows {
		var quota Quota
		if err := quota.UnmarshalBinary(row.Value); err != nil {
			return nil, err
		}
		quotas = append(quotas, &quota)
	}
	return quotas, nil
}

func (s *Store) RemoveQuota(id uuid.UUID) error {
	return s.removeItem(TableQuotas, id[:])
}

func (s *Store) InsertModel(m *Model) error {
	value, err := m.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode model")
	}
	return s.insertItem(TableModels, m.ID[:], value)
}

func (s *Store) GetModel(id uuid.UUID) (*Model, error) {
	value, err := s.getItem(TableModels, id[:])
	if err != nil {
		return nil, err
	}
	var m Model
	if err := m.UnmarshalBinary(value); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetModels() ([]*Model, error) {
	rows, err := s.getTable(TableModels)
	if err != nil {
		return nil, err
	}
	models := make([]*Model, 0, len(rows))
	for _, row := range rows {
		var m Model
		if err := m.UnmarshalBinary(row.Value); err != nil {
			return nil, err
		}
		models = append(models, &m)
	}
	return models, nil
}

func (s *Store) RemoveModel(id uuid.UUID) error {
	return s.removeItem(TableModels, id[:])
}
