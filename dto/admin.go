// Package dto defines the JSON forms of the admin CRUD surface and their
// conversions to the stored entities. Validation happens here, through gin's
// binding tags, so the controllers only see well-formed values.
package dto

import (
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

// LoginRequest is the credential form for POST /admin/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "invalid uuid %q", s)
	}
	return id, nil
}

func parseIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid uuid %q", value)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatIDs(ids []uuid.UUID) []string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	return values
}

// User is the admin wire form of a stored user.
type User struct {
	ID      string   `json:"id"`
	Label   string   `json:"label" binding:"required"`
	APIKeys []string `json:"api_keys" binding:"required,min=1,dive,min=1"`
	Roles   []string `json:"roles"`
	Models  []string `json:"models"`
	Quotas  []string `json:"quotas"`
}

func (f *User) Entity() (*model.User, error) {
	id, err := parseID(f.ID)
	if err != nil {
		return nil, err
	}
	roles, err := parseIDs(f.Roles)
	if err != nil {
		return nil, err
	}
	models, err := parseIDs(f.Models)
	if err != nil {
		return nil, err
	}
	quotas, err := parseIDs(f.Quotas)
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:      id,
		Label:   f.Label,
		APIKeys: f.APIKeys,
		Roles:   roles,
		Models:  models,
		Quotas:  quotas,
	}, nil
}

func NewUser(entity *model.User) *User {
	return &User{
		ID:      entity.ID.String(),
		Label:   entity.Label,
		APIKeys: entity.APIKeys,
		Roles:   formatIDs(entity.Roles),
		Models:  formatIDs(entity.Models),
		Quotas:  formatIDs(entity.Quotas),
	}
}

// Role is the admin wire form of a stored role.
type Role struct {
	ID     string   `json:"id"`
	Label  string   `json:"label" binding:"required"`
	Admin  bool     `json:"admin"`
	Models []string `json:"models"`
	Quotas []string `json:"quotas"`
}

func (f *Role) Entity() (*model.Role, error) {
	id, err := parseID(f.ID)
	if err != nil {
		return nil, err
	}
	models, err := parseIDs(f.Models)
	if err != nil {
		return nil, err
	}
	quotas, err := parseIDs(f.Quotas)
	if err != nil {
		return nil, err
	}
	return &model.Role{
		ID:     id,
		Label:  f.Label,
		Admin:  f.Admin,
		Models: models,
		Quotas: quotas,
	}, nil
}

func NewRole(entity *model.Role) *Role {
	return &Role{
		ID:     entity.ID.String(),
		Label:  entity.Label,
		Admin:  entity.Admin,
		Models: formatIDs(entity.Models),
		Quotas: formatIDs(entity.Quotas),
	}
}

// Limit is one declared quota window; periods travel as whole seconds.
type Limit struct {
	Count         int64  `json:"count" binding:"min=0"`
	Kind          string `json:"kind" binding:"required,oneof=request token"`
	PeriodSeconds int64  `json:"period_seconds" binding:"required,min=1"`
}

// Quota is the admin wire form of a stored quota.
type Quota struct {
	ID     string  `json:"id"`
	Label  string  `json:"label" binding:"required"`
	Limits []Limit `json:"limits" binding:"required,min=1,dive"`
}

func (f *Quota) Entity() (*model.Quota, error) {
	id, err := parseID(f.ID)
	if err != nil {
		return nil, err
	}
	limits := make([]model.Limit, 0, len(f.Limits))
	for _, limit := range f.Limits {
		kind := model.ItemKindRequest
		if limit.Kind == "token" {
			kind = model.ItemKindToken
		}
		limits = append(limits, model.Limit{
			Count:  limit.Count,
			Kind:   kind,
			Period: time.Duration(limit.PeriodSeconds) * time.Second,
		})
	}
	return &model.Quota{ID: id, Label: f.Label, Limits: limits}, nil
}

func NewQuota(entity *model.Quota) *Quota {
	limits := make([]Limit, 0, len(entity.Limits))
	for _, limit := range entity.Limits {
		kind := "request"
		if limit.Kind == model.ItemKindToken {
			kind = "token"
		}
		limits = append(limits, Limit{
			Count:         limit.Count,
			Kind:          kind,
			PeriodSeconds: int64(limit.Period / time.Second),
		})
	}
	return &Quota{ID: entity.ID.String(), Label: entity.Label, Limits: limits}
}

// Backend is the provider descriptor inside a model form. Credential fields
// are round-tripped as-is; the admin surface is trusted.
type Backend struct {
	Kind         string `json:"kind" binding:"required,oneof=openai azure bedrock vertexai"`
	ModelID      string `json:"model_id" binding:"required"`
	ProxyUserIDs bool   `json:"proxy_user_ids"`

	BaseURL    string `json:"base_url,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	APIVersion string `json:"api_version,omitempty"`

	Region          string `json:"region,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`

	Project         string `json:"project,omitempty"`
	Location        string `json:"location,omitempty"`
	CredentialsJSON string `json:"credentials_json,omitempty"`
}

func backendKind(kind string) model.BackendKind {
	switch kind {
	case "azure":
		return model.BackendAzure
	case "bedrock":
		return model.BackendBedrock
	case "vertexai":
		return model.BackendVertexAI
	default:
		return model.BackendOpenAI
	}
}

// Model is the admin wire form of a stored model.
type Model struct {
	ID               string   `json:"id"`
	Label            string   `json:"label" binding:"required"`
	Backend          Backend  `json:"backend" binding:"required"`
	ContextLength    int      `json:"context_length" binding:"min=0"`
	Tokenizer        string   `json:"tokenizer,omitempty"`
	TokensPerMessage int      `json:"tokens_per_message,omitempty"`
	TokensPerName    int      `json:"tokens_per_name,omitempty"`
	Quotas           []string `json:"quotas"`
	MaxQueueSize     int      `json:"max_queue_size" binding:"min=0"`
}

func (f *Model) Entity() (*model.Model, error) {
	id, err := parseID(f.ID)
	if err != nil {
		return nil, err
	}
	quotas, err := parseIDs(f.Quotas)
	if err != nil {
		return nil, err
	}
	// The two Backend shapes are field-for-field identical except Kind.
	var backend model.Backend
	if err := copier.Copy(&backend, &f.Backend); err != nil {
		return nil, errors.Wrap(err, "copy backend descriptor")
	}
	backend.Kind = backendKind(f.Backend.Kind)
	return &model.Model{
		ID:               id,
		Label:            f.Label,
		Backend:          backend,
		ContextLength:    f.ContextLength,
		Tokenizer:        f.Tokenizer,
		TokensPerMessage: f.TokensPerMessage,
		TokensPerName:    f.TokensPerName,
		Quotas:           quotas,
		MaxQueueSize:     f.MaxQueueSize,
	}, nil
}

func NewModel(entity *model.Model) *Model {
	var backend Backend
	_ = copier.Copy(&backend, &entity.Backend)
	backend.Kind = entity.Backend.Kind.String()
	return &Model{
		ID:               entity.ID.String(),
		Label:            entity.Label,
		Backend:          backend,
		ContextLength:    entity.ContextLength,
		Tokenizer:        entity.Tokenizer,
		TokensPerMessage: entity.TokensPerMessage,
		TokensPerName:    entity.TokensPerName,
		Quotas:           formatIDs(entity.Quotas),
		MaxQueueSize:     entity.MaxQueueSize,
	}
}
