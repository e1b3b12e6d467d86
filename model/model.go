package model

import (
	"github.com/google/uuid"
)

// BackendKind tags the upstream-provider variant of a model's backend
// descriptor. Adding a provider means adding one variant here plus one
// adaptor package; nothing in the admission engine branches on it.
type BackendKind int

const (
	BackendOpenAI BackendKind = iota
	BackendAzure
	BackendBedrock
	BackendVertexAI
)

func (k BackendKind) String() string {
	switch k {
	case BackendAzure:
		return "azure"
	case BackendBedrock:
		return "bedrock"
	case BackendVertexAI:
		return "vertexai"
	default:
		return "openai"
	}
}

// Backend carries the credentials and upstream identifier for one provider
// variant. Unused fields stay empty for the other kinds.
type Backend struct {
	Kind BackendKind

	// ModelID is the identifier the upstream provider expects; the router
	// substitutes it for the public label before dispatch and restores the
	// label on the way back.
	ModelID string

	// ProxyUserIDs opts this backend into pseudonymous user-id fan-out:
	// the outgoing `user` field becomes a Crockford-base32 SHA-256 of the
	// request's first tag UUID. Off means the field is removed entirely.
	ProxyUserIDs bool

	// OpenAI / Azure.
	BaseURL    string
	APIKey     string
	APIVersion string // Azure api-version query parameter

	// AWS Bedrock.
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// Vertex AI.
	Project         string
	Location        string
	CredentialsJSON string // service-account key used for token exchange
}

// Model maps a public label to an upstream backend, plus the token-counting
// metadata the estimator needs and the admission wiring (quotas, queue bound).
type Model struct {
	ID      uuid.UUID
	Label   string
	Backend Backend

	// ContextLength caps token estimates on endpoints that support
	// max_tokens; 0 means unknown.
	ContextLength int
	// Tokenizer names a BPE variant in the tokenizer registry; empty picks
	// the per-endpoint default.
	Tokenizer string
	// TokensPerMessage / TokensPerName adjust chat token counting; 0 keeps
	// the cookbook defaults (3 and 1).
	TokensPerMessage int
	TokensPerName    int

	Quotas []uuid.UUID
	// MaxQueueSize bounds the model worker's queue; 0 means unbounded.
	MaxQueueSize int
}

func (b *Backend) marshal(e *encoder) {
	e.uvarint(uint64(b.Kind))
	e.string(b.ModelID)
	e.bool(b.ProxyUserIDs)
	e.string(b.BaseURL)
	e.string(b.APIKey)
	e.string(b.APIVersion)
	e.string(b.Region)
	e.string(b.AccessKeyID)
	e.string(b.SecretAccessKey)
	e.string(b.Project)
	e.string(b.Location)
	e.string(b.CredentialsJSON)
}

func (b *Backend) unmarshal(d *decoder) {
	b.Kind = BackendKind(d.uvarint())
	b.ModelID = d.string()
	b.ProxyUserIDs = d.bool()
	b.BaseURL = d.string()
	b.APIKey = d.string()
	b.APIVersion = d.string()
	b.Region = d.string()
	b.AccessKeyID = d.string()
	b.SecretAccessKey = d.string()
	b.Project = d.string()
	b.Location = d.string()
	b.CredentialsJSON = d.string()
}

func (m *Model) MarshalBinary() ([]byte, error) {
	e := newEncoder()
	e.uuid(m.ID)
	e.string(m.Label)
	m.Backend.marshal(e)
	e.uvarint(uint64(m.ContextLength))
	e.string(m.Tokenizer)
	e.varint(int64(m.TokensPerMessage))
	e.varint(int64(m.TokensPerName))
	e.uuids(m.Quotas)
	e.uvarint(uint64(m.MaxQueueSize))
	return e.buf, nil
}

func (m *Model) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	m.ID = d.uuid()
	m.Label = d.string()
	m.Backend.unmarshal(d)
	m.ContextLength = int(d.uvarint())
	m.Tokenizer = d.string()
	m.TokensPerMessage = int(d.varint())
	m.TokensPerName = int(d.varint())
	m.Quotas = d.uuids()
	m.MaxQueueSize = int(d.uvarint())
	return d.finish()
}
