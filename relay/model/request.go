package model

// Request DTOs for the supported endpoint catalogue. Only the fields the
// admission engine introspects are declared; unknown client fields are
// preserved separately by the payload layer, so these structs never need to
// enumerate the full OpenAI surface.

// ChatRequest is the POST /v1/chat/completions body.
type ChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	N         int       `json:"n,omitempty"`
	Stream    bool      `json:"stream,omitempty"`
	User      string    `json:"user,omitempty"`
}

// CompletionRequest is the POST /v1/completions body. Prompt is a string,
// an array of strings, or a token array; BestOf interacts with N for fanout.
type CompletionRequest struct {
	Model     string `json:"model"`
	Prompt    any    `json:"prompt"`
	BestOf    int    `json:"best_of,omitempty"`
	N         int    `json:"n,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Stream    bool   `json:"stream,omitempty"`
	User      string `json:"user,omitempty"`
}

// EditRequest is the POST /v1/edits body.
type EditRequest struct {
	Model       string `json:"model"`
	Input       string `json:"input,omitempty"`
	Instruction string `json:"instruction"`
	N           int    `json:"n,omitempty"`
}

// EmbeddingRequest is the POST /v1/embeddings body. Input is a string or an
// array of strings / token arrays.
type EmbeddingRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
	User  string `json:"user,omitempty"`
}

// ModerationRequest is the POST /v1/moderations body.
type ModerationRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// ImageRequest is the POST /v1/images/generations body.
type ImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n,omitempty"`
	Size   string `json:"size,omitempty"`
	User   string `json:"user,omitempty"`
}

// TTSRequest is the POST /v1/audio/speech body.
type TTSRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}
