package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20

type requestVariant struct {
	Key    string
	Path   string
	Body   func(model string) any
	Expect string // top-level field a successful response must carry
}

func buildVariants(withEmbeddings bool) []requestVariant {
	variants := []requestVariant{
		{
			Key:  "chat",
			Path: "/v1/chat/completions",
			Body: func(model string) any {
				return map[string]any{
					"model":      model,
					"max_tokens": 64,
					"messages": []map[string]any{
						{"role": "user", "content": "Answer with one word: what color is the sky?"},
					},
				}
			},
			Expect: "choices",
		},
		{
			Key:  "chat_n2",
			Path: "/v1/chat/completions",
			Body: func(model string) any {
				return map[string]any{
					"model":      model,
					"max_tokens": 32,
					"n":          2,
					"messages": []map[string]any{
						{"role": "user", "content": "Say hi."},
					},
				}
			},
			Expect: "choices",
		},
		{
			Key:  "chat_stream_stripped",
			Path: "/v1/chat/completions",
			Body: func(model string) any {
				// stream must be stripped proxy-side; a complete JSON body
				// coming back is the assertion.
				return map[string]any{
					"model":      model,
					"max_tokens": 32,
					"stream":     true,
					"messages": []map[string]any{
						{"role": "user", "content": "Say hi."},
					},
				}
			},
			Expect: "choices",
		},
	}
	if withEmbeddings {
		variants = append(variants, requestVariant{
			Key:  "embedding",
			Path: "/v1/embeddings",
			Body: func(model string) any {
				return map[string]any{"model": model, "input": "smoke test"}
			},
			Expect: "data",
		})
	}
	return variants
}

type sweepResult struct {
	Model      string
	Variant    string
	StatusCode int
	Duration   time.Duration
	Success    bool
	Skipped    bool
	Reason     string
}

func performRequest(ctx context.Context, client *http.Client, cfg sweepConfig, model string, variant requestVariant) (result sweepResult) {
	start := time.Now()
	result = sweepResult{Model: model, Variant: variant.Key}
	defer func() { result.Duration = time.Since(start) }()

	payload, err := json.Marshal(variant.Body(model))
	if err != nil {
		result.Reason = fmt.Sprintf("marshal payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBase+variant.Path, bytes.NewReader(payload))
	if err != nil {
		result.Reason = fmt.Sprintf("build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.Token)

	resp, err := client.Do(req)
	if err != nil {
		result.Reason = fmt.Sprintf("do request: %v", err)
		return
	}
	defer resp.Body.Close()
	result.StatusCode = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		result.Reason = fmt.Sprintf("read response: %v", err)
		return
	}

	// A label this key cannot reach is a configuration gap, not a proxy bug.
	if resp.StatusCode == http.StatusNotFound && bytes.Contains(body, []byte("model_not_found")) {
		result.Skipped = true
		result.Reason = "label not assigned to this key"
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Reason = snippet(body)
		return
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		result.Reason = fmt.Sprintf("decode response: %v", err)
		return
	}
	if _, ok := decoded[variant.Expect]; !ok {
		result.Reason = fmt.Sprintf("response missing %q: %s", variant.Expect, snippet(body))
		return
	}
	if model != decoded["model"] && decoded["model"] != nil {
		result.Reason = fmt.Sprintf("model label not restored: got %v", decoded["model"])
		return
	}
	result.Success = true
	return
}

func snippet(body []byte) string {
	const limit = 160
	s := string(bytes.TrimSpace(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
