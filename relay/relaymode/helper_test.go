package relaymode

import "testing"

func TestGetByPath(t *testing.T) {
	cases := map[string]int{
		"/v1/chat/completions":     ChatCompletions,
		"/v1/completions":          Completions,
		"/v1/edits":                Edits,
		"/v1/embeddings":           Embeddings,
		"/v1/moderations":          Moderations,
		"/v1/images/generations":   ImagesGenerations,
		"/v1/images/edits":         ImagesEdits,
		"/v1/images/variations":    ImagesVariations,
		"/v1/audio/speech":         AudioSpeech,
		"/v1/audio/transcriptions": AudioTranscription,
		"/v1/audio/translations":   AudioTranslation,
		"/v1/responses":            Unknown,
		"/v1/":                     Unknown,
	}
	for path, want := range cases {
		if got := GetByPath(path); got != want {
			t.Fatalf("GetByPath(%q) = %d, want %d", path, got, want)
		}
	}
}

func TestIsMultipart(t *testing.T) {
	multipart := []int{ImagesEdits, ImagesVariations, AudioTranscription, AudioTranslation}
	for _, mode := range multipart {
		if !IsMultipart(mode) {
			t.Fatalf("expected %s to be multipart", Name(mode))
		}
	}
	if IsMultipart(ChatCompletions) {
		t.Fatal("chat_completions must not be multipart")
	}
}
