package relaymode

const (
	Unknown = iota
	ChatCompletions
	Completions
	Edits
	Embeddings
	Moderations
	ImagesGenerations
	ImagesEdits
	ImagesVariations
	AudioSpeech
	AudioTranscription
	AudioTranslation
)

// Name returns the stable label used in logs and metrics.
func Name(mode int) string {
	switch mode {
	case ChatCompletions:
		return "chat_completions"
	case Completions:
		return "completions"
	case Edits:
		return "edits"
	case Embeddings:
		return "embeddings"
	case Moderations:
		return "moderations"
	case ImagesGenerations:
		return "images_generations"
	case ImagesEdits:
		return "images_edits"
	case ImagesVariations:
		return "images_variations"
	case AudioSpeech:
		return "audio_speech"
	case AudioTranscription:
		return "audio_transcription"
	case AudioTranslation:
		return "audio_translation"
	default:
		return "unknown"
	}
}

// IsMultipart reports whether the endpoint consumes multipart/form-data
// instead of a JSON body.
func IsMultipart(mode int) bool {
	switch mode {
	case ImagesEdits, ImagesVariations, AudioTranscription, AudioTranslation:
		return true
	default:
		return false
	}
}
