package payload

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

func newJSONContext(t *testing.T, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/test", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func bodyMap(t *testing.T, req Request) map[string]any {
	t.Helper()
	reader, contentType, err := req.Body()
	require.NoError(t, err)
	require.Equal(t, "application/json", contentType)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestDecodeRequestChatFanout(t *testing.T) {
	c := newJSONContext(t, `{"model":"gpt","messages":[{"role":"user","content":"hi"}],"n":3}`)
	req, err := DecodeRequest(c, relaymode.ChatCompletions)
	require.NoError(t, err)
	require.Equal(t, "gpt", req.ModelLabel())
	require.Equal(t, 3, req.GenerationFanout())
}

func TestDecodeRequestChatFanoutDefault(t *testing.T) {
	c := newJSONContext(t, `{"model":"gpt","messages":[{"role":"user","content":"hi"}]}`)
	req, err := DecodeRequest(c, relaymode.ChatCompletions)
	require.NoError(t, err)
	require.Equal(t, 1, req.GenerationFanout())
}

func TestDecodeRequestCompletionFanout(t *testing.T) {
	// best_of dominates n, and an array prompt multiplies it per element.
	c := newJSONContext(t, `{"model":"gpt","prompt":["a","b","c"],"n":2,"best_of":4}`)
	req, err := DecodeRequest(c, relaymode.Completions)
	require.NoError(t, err)
	require.Equal(t, 12, req.GenerationFanout())
}

func TestDecodeRequestCompletionTokenArrayPrompt(t *testing.T) {
	// A single token array is one prompt, not len(tokens) prompts.
	c := newJSONContext(t, `{"model":"gpt","prompt":[1,2,3,4]}`)
	req, err := DecodeRequest(c, relaymode.Completions)
	require.NoError(t, err)
	require.Equal(t, 1, req.GenerationFanout())
}

func TestDecodeRequestEmbeddingFanout(t *testing.T) {
	c := newJSONContext(t, `{"model":"emb","input":["a","b"]}`)
	req, err := DecodeRequest(c, relaymode.Embeddings)
	require.NoError(t, err)
	require.Equal(t, 2, req.GenerationFanout())

	c = newJSONContext(t, `{"model":"emb","input":"just one"}`)
	req, err = DecodeRequest(c, relaymode.Embeddings)
	require.NoError(t, err)
	require.Equal(t, 1, req.GenerationFanout())
}

func TestDecodeRequestRejectsMalformedJSON(t *testing.T) {
	c := newJSONContext(t, `{"model":`)
	_, err := DecodeRequest(c, relaymode.ChatCompletions)
	require.Error(t, err)
}

func TestJSONRequestRewrites(t *testing.T) {
	c := newJSONContext(t, `{"model":"public-label","messages":[{"role":"user","content":"hi"}],`+
		`"stream":true,"stream_options":{"include_usage":true},"user":"client-chosen",`+
		`"some_future_field":{"nested":true}}`)
	req, err := DecodeRequest(c, relaymode.ChatCompletions)
	require.NoError(t, err)

	req.SetModelID("internal-id")
	req.SetUser("pseudonym")
	req.StripStream()

	m := bodyMap(t, req)
	require.Equal(t, "internal-id", m["model"])
	require.Equal(t, "pseudonym", m["user"])
	require.NotContains(t, m, "stream")
	require.NotContains(t, m, "stream_options")
	// Unknown fields survive the round trip.
	require.Contains(t, m, "some_future_field")
}

func TestJSONRequestSetUserEmptyRemovesField(t *testing.T) {
	c := newJSONContext(t, `{"model":"gpt","messages":[],"user":"client-chosen"}`)
	req, err := DecodeRequest(c, relaymode.ChatCompletions)
	require.NoError(t, err)
	req.SetUser("")
	require.NotContains(t, bodyMap(t, req), "user")
}

func newMultipartContext(t *testing.T, fields map[string]string, fileField, fileName string, fileData []byte) *gin.Context {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/test", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	return c
}

func TestMultipartRewriteAndPassthrough(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x01}
	c := newMultipartContext(t, map[string]string{
		"model":           "whisper-public",
		"user":            "client-chosen",
		"response_format": "verbose_json",
	}, "file", "clip.wav", audio)

	req, err := DecodeRequest(c, relaymode.AudioTranscription)
	require.NoError(t, err)
	require.Equal(t, "whisper-public", req.ModelLabel())
	require.Equal(t, 1, req.GenerationFanout())

	req.SetModelID("whisper-internal")
	req.SetUser("")

	reader, contentType, err := req.Body()
	require.NoError(t, err)

	mediaType, params := splitContentType(t, contentType)
	require.Equal(t, "multipart/form-data", mediaType)
	form, err := multipart.NewReader(reader, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)

	require.Equal(t, []string{"whisper-internal"}, form.Value["model"])
	require.NotContains(t, form.Value, "user")
	require.Equal(t, []string{"verbose_json"}, form.Value["response_format"])

	files := form.File["file"]
	require.Len(t, files, 1)
	require.Equal(t, "clip.wav", files[0].Filename)
	f, err := files[0].Open()
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, audio, data)
}

func squarePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestMultipartImageEditFanout(t *testing.T) {
	c := newMultipartContext(t, map[string]string{
		"model":  "img",
		"prompt": "a cat",
		"n":      "4",
	}, "image", "in.png", squarePNG(t))
	req, err := DecodeRequest(c, relaymode.ImagesEdits)
	require.NoError(t, err)
	require.Equal(t, 4, req.GenerationFanout())
}

func TestMultipartImageEditRejectsBadUpload(t *testing.T) {
	c := newMultipartContext(t, map[string]string{
		"model":  "img",
		"prompt": "a cat",
	}, "image", "in.png", []byte{0x89, 0x50})
	_, err := DecodeRequest(c, relaymode.ImagesEdits)
	require.Error(t, err)
}

func splitContentType(t *testing.T, contentType string) (string, map[string]string) {
	t.Helper()
	parts := strings.Split(contentType, ";")
	params := map[string]string{}
	for _, p := range parts[1:] {
		kv := strings.SplitN(strings.TrimSpace(p), "=", 2)
		if len(kv) == 2 {
			params[kv[0]] = strings.Trim(kv[1], `"`)
		}
	}
	return strings.TrimSpace(parts[0]), params
}

func newUpstreamResponse(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeResponseUsage(t *testing.T) {
	resp, err := DecodeResponse(newUpstreamResponse(200, "application/json",
		`{"id":"chatcmpl-abc","model":"internal-id","usage":{"prompt_tokens":5,"completion_tokens":7,"total_tokens":12}}`))
	require.NoError(t, err)

	tokens, ok := resp.ReportedTokens()
	require.True(t, ok)
	require.Equal(t, int64(12), tokens)
}

func TestDecodeResponseNoUsage(t *testing.T) {
	resp, err := DecodeResponse(newUpstreamResponse(200, "application/json", `{"id":"x"}`))
	require.NoError(t, err)
	_, ok := resp.ReportedTokens()
	require.False(t, ok)
}

func TestJSONResponseRewrites(t *testing.T) {
	resp, err := DecodeResponse(newUpstreamResponse(200, "application/json; charset=utf-8",
		`{"id":"chatcmpl-abc","model":"internal-id","choices":[],"unmodelled":true}`))
	require.NoError(t, err)

	resp.ReplaceModelLabel("public-label")
	resp.ReplaceID("proxy-id")

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	require.NoError(t, resp.Write(c))

	var m map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &m))
	require.Equal(t, "public-label", m["model"])
	require.Equal(t, "proxy-id", m["id"])
	require.Contains(t, m, "unmodelled")
}

func TestJSONResponseRewriteSkipsAbsentFields(t *testing.T) {
	resp, err := DecodeResponse(newUpstreamResponse(200, "application/json", `{"data":[]}`))
	require.NoError(t, err)
	resp.ReplaceModelLabel("label")
	resp.ReplaceID("id")

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	require.NoError(t, resp.Write(c))

	var m map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &m))
	require.NotContains(t, m, "model")
	require.NotContains(t, m, "id")
}

func TestDecodeResponseBinaryPassthrough(t *testing.T) {
	resp, err := DecodeResponse(newUpstreamResponse(200, "audio/mpeg", "\xff\xfbbinary"))
	require.NoError(t, err)
	_, ok := resp.ReportedTokens()
	require.False(t, ok)

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	require.NoError(t, resp.Write(c))
	require.Equal(t, "audio/mpeg", recorder.Header().Get("Content-Type"))
	require.Equal(t, "\xff\xfbbinary", recorder.Body.String())
}

func TestDecodeResponseMalformedJSONIsError(t *testing.T) {
	_, err := DecodeResponse(newUpstreamResponse(200, "application/json", `{"broken":`))
	require.Error(t, err)
}
