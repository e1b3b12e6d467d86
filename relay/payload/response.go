package payload

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
)

// jsonResponse holds an upstream JSON body as a raw map so fields the proxy
// never modelled pass through to the client untouched.
type jsonResponse struct {
	status int
	raw    map[string]any
}

func (r *jsonResponse) ReportedTokens() (int64, bool) {
	usage, ok := r.raw["usage"].(map[string]any)
	if !ok {
		return 0, false
	}
	total, ok := usage["total_tokens"].(float64)
	if !ok {
		return 0, false
	}
	return int64(total), true
}

func (r *jsonResponse) ReplaceModelLabel(label string) {
	if _, ok := r.raw["model"]; ok {
		r.raw["model"] = label
	}
}

func (r *jsonResponse) ReplaceID(id string) {
	if _, ok := r.raw["id"]; ok {
		r.raw["id"] = id
	}
}

func (r *jsonResponse) Write(c *gin.Context) error {
	c.JSON(r.status, r.raw)
	return nil
}

// NewJSONResponse wraps an already-assembled body map, for backends whose
// SDK responses are converted in-process rather than read off the wire.
func NewJSONResponse(status int, raw map[string]any) Response {
	return &jsonResponse{status: status, raw: raw}
}

// binaryResponse passes opaque bodies (audio/speech output, anything the
// upstream returned as non-JSON) through unmodified.
type binaryResponse struct {
	status      int
	contentType string
	data        []byte
}

func (r *binaryResponse) ReportedTokens() (int64, bool) { return 0, false }

func (r *binaryResponse) ReplaceModelLabel(string) {}

func (r *binaryResponse) ReplaceID(string) {}

func (r *binaryResponse) Write(c *gin.Context) error {
	c.Data(r.status, r.contentType, r.data)
	return nil
}

// DecodeResponse reads and classifies one upstream response body. The body
// is fully buffered; streaming is disabled proxy-wide, so upstream responses
// are bounded. A JSON content type with an unparsable body is an upstream
// fault, reported as an error so the caller maps it to a backend failure.
func DecodeResponse(resp *http.Response) (Response, error) {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read upstream response body")
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return &binaryResponse{
			status:      resp.StatusCode,
			contentType: contentType,
			data:        data,
		}, nil
	}

	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode upstream response body")
	}
	return &jsonResponse{status: resp.StatusCode, raw: raw}, nil
}
