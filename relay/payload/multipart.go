package payload

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/image"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
)

// Multipart adapts the form-data endpoints: image edits, image variations,
// audio transcriptions, audio translations. The parsed form is kept intact
// and re-encoded for the upstream with the identity-bearing fields
// rewritten; file parts pass through byte for byte.
type Multipart struct {
	mode int
	form *multipart.Form

	// Rewrites are applied at encode time rather than mutating the form.
	modelOverride string
	userOverride  string
	removeUser    bool
}

// maxImageUploadBytes matches the upstream limit on image edit uploads.
const maxImageUploadBytes = 4 << 20

func decodeMultipart(c *gin.Context, mode int) (*Multipart, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.Wrap(err, "parse multipart form")
	}
	switch mode {
	case relaymode.ImagesEdits, relaymode.ImagesVariations:
		if err := validateImageUploads(form.File["image"]); err != nil {
			return nil, err
		}
	}
	return &Multipart{mode: mode, form: form}, nil
}

// validateImageUploads rejects malformed edit/variation uploads before any
// quota is charged for them.
func validateImageUploads(files []*multipart.FileHeader) error {
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return errors.Wrapf(err, "open uploaded image %s", fileHeader.Filename)
		}
		err = image.ValidateEditUpload(file, fileHeader.Size, maxImageUploadBytes)
		_ = file.Close()
		if err != nil {
			return errors.Wrapf(err, "invalid image upload %s", fileHeader.Filename)
		}
	}
	return nil
}

func (p *Multipart) Mode() int { return p.mode }

func (p *Multipart) field(name string) string {
	values := p.form.Value[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (p *Multipart) ModelLabel() string { return p.field("model") }

func (p *Multipart) GenerationFanout() int {
	switch p.mode {
	case relaymode.ImagesEdits, relaymode.ImagesVariations:
		if n, err := strconv.Atoi(p.field("n")); err == nil && n > 1 {
			return n
		}
	}
	return 1
}

func (p *Multipart) EstimatedTokens(m *model.Model) int64 {
	// Only image edits carry tokenizable text; uploads (images, audio)
	// are metered by request cells, with a floor of one token.
	encoder := tokenizer.Get(m.Tokenizer, p.mode)
	tokens := int64(tokenizer.CountText(encoder, p.field("prompt"))) * int64(p.GenerationFanout())
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

func (p *Multipart) MaxTokens(m *model.Model) int64 {
	return p.EstimatedTokens(m)
}

func (p *Multipart) SetModelID(id string) {
	p.modelOverride = id
}

func (p *Multipart) SetUser(id string) {
	p.userOverride = id
	p.removeUser = id == ""
}

func (p *Multipart) StripStream() {
	delete(p.form.Value, "stream")
}

// Body re-encodes the form with the rewrites applied.
func (p *Multipart) Body() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, values := range p.form.Value {
		switch name {
		case "model":
			continue
		case "user":
			continue
		case "stream":
			continue
		}
		for _, value := range values {
			if err := writer.WriteField(name, value); err != nil {
				return nil, "", errors.Wrapf(err, "write form field %s", name)
			}
		}
	}
	if p.modelOverride != "" {
		if err := writer.WriteField("model", p.modelOverride); err != nil {
			return nil, "", errors.Wrap(err, "write model field")
		}
	} else if label := p.ModelLabel(); label != "" {
		if err := writer.WriteField("model", label); err != nil {
			return nil, "", errors.Wrap(err, "write model field")
		}
	}
	if p.userOverride != "" && !p.removeUser {
		if err := writer.WriteField("user", p.userOverride); err != nil {
			return nil, "", errors.Wrap(err, "write user field")
		}
	}

	for name, files := range p.form.File {
		for _, fileHeader := range files {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition",
				`form-data; name="`+escapeQuotes(name)+`"; filename="`+escapeQuotes(fileHeader.Filename)+`"`)
			if contentType := fileHeader.Header.Get("Content-Type"); contentType != "" {
				header.Set("Content-Type", contentType)
			}
			part, err := writer.CreatePart(header)
			if err != nil {
				return nil, "", errors.Wrapf(err, "create form part %s", name)
			}
			file, err := fileHeader.Open()
			if err != nil {
				return nil, "", errors.Wrapf(err, "open uploaded file %s", fileHeader.Filename)
			}
			_, err = io.Copy(part, file)
			_ = file.Close()
			if err != nil {
				return nil, "", errors.Wrapf(err, "copy uploaded file %s", fileHeader.Filename)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "finalize multipart body")
	}
	return &buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
