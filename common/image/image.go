package image

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/Laisky/errors/v2"
	_ "golang.org/x/image/webp"
)

// Info describes an uploaded image without decoding pixel data.
type Info struct {
	Format string
	Width  int
	Height int
}

// Inspect reads just enough of r to identify the image format and dimensions.
// webp is registered alongside the stdlib formats; provider uploads commonly
// arrive as png, jpeg, gif, or webp.
func Inspect(r io.Reader) (Info, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Info{}, errors.Wrap(err, "decode image config")
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// ValidateEditUpload enforces the constraints the image edit and variation
// endpoints place on uploads: a square png no larger than maxBytes.
func ValidateEditUpload(r io.Reader, size int64, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return errors.Errorf("image exceeds %d bytes", maxBytes)
	}
	info, err := Inspect(r)
	if err != nil {
		return err
	}
	if info.Format != "png" {
		return errors.Errorf("image must be a png, got %s", info.Format)
	}
	if info.Width != info.Height {
		return errors.Errorf("image must be square, got %dx%d", info.Width, info.Height)
	}
	return nil
}
