package portrait

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Normalize decodes raw, crops it to a centred square of size×size, and
// re-encodes it as PNG.
func Normalize(raw []byte, size int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding portrait: %w", err)
	}
	img = imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding portrait: %w", err)
	}
	return buf.Bytes(), nil
}
