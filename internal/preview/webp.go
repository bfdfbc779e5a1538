package preview

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/HugoSmits86/nativewebp"
)

// Extension is the file extension of encoded previews.
const Extension = ".webp"

// EncodeWebP writes img to w as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("webp encode: %w", err)
	}
	return nil
}

// WriteWebPFile encodes img to path.
func WriteWebPFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWebP(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
