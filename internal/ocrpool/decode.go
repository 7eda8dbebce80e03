package ocrpool

import (
	"bytes"
	"image"

	"github.com/rotisserie/eris"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// checkImage rejects region payloads Tesseract cannot consume before the
// engine is tied up with them. The capture collaborator normally sends PNG;
// BMP, TIFF and WebP crops are accepted too.
func checkImage(data []byte) error {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return eris.Wrap(err, "ocrpool: undecodable region image")
	}
	return nil
}
