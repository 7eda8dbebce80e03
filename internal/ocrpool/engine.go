// Package ocrpool runs text recognition on cropped screenshot regions and
// assembles vision observations. It owns the only shared mutable state in
// the engine: a fixed-size pool of recognition clients that are recycled
// after a configured number of items to bound Tesseract's internal memory
// growth over long runs.
package ocrpool

import (
	"context"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"

	"github.com/artikelwerk/catalog-cli/internal/config"
)

// Engine is one recognition client instance. An Engine serves one item's
// region set at a time and is never shared across concurrent items.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}

// EngineFactory constructs a fresh Engine. The pool calls it at startup and
// on every recycle.
type EngineFactory func() (Engine, error)

// TesseractEngine wraps a gosseract client configured for the shop's
// screenshot crops.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine creates a Tesseract-backed engine. The language
// defaults to German, matching the shop.
func NewTesseractEngine(cfg config.OCRConfig) (*TesseractEngine, error) {
	client := gosseract.NewClient()

	lang := cfg.Language
	if lang == "" {
		lang = "deu"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, eris.Wrapf(err, "ocr: set language %s", lang)
	}
	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			client.Close()
			return nil, eris.Wrapf(err, "ocr: set tessdata prefix %s", cfg.TessdataDir)
		}
	}
	// Region crops are single text blocks, not full pages.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, eris.Wrap(err, "ocr: set page segmentation mode")
	}

	return &TesseractEngine{client: client}, nil
}

// Recognize extracts text from one region image. The gosseract call is
// blocking CGo with no context support, so it runs on its own goroutine and
// the context deadline abandons the call; the caller must treat a deadline
// as grounds to recycle this engine, since the CGo call may still be
// running against it.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		if err := e.client.SetImageFromBytes(image); err != nil {
			done <- outcome{err: eris.Wrap(err, "ocr: set image")}
			return
		}
		text, err := e.client.Text()
		if err != nil {
			done <- outcome{err: eris.Wrap(err, "ocr: recognize")}
			return
		}
		done <- outcome{text: text}
	}()

	select {
	case <-ctx.Done():
		return "", eris.Wrap(ctx.Err(), "ocr: recognition abandoned")
	case out := <-done:
		return out.text, out.err
	}
}

// Close releases the underlying Tesseract client.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}
