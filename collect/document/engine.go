package document

import (
	"context"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/foodcost/pricefeed/errors"
)

// Engine converts a scanned invoice image to text. The handle behind an
// Engine is a scoped resource: implementations create it lazily on
// first extraction and tear it down in Close.
type Engine interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
	Close() error
}

// ocrClient is the raw OCR handle behind TesseractEngine. The handle is
// a cgo resource: not goroutine-safe, and freeing it while a call is in
// flight is a use-after-free.
type ocrClient interface {
	SetImage(imagePath string) error
	Text() (string, error)
	Close() error
}

// newOCRClient builds the real gosseract handle. Swappable in tests.
var newOCRClient = func(languages []string) (ocrClient, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to set OCR languages")
	}
	return client, nil
}

type ocrResult struct {
	text string
	err  error
}

// TesseractEngine is the default Engine, backed by a gosseract client.
// The client is created on first use and reused across extractions
// until Close. A client whose extraction outlived its caller's context
// is abandoned: detached from the engine and freed only after the
// in-flight call returns, never while it may still be running.
type TesseractEngine struct {
	mu        sync.Mutex // guards client/closed
	extractMu sync.Mutex // serializes extractions; one image at a time per client
	client    ocrClient
	languages []string
	closed    bool
}

// NewTesseractEngine creates an engine for the given OCR languages.
// Empty languages defaults to Korean plus English, matching the invoice
// corpus this module targets.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"kor", "eng"}
	}
	return &TesseractEngine{languages: languages}
}

// ExtractText runs OCR over one image. The tesseract call itself is not
// interruptible, so the context bounds how long the caller waits; on
// expiry the current client is abandoned and the next extraction gets a
// fresh handle.
func (e *TesseractEngine) ExtractText(ctx context.Context, imagePath string) (string, error) {
	e.extractMu.Lock()
	defer e.extractMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", errors.New("OCR engine is closed")
	}
	if e.client == nil {
		client, err := newOCRClient(e.languages)
		if err != nil {
			e.mu.Unlock()
			return "", err
		}
		e.client = client
	}
	client := e.client
	e.mu.Unlock()

	done := make(chan ocrResult, 1)
	go func() {
		if err := client.SetImage(imagePath); err != nil {
			done <- ocrResult{err: errors.Wrapf(err, "failed to load image %q", imagePath)}
			return
		}
		text, err := client.Text()
		if err != nil {
			done <- ocrResult{err: errors.Wrap(err, "OCR extraction failed")}
			return
		}
		done <- ocrResult{text: text}
	}()

	select {
	case <-ctx.Done():
		e.abandon(client, done)
		return "", errors.Wrapf(errors.ErrTimeout, "OCR of %q: %v", imagePath, ctx.Err())
	case r := <-done:
		return r.text, r.err
	}
}

// abandon detaches a client whose extraction is still in flight and
// frees it once that extraction returns. The engine's Close never sees
// an abandoned handle, so nothing can free it while it is running.
func (e *TesseractEngine) abandon(client ocrClient, done <-chan ocrResult) {
	e.mu.Lock()
	if e.client == client {
		e.client = nil
	}
	e.mu.Unlock()

	go func() {
		<-done
		client.Close()
	}()
}

// Close tears down the OCR client. Safe before first use. Clients
// abandoned by timed-out extractions free themselves separately.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	if err != nil {
		return errors.Wrap(err, "failed to close OCR client")
	}
	return nil
}
