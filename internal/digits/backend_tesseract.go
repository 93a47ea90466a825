//go:build tesseract

package digits

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// newDefaultBackend returns the tesseract-backed recognizer when the build
// tag is enabled. Requires the Tesseract library installed on the system.
func newDefaultBackend() (Backend, error) {
	client := gosseract.NewClient()
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("digits: configuring tesseract: %w", err)
	}
	return &tesseractBackend{client: client}, nil
}

type tesseractBackend struct {
	client *gosseract.Client
}

func (b *tesseractBackend) Recognize(ctx context.Context, img image.Image, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	whitelist := ""
	if opts.DigitsOnly {
		whitelist = "0123456789"
	}
	if err := b.client.SetWhitelist(whitelist); err != nil {
		return "", fmt.Errorf("digits: setting whitelist: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("digits: encoding cell image: %w", err)
	}
	if err := b.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("digits: setting cell image: %w", err)
	}

	// gosseract has no context-aware call; run in a goroutine so a slow
	// engine respects the caller's deadline.
	type out struct {
		text string
		err  error
	}
	ch := make(chan out, 1)
	go func() {
		text, err := b.client.Text()
		ch <- out{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case o := <-ch:
		if o.err != nil {
			return "", fmt.Errorf("digits: tesseract: %w", o.err)
		}
		return o.text, nil
	}
}

func (b *tesseractBackend) Close() error { return b.client.Close() }
