//go:build !tesseract

package digits

import (
	"context"
	"image"
)

type defaultBackend struct{}

func newDefaultBackend() (Backend, error) { return &defaultBackend{}, nil }

func (d *defaultBackend) Recognize(_ context.Context, _ image.Image, _ Options) (string, error) {
	return "", ErrNoBackend
}

func (d *defaultBackend) Close() error { return nil }
