package digits

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend returns one canned response per Recognize call.
type scriptedBackend struct {
	responses []string
	err       error
	calls     int
	closed    bool
}

func (s *scriptedBackend) Recognize(_ context.Context, _ image.Image, _ Options) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	resp := ""
	if s.calls < len(s.responses) {
		resp = s.responses[s.calls]
	} else if len(s.responses) > 0 {
		resp = s.responses[len(s.responses)-1]
	}
	s.calls++
	return resp, nil
}

func (s *scriptedBackend) Close() error {
	s.closed = true
	return nil
}

func inkCell(index int) Cell {
	crop := image.NewGray(image.Rect(0, 0, 30, 30))
	for y := 10; y < 20; y++ {
		for x := 12; x < 18; x++ {
			crop.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return Cell{
		Index:  index,
		Box:    image.Rect(index*50, 0, (index+1)*50, 60),
		InkBox: image.Rect(index*50+12, 10, index*50+18, 20),
		Crop:   crop,
	}
}

func TestRecognizeReadsDigits(t *testing.T) {
	strip := &Strip{Cells: []Cell{inkCell(0), inkCell(1), inkCell(2)}}
	backend := &scriptedBackend{responses: []string{"4", "0", "7"}}

	res, err := Recognize(context.Background(), strip, backend)
	require.NoError(t, err)
	assert.Equal(t, "407", res.Value)
	assert.Equal(t, []string{"4", "0", "7"}, res.Digits)
	assert.Zero(t, res.Failures)
}

func TestRecognizeSkipsBlankCells(t *testing.T) {
	strip := &Strip{Cells: []Cell{
		inkCell(0),
		{Index: 1, Blank: true},
		inkCell(2),
	}}
	backend := &scriptedBackend{responses: []string{"1", "2"}}

	res, err := Recognize(context.Background(), strip, backend)
	require.NoError(t, err)
	assert.Equal(t, "1?2", res.Value)
}

func TestRecognizeCorrectsMisreads(t *testing.T) {
	// The digit passes return nothing usable; the raw pass reads a letter
	// that the correction table maps back to a digit.
	strip := &Strip{Cells: []Cell{inkCell(0)}}
	backend := &scriptedBackend{responses: []string{"", "", "", "S"}}

	res, err := Recognize(context.Background(), strip, backend)
	require.NoError(t, err)
	assert.Equal(t, "5", res.Value)
}

func TestRecognizeUnreadableCellStaysUnknown(t *testing.T) {
	strip := &Strip{Cells: []Cell{inkCell(0)}}
	backend := &scriptedBackend{responses: []string{"", "", "", "~"}}

	res, err := Recognize(context.Background(), strip, backend)
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.Value)
	assert.Zero(t, res.Failures, "an unreadable cell is not a backend failure")
}

func TestRecognizeBackendErrorTolerated(t *testing.T) {
	strip := &Strip{Cells: []Cell{inkCell(0), inkCell(1)}}
	backend := &scriptedBackend{err: errors.New("engine crashed")}

	res, err := Recognize(context.Background(), strip, backend)
	require.NoError(t, err)
	assert.Equal(t, "??", res.Value)
	assert.Equal(t, 2, res.Failures)
}

func TestRecognizeNoBackend(t *testing.T) {
	backend, err := NewBackend()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	strip := &Strip{Cells: []Cell{inkCell(0), inkCell(1)}}
	res, err := Recognize(context.Background(), strip, backend)
	require.ErrorIs(t, err, ErrNoBackend)
	require.NotNil(t, res)
	assert.Equal(t, "??", res.Value)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "4", sanitize("  4\n"))
	// NFKC folds full-width digits to ASCII.
	assert.Equal(t, "7", sanitize("７"))
}

func TestFirstDigit(t *testing.T) {
	d, ok := firstDigit("a4b")
	assert.True(t, ok)
	assert.Equal(t, "4", d)

	_, ok = firstDigit("xyz")
	assert.False(t, ok)
}

func TestCorrectMisread(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"S", "5", true},
		{"|", "1", true},
		{"O", "0", true},
		{"4", "4", true},
		{"A1", "1", true}, // embedded digit wins over correction
		{"HA", "4", true},
		{"~", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		d, ok := correctMisread(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw %q", tt.raw)
		if tt.ok {
			assert.Equal(t, tt.want, d, "raw %q", tt.raw)
		}
	}
}
