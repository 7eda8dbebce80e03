package resilience

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit wrapper", NewTransientError(eris.New("boom")), true},
		{"wrapped deeper", eris.Wrap(NewTransientError(eris.New("boom")), "outer"), true},
		{"engine overload", eris.New("Resource temporarily unavailable"), true},
		{"allocation failure", eris.New("tesseract: cannot allocate memory"), true},
		{"closed engine", eris.New("engine is closed"), true},
		{"eagain hint", eris.New("read: try again later"), true},
		{"config error", eris.New("could not initialize tesseract"), false},
		{"cancellation", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := eris.New("boom")
	te := NewTransientError(inner)

	assert.Equal(t, "boom", te.Error())
	assert.Equal(t, inner, te.Unwrap())
}
