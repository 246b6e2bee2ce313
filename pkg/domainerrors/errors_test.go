package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches the outer code", func(t *testing.T) {
		err := New(CodeNotFound, "gone")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches codes buried in the chain", func(t *testing.T) {
		inner := New(CodeConflict, "duplicate")
		err := Wrap(inner, CodeInternal, "save failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeUnauthorized, "no token"))
		assert.True(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}

func TestWrapPreservesChain(t *testing.T) {
	root := errors.New("connection reset")
	err := Wrap(root, CodeInternal, "store unavailable")
	require.ErrorIs(t, err, root)
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeTooMany:      http.StatusTooManyRequests,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("unknown")))
}
