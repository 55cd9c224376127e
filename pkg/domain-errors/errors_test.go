package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodedErrors(t *testing.T) {
	t.Run("new carries code and message", func(t *testing.T) {
		err := New(CodeNotFound, "property not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.Contains(t, err.Error(), "property not found")
	})

	t.Run("wrap preserves the cause chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "settlement failed")

		assert.True(t, HasCode(err, CodeUnavailable))
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("has code searches nested coded errors", func(t *testing.T) {
		inner := New(CodeInsufficientPayment, "underpaid")
		outer := Wrap(inner, CodeUnavailable, "buy failed")

		assert.True(t, HasCode(outer, CodeUnavailable))
		assert.True(t, HasCode(outer, CodeInsufficientPayment))
		assert.False(t, HasCode(outer, CodeNotFound))
	})

	t.Run("code of uncoded error is internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("code of reports the outermost code", func(t *testing.T) {
		inner := New(CodeNotFound, "missing")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		assert.Equal(t, CodeInternal, CodeOf(outer))
	})

	t.Run("fmt wrapping is transparent", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeUnauthorized, "not the owner"))
		require.True(t, HasCode(err, CodeUnauthorized))
		assert.Equal(t, CodeUnauthorized, CodeOf(err))
	})

	t.Run("is aliases has code", func(t *testing.T) {
		err := New(CodeConflict, "duplicate")
		assert.True(t, Is(err, CodeConflict))
	})
}
