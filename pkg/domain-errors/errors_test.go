package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to persist grant")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to persist grant: connection refused", err.Error())
}

func TestIsMatchesCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "customer does not exist")
	outer := fmt.Errorf("issue grant: %w", inner)

	assert.True(t, Is(outer, CodeNotFound))
	assert.False(t, Is(outer, CodeUnauthorized))
	assert.False(t, Is(errors.New("plain"), CodeNotFound))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
