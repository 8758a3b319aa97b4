package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestSentinels(t *testing.T) {
	err := Wrap(ErrNoMapping, "supplier 'garak-market'")
	assert.True(t, Is(err, ErrNoMapping))
	assert.False(t, Is(err, ErrNotFound))

	timeout := Wrapf(ErrTimeout, "fetching %s", "https://example.com")
	assert.True(t, IsTimeoutError(timeout))
	assert.False(t, IsTimeoutError(err))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("job %s", "abc123")
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "abc123")
}
