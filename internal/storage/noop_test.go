package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysns/internal/config"
)

func TestNewMediaStore_FallsBackWhenUnconfigured(t *testing.T) {
	cfg := &config.Config{R2PublicURL: "https://cdn.test/"}

	store, err := NewMediaStore(context.Background(), cfg)
	require.NoError(t, err)

	unchecked, ok := store.(UncheckedStore)
	require.True(t, ok)
	exists, err := unchecked.Exists(context.Background(), "posts/any.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, unchecked.Delete(context.Background(), "posts/any.jpg"))
	assert.Equal(t, "https://cdn.test/posts/any.jpg", unchecked.PublicURL("/posts/any.jpg"))
}
