package playback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigator_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addBook(1, 6)
	nav := NewNavigator(catalog)

	for k := 0; k <= 4; k++ {
		next, err := nav.Next(ctx, 1, k)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, k+1, next.Position)

		back, err := nav.Previous(ctx, 1, next.Position)
		require.NoError(t, err)
		require.NotNil(t, back)
		assert.Equal(t, chapterID(1, k), back.ID)
	}
}

func TestNavigator_Boundaries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	nav := NewNavigator(catalog)

	next, err := nav.Next(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, next)

	prev, err := nav.Previous(ctx, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestNavigator_SingleChapterBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addBook(1, 1)
	nav := NewNavigator(catalog)

	next, err := nav.Next(ctx, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNavigator_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addBook(1, 3)
	nav := NewNavigator(catalog)

	_, err := nav.Next(ctx, 99, 0)
	require.Error(t, err)

	catalog.findErr = errBoom
	_, err = nav.Next(ctx, 1, 0)
	assert.ErrorIs(t, err, errBoom)
	_, err = nav.Previous(ctx, 1, 1)
	assert.ErrorIs(t, err, errBoom)
}
