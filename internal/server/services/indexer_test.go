package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkIndexer_ShortTextSingleChunk(t *testing.T) {
	x := NewChunkIndexer()

	n, err := x.Index(context.Background(), "u-1", "r-1", "short resume text")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []string{"short resume text"}, x.Chunks("u-1", "r-1"))
}

func TestChunkIndexer_EmptyTextZeroChunks(t *testing.T) {
	x := NewChunkIndexer()

	n, err := x.Index(context.Background(), "u-1", "r-1", "   \n ")
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Nil(t, x.Chunks("u-1", "r-1"))
}

func TestChunkIndexer_LongTextSplitsOnWordBoundaries(t *testing.T) {
	x := NewChunkIndexer()
	text := strings.Repeat("experience with distributed systems ", 100)

	n, err := x.Index(context.Background(), "u-1", "r-1", text)
	require.NoError(t, err)
	require.Greater(t, n, 1)

	for _, chunk := range x.Chunks("u-1", "r-1") {
		require.LessOrEqual(t, len([]rune(chunk)), defaultChunkSize)
		require.False(t, strings.HasPrefix(chunk, " "))
		require.False(t, strings.HasSuffix(chunk, " "))
	}
}

func TestChunkIndexer_ReindexReplaces(t *testing.T) {
	x := NewChunkIndexer()
	ctx := context.Background()

	_, err := x.Index(ctx, "u-1", "r-1", strings.Repeat("old content ", 200))
	require.NoError(t, err)

	n, err := x.Index(ctx, "u-1", "r-1", "new content")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []string{"new content"}, x.Chunks("u-1", "r-1"))
}

func TestChunkIndexer_ScopedByUser(t *testing.T) {
	x := NewChunkIndexer()
	ctx := context.Background()

	_, err := x.Index(ctx, "u-1", "r-1", "alpha")
	require.NoError(t, err)

	require.Nil(t, x.Chunks("u-2", "r-1"))
}
