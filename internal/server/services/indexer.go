package services

import (
	"context"
	"strings"
	"sync"
)

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// ChunkIndexer is an in-process evidence index: it splits resume text into
// overlapping word-boundary chunks and keeps them in memory, keyed by owner
// and resume. A vector store can replace it behind the Indexer interface
// without touching the ingestion pipeline.
type ChunkIndexer struct {
	chunkSize int
	overlap   int

	mu     sync.RWMutex
	chunks map[string][]string
}

// NewChunkIndexer constructs a ChunkIndexer with default chunk sizing.
func NewChunkIndexer() *ChunkIndexer {
	return &ChunkIndexer{
		chunkSize: defaultChunkSize,
		overlap:   defaultChunkOverlap,
		chunks:    make(map[string][]string),
	}
}

func indexKey(userID, resumeID string) string {
	return userID + "/" + resumeID
}

// Index replaces the stored chunks for (userID, resumeID) and returns the
// chunk count.
func (x *ChunkIndexer) Index(ctx context.Context, userID, resumeID, text string) (int, error) {
	chunks := chunkText(text, x.chunkSize, x.overlap)

	x.mu.Lock()
	x.chunks[indexKey(userID, resumeID)] = chunks
	x.mu.Unlock()

	return len(chunks), nil
}

// Chunks returns the stored chunks for (userID, resumeID), or nil when the
// resume has not been indexed.
func (x *ChunkIndexer) Chunks(userID, resumeID string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.chunks[indexKey(userID, resumeID)]
}

// chunkText splits text into chunks of at most size runes, overlapping by
// overlap runes, breaking on whitespace where possible.
func chunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	step := size - overlap
	if step <= 0 {
		step = size
	}

	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		// Pull the cut back to the last whitespace so words stay whole.
		cut := end
		if end < len(runes) {
			for cut > start && !isSpace(runes[cut-1]) {
				cut--
			}
			if cut == start {
				cut = end
			}
		}

		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if cut >= len(runes) {
			break
		}
	}

	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
