package domain

import "time"

// Chunk represents a bounded span of a document's text plus its embedding.
// Chunks of one document are contiguous in Index; their rune offsets may
// overlap (sliding window).
type Chunk struct {
	ID          string
	DocumentID  string
	Index       int
	Text        string
	StartOffset int // rune offset into the document's extracted text
	EndOffset   int
	Embedding   []float32
	CreatedAt   time.Time
}
