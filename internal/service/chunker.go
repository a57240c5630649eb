package service

import (
	"strings"
	"unicode"

	"github.com/folioworks/careerbase/internal/domain"
)

// ChunkConfig controls chunking of extracted document text. Window and
// overlap are measured in runes.
type ChunkConfig struct {
	WindowTokens  int
	OverlapTokens int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		WindowTokens:  500,
		OverlapTokens: 50,
	}
}

// Span is one chunk of source text together with its rune offsets. Spans of
// one document are contiguous in order but overlap in offsets.
type Span struct {
	Text        string
	StartOffset int
	EndOffset   int
}

// boundaryTolerance is the fraction of the window within which a cut is
// moved back to land on a paragraph, sentence, or word boundary.
const boundaryTolerance = 5

// ChunkText splits text into overlapping windows. It is a pure function of
// its inputs: identical text and config always produce identical spans.
func ChunkText(text string, cfg ChunkConfig) ([]Span, error) {
	if cfg.WindowTokens <= 0 || cfg.OverlapTokens < 0 || cfg.OverlapTokens >= cfg.WindowTokens {
		return nil, domain.ErrInvalidChunkConfig
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= cfg.WindowTokens {
		return []Span{{Text: text, StartOffset: 0, EndOffset: len(runes)}}, nil
	}

	tolerance := cfg.WindowTokens / boundaryTolerance
	spans := make([]Span, 0, 8)
	start := 0

	for start < len(runes) {
		end := start + cfg.WindowTokens
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = boundaryCut(runes, start, end, tolerance)
		}

		spans = append(spans, Span{
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
		})

		if end >= len(runes) {
			break
		}

		next := end - cfg.OverlapTokens
		if next <= start {
			next = end
		}
		start = next
	}

	return spans, nil
}

// boundaryCut moves a hard cut at end back to the nearest paragraph break,
// then sentence end, then whitespace, searching no further back than
// tolerance runes. Falls back to the hard cut when no boundary exists.
func boundaryCut(runes []rune, start, end, tolerance int) int {
	min := end - tolerance
	if min < start+1 {
		min = start + 1
	}

	for i := end; i > min; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}

	for i := end; i > min; i-- {
		if unicode.IsSpace(runes[i-1]) && i >= 2 && isSentenceEnd(runes[i-2]) {
			return i
		}
	}

	for i := end; i > min; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}
