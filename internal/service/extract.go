package service

import (
	"strings"
	"unicode/utf8"

	"github.com/folioworks/careerbase/internal/domain"
)

// TextExtractor converts raw uploaded bytes into plain text. Format-specific
// extraction (PDF, DOCX) lives behind this boundary and is supplied by the
// caller; the engine only depends on the contract.
type TextExtractor interface {
	Extract(raw []byte, mimeHint string) (string, error)
}

// PlainTextExtractor handles plain text and markdown uploads.
type PlainTextExtractor struct{}

// Extract returns the decoded text, failing with UnsupportedFormat for
// unknown MIME types and ExtractionFailed for undecodable bytes.
func (PlainTextExtractor) Extract(raw []byte, mimeHint string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(mimeHint))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	switch mediaType {
	case "", "text/plain", "text/markdown", "text/x-markdown":
	default:
		return "", domain.ErrUnsupportedFormat
	}

	if !utf8.Valid(raw) {
		return "", domain.ErrExtractionFailed
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyContent
	}

	return text, nil
}
