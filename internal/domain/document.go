package domain

import (
	"fmt"
	"time"
)

// DocumentCategory represents the category of an uploaded document
type DocumentCategory string

const (
	CategoryInterviewTranscript DocumentCategory = "interview-transcript"
	CategoryResumeVersion       DocumentCategory = "resume-version"
	CategoryCareerPlan          DocumentCategory = "career-plan"
	CategoryJobDescription      DocumentCategory = "job-description"
)

// DocumentStatus represents the ingestion status of a document
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusEmbedded   DocumentStatus = "embedded"
	DocumentStatusError      DocumentStatus = "error"
)

// Document represents an uploaded knowledge base document.
// Status moves processing -> embedded or processing -> error; both are
// terminal, reprocessing requires delete and re-upload.
type Document struct {
	ID            string
	OwnerID       string
	Filename      string
	Category      DocumentCategory
	SizeBytes     int64
	Status        DocumentStatus
	FailureReason string
	Content       string // extracted text, source for chunking
	ChunkCount    int
	UploadedAt    time.Time
	ProcessedAt   *time.Time
}

// NewDocument creates a new Document in the processing state
func NewDocument(id, ownerID, filename string, category DocumentCategory, sizeBytes int64, content string, uploadedAt time.Time) *Document {
	return &Document{
		ID:         id,
		OwnerID:    ownerID,
		Filename:   filename,
		Category:   category,
		SizeBytes:  sizeBytes,
		Status:     DocumentStatusProcessing,
		Content:    content,
		UploadedAt: uploadedAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.OwnerID == "" {
		return fmt.Errorf("document OwnerID is required")
	}

	if d.Filename == "" {
		return fmt.Errorf("document Filename is required")
	}

	if !IsValidDocumentCategory(d.Category) {
		return fmt.Errorf("document Category is invalid: %s", d.Category)
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	return nil
}

// IsValidDocumentCategory checks if a DocumentCategory is valid
func IsValidDocumentCategory(c DocumentCategory) bool {
	switch c {
	case CategoryInterviewTranscript, CategoryResumeVersion,
		CategoryCareerPlan, CategoryJobDescription:
		return true
	}
	return false
}

// isValidDocumentStatus checks if a DocumentStatus is valid
func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusProcessing, DocumentStatusEmbedded, DocumentStatusError:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusEmbedded || s == DocumentStatusError
}
