package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/pagination"
	"github.com/folioworks/careerbase/internal/telemetry"
	"github.com/google/uuid"
)

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
	// Delete removes the document row; reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
	// MarkEmbedded transitions processing -> embedded via compare-and-set;
	// reports whether the transition happened.
	MarkEmbedded(ctx context.Context, id string, chunkCount int, processedAt time.Time) (bool, error)
	// MarkFailed transitions processing -> error via compare-and-set.
	MarkFailed(ctx context.Context, id string, reason string, processedAt time.Time) (bool, error)
	// Stats recomputes knowledge base statistics from committed state.
	Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error)
}

type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

// IngestJobRepositoryInterface defines the repository interface for ingest job persistence
type IngestJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

// ArchiveStorage stores the original upload bytes. Optional: a nil archive
// disables raw-file retention.
type ArchiveStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// DocumentService handles the document side of the knowledge base: upload
// acceptance, listing, cascade deletion and statistics. Chunking and
// embedding happen asynchronously in the ingestion pipeline.
type DocumentService struct {
	docRepo   DocumentRepositoryInterface
	txRunner  TxRunner
	extractor TextExtractor
	archive   ArchiveStorage
	uuidGen   UUIDGenerator
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(
	docRepo DocumentRepositoryInterface,
	txRunner TxRunner,
	extractor TextExtractor,
) *DocumentService {
	return &DocumentService{
		docRepo:   docRepo,
		txRunner:  txRunner,
		extractor: extractor,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// WithArchive enables raw upload retention in the given storage.
func (s *DocumentService) WithArchive(archive ArchiveStorage) *DocumentService {
	s.archive = archive
	return s
}

// WithUUIDGen overrides the UUID generator (for testing).
func (s *DocumentService) WithUUIDGen(gen UUIDGenerator) *DocumentService {
	s.uuidGen = gen
	return s
}

// UploadInput represents the input for accepting a document upload
type UploadInput struct {
	OwnerID  string
	Filename string
	Category domain.DocumentCategory
	MimeType string
	Data     []byte
}

// ListDocumentsInput represents the input for listing documents
type ListDocumentsInput struct {
	OwnerID string
	Cursor  string
	Limit   int
}

// Upload accepts raw bytes, extracts their text and commits the document in
// the processing state together with a pending ingest job. The returned
// document has status processing; the terminal state is reached by the
// ingestion worker.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Upload", telemetry.SpanAttributes{
		UserID:    input.OwnerID,
		Category:  string(input.Category),
		Operation: "upload",
	})
	defer span.End()

	if input.OwnerID == "" {
		return nil, domain.ErrMissingUserID
	}
	if !domain.IsValidDocumentCategory(input.Category) {
		return nil, domain.ErrInvalidDocumentCategory
	}
	if len(input.Data) == 0 {
		return nil, domain.ErrEmptyContent
	}

	text, err := s.extractor.Extract(input.Data, input.MimeType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := domain.NewDocument(
		s.uuidGen.NewString(),
		input.OwnerID,
		input.Filename,
		input.Category,
		int64(len(input.Data)),
		text,
		now,
	)
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, archiveKey(doc.ID), input.Data, input.MimeType); err != nil {
			return nil, fmt.Errorf("failed to archive upload: %w", err)
		}
	}

	job := domain.NewIngestJob(s.uuidGen.NewString(), doc.ID, now)

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Create(ctx, doc); err != nil {
			return err
		}
		return repos.IngestJobs().Create(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetByID returns a document by id
func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return s.docRepo.GetByID(ctx, id)
}

// List returns documents sorted by upload time descending, newest first,
// with cursor pagination.
func (s *DocumentService) List(ctx context.Context, input ListDocumentsInput) (*DocumentPageResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.List", telemetry.SpanAttributes{
		UserID:    input.OwnerID,
		Operation: "list",
	})
	defer span.End()

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		var err error
		cursor, err = pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
		}
	}

	return s.docRepo.ListWithCursor(ctx, input.OwnerID, cursor, limit)
}

// Delete removes a document and cascades to its chunks, vectors and ingest
// job in a single transaction, so a concurrent search sees either all of
// the document's chunks or none of them. An in-flight ingestion of the
// deleted document loses its final compare-and-set and commits nothing.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "delete",
	})
	defer span.End()

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().DeleteByDocument(ctx, id); err != nil {
			return err
		}
		if err := repos.IngestJobs().DeleteByDocument(ctx, id); err != nil {
			return err
		}
		deleted, err := repos.Documents().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrDocumentNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.Delete(ctx, archiveKey(id)); err != nil {
			log.Printf("failed to delete archived upload for document %s: %v", id, err)
		}
	}

	return nil
}

// Stats recomputes knowledge base statistics on every call. Nothing is
// cached: the result reflects the latest committed ingestion state.
func (s *DocumentService) Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error) {
	return s.docRepo.Stats(ctx)
}

func archiveKey(documentID string) string {
	return "documents/" + documentID
}
