package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// IngestionConfig controls chunking, embedding retries and fan-out for the
// ingestion pipeline.
type IngestionConfig struct {
	Chunking ChunkConfig
	Retry    RetryPolicy
	// EmbedConcurrency bounds concurrent embedding calls per document.
	EmbedConcurrency int
}

// DefaultIngestionConfig provides sane pipeline defaults.
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		Chunking:         DefaultChunkConfig(),
		Retry:            DefaultRetryPolicy(),
		EmbedConcurrency: 4,
	}
}

// errIngestionSuperseded signals that the final compare-and-set lost: the
// document was deleted (or otherwise left processing) while the pipeline
// ran. The transaction rolls back and nothing becomes visible.
var errIngestionSuperseded = errors.New("document no longer processing")

// IngestionPipeline drives a processing document to its terminal state:
// chunk, embed every chunk, then commit all chunks together with the
// processing -> embedded transition in one transaction. Any failure after
// bounded retries marks the document processing -> error instead; no chunk
// of a failed document is ever visible to search.
type IngestionPipeline struct {
	embedder EmbeddingClient
	docRepo  DocumentRepositoryInterface
	txRunner TxRunner
	uuidGen  UUIDGenerator
	cfg      IngestionConfig
}

// NewIngestionPipeline creates a new IngestionPipeline instance
func NewIngestionPipeline(
	embedder EmbeddingClient,
	docRepo DocumentRepositoryInterface,
	txRunner TxRunner,
	cfg IngestionConfig,
) *IngestionPipeline {
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = DefaultIngestionConfig().EmbedConcurrency
	}
	return &IngestionPipeline{
		embedder: embedder,
		docRepo:  docRepo,
		txRunner: txRunner,
		uuidGen:  &DefaultUUIDGenerator{},
		cfg:      cfg,
	}
}

// WithUUIDGen overrides the UUID generator (for testing).
func (p *IngestionPipeline) WithUUIDGen(gen UUIDGenerator) *IngestionPipeline {
	p.uuidGen = gen
	return p
}

// Process ingests one document by id. It is called by the ingestion worker;
// the returned error is the job outcome. A document that reached a terminal
// state (or vanished) before the commit is not an error: the pipeline
// simply commits nothing.
func (p *IngestionPipeline) Process(ctx context.Context, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestionPipeline.Process", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "ingest",
	})
	defer span.End()

	doc, err := p.docRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			log.Printf("ingestion: document %s deleted before processing", documentID)
			return nil
		}
		return err
	}
	if doc.Status != domain.DocumentStatusProcessing {
		log.Printf("ingestion: document %s already %s, skipping", doc.ID, doc.Status)
		return nil
	}

	chunks, err := p.buildChunks(ctx, doc)
	if err != nil {
		return p.fail(ctx, doc.ID, err)
	}

	if err := p.commit(ctx, doc.ID, chunks); err != nil {
		if errors.Is(err, errIngestionSuperseded) {
			log.Printf("ingestion: document %s was deleted mid-flight, discarding %d chunks", doc.ID, len(chunks))
			return nil
		}
		return err
	}

	log.Printf("ingestion: document %s embedded (%d chunks)", doc.ID, len(chunks))
	return nil
}

// buildChunks chunks the extracted text and embeds every chunk with bounded
// concurrency. Chunks are independent until the final commit, so embedding
// calls run in parallel up to EmbedConcurrency.
func (p *IngestionPipeline) buildChunks(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	spans, err := ChunkText(doc.Content, p.cfg.Chunking)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, domain.ErrEmptyContent
	}

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.EmbedConcurrency)

	for i, sp := range spans {
		g.Go(func() error {
			var embedding []float32
			err := p.cfg.Retry.Do(gctx, func() error {
				var embErr error
				embedding, embErr = p.embedder.GenerateEmbedding(gctx, sp.Text)
				return embErr
			}, isTransientEmbeddingError)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}

			chunks[i] = domain.Chunk{
				ID:          p.uuidGen.NewString(),
				DocumentID:  doc.ID,
				Index:       i,
				Text:        sp.Text,
				StartOffset: sp.StartOffset,
				EndOffset:   sp.EndOffset,
				Embedding:   embedding,
				CreatedAt:   now,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// commit performs the single atomic step of ingestion: the status
// compare-and-set and every chunk insert share one transaction. Two
// concurrent ingestion attempts for the same document cannot both win the
// compare-and-set.
func (p *IngestionPipeline) commit(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	now := time.Now().UTC()
	return p.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		ok, err := repos.Documents().MarkEmbedded(ctx, documentID, len(chunks), now)
		if err != nil {
			return err
		}
		if !ok {
			return errIngestionSuperseded
		}
		return repos.Chunks().UpsertChunks(ctx, documentID, chunks)
	})
}

// fail records the terminal error state and returns the original pipeline
// error for the job record. Statistics only ever see the terminal state.
func (p *IngestionPipeline) fail(ctx context.Context, documentID string, cause error) error {
	now := time.Now().UTC()
	ok, err := p.docRepo.MarkFailed(ctx, documentID, cause.Error(), now)
	if err != nil {
		return fmt.Errorf("failed to mark document %s as errored: %w (cause: %v)", documentID, err, cause)
	}
	if !ok {
		log.Printf("ingestion: document %s gone before failure could be recorded", documentID)
		return nil
	}
	return cause
}

func isTransientEmbeddingError(err error) bool {
	return domain.HasErrorCode(err, domain.ErrCodeEmbeddingUnavailable)
}
