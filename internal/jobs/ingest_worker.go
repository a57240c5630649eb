package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/folioworks/careerbase/internal/domain"
)

// IngestJobRepository defines the interface for ingest job persistence
type IngestJobRepository interface {
	// GetPendingJobs retrieves and claims pending ingest jobs
	GetPendingJobs(ctx context.Context) ([]*domain.IngestJob, error)

	// UpdateJobStatus updates the status of an ingest job
	UpdateJobStatus(ctx context.Context, jobID string, status domain.IngestJobStatus, errMsg string) error
}

// DocumentIngestor drives one document through chunking and embedding.
type DocumentIngestor interface {
	Process(ctx context.Context, documentID string) error
}

// IngestWorker processes pending ingest jobs. Each job gets exactly one
// attempt here: embedding retries happen inside the pipeline, and a
// document that reaches the error state is terminal, so re-running a
// failed job would be a no-op.
type IngestWorker struct {
	repo     IngestJobRepository
	ingestor DocumentIngestor
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(repo IngestJobRepository, ingestor DocumentIngestor) *IngestWorker {
	return &IngestWorker{
		repo:     repo,
		ingestor: ingestor,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending ingest jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	log.Printf("Processing job %s for document %s", job.ID, job.DocumentID)

	if err := w.ingestor.Process(ctx, job.DocumentID); err != nil {
		log.Printf("Job %s failed: %v", job.ID, err)
		if updateErr := w.repo.UpdateJobStatus(ctx, job.ID, domain.IngestJobStatusFailed, err.Error()); updateErr != nil {
			return fmt.Errorf("failed to update job status to failed: %w", updateErr)
		}
		return nil
	}

	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}
