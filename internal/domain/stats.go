package domain

// KnowledgeBaseStats is a derived view of the committed ingestion state.
// It is recomputed on every read and never cached, so it always reflects
// the latest terminal document states.
type KnowledgeBaseStats struct {
	TotalDocuments      int
	DocumentsByCategory map[DocumentCategory]int
	DocumentsByStatus   map[DocumentStatus]int
	TotalChunks         int
}
