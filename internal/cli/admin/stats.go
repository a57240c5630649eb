package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/folioworks/careerbase/internal/config"
	"github.com/folioworks/careerbase/internal/database"
	"github.com/folioworks/careerbase/internal/repository"
	"github.com/spf13/cobra"
)

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print knowledge base statistics",
		Long:  "Recompute and print document and chunk statistics from the database",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	stats, err := repository.NewDocumentRepository(pool).Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	out := struct {
		TotalDocuments      int            `json:"total_documents"`
		DocumentsByCategory map[string]int `json:"documents_by_category"`
		DocumentsByStatus   map[string]int `json:"documents_by_status"`
		TotalChunks         int            `json:"total_chunks"`
	}{
		TotalDocuments:      stats.TotalDocuments,
		DocumentsByCategory: make(map[string]int, len(stats.DocumentsByCategory)),
		DocumentsByStatus:   make(map[string]int, len(stats.DocumentsByStatus)),
		TotalChunks:         stats.TotalChunks,
	}
	for category, count := range stats.DocumentsByCategory {
		out.DocumentsByCategory[string(category)] = count
	}
	for status, count := range stats.DocumentsByStatus {
		out.DocumentsByStatus[string(status)] = count
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
