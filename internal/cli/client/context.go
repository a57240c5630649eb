package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// KnowledgeHit represents one vector search result in the context response.
type KnowledgeHit struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Category   string  `json:"category"`
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// ContextResponse represents the assembled context API response.
type ContextResponse struct {
	RecentMemories    []MemoryItem      `json:"recent_memories"`
	RelevantKnowledge []KnowledgeHit    `json:"relevant_knowledge"`
	CareerInsights    []MemoryItem      `json:"career_insights"`
	PersonalContext   map[string]string `json:"personal_context"`
}

// ContextCmd creates the context command.
func ContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context <query>",
		Short: "Assemble retrieval context for a query",
		Long:  "Builds the combined memory and knowledge base context for a conversational turn.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runContext(args[0], outputJSON)
		},
	}
}

func runContext(query string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/context", map[string]string{"query": query})
	if err != nil {
		return fmt.Errorf("context failed: %w", err)
	}

	var ctxResp ContextResponse
	if err := json.Unmarshal(resp.Data, &ctxResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(ctxResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Recent memories (%d):\n", len(ctxResp.RecentMemories))
	for _, mem := range ctxResp.RecentMemories {
		fmt.Printf("  [%s] %s\n", mem.Category, mem.Content)
	}

	fmt.Printf("\nRelevant knowledge (%d):\n", len(ctxResp.RelevantKnowledge))
	for _, hit := range ctxResp.RelevantKnowledge {
		text := hit.Text
		if len(text) > 120 {
			text = text[:120] + "..."
		}
		fmt.Printf("  %.3f %s#%d: %s\n", hit.Score, hit.Filename, hit.Index, text)
	}

	fmt.Printf("\nCareer insights (%d):\n", len(ctxResp.CareerInsights))
	for _, mem := range ctxResp.CareerInsights {
		fmt.Printf("  [%.2f] %s\n", mem.Importance, mem.Content)
	}

	if len(ctxResp.PersonalContext) > 0 {
		fmt.Println("\nPersonal context:")
		for key, value := range ctxResp.PersonalContext {
			fmt.Printf("  %s: %s\n", key, value)
		}
	}

	return nil
}
