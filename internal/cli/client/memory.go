package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// MemoryItem represents a memory in API responses.
type MemoryItem struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Category   string            `json:"category"`
	Importance float64           `json:"importance"`
	Metadata   map[string]string `json:"metadata"`
	CreatedAt  string            `json:"created_at"`
}

// MemoryListResponse represents the memory list API response.
type MemoryListResponse struct {
	Items []MemoryItem `json:"items"`
}

// MemoryCmd creates the memory command group.
func MemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Record and query memories",
	}

	cmd.AddCommand(memoryAddCmd())
	cmd.AddCommand(memoryListCmd())

	return cmd
}

func memoryAddCmd() *cobra.Command {
	var (
		category string
		metadata []string
	)

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Record a memory",
		Long:  "Records a memory; category and importance are inferred when not given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMemoryAdd(args[0], category, metadata, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Memory category (career|skills|goals|professional|other)")
	cmd.Flags().StringArrayVarP(&metadata, "meta", "m", nil, "Metadata key=value pair (repeatable)")

	return cmd
}

func runMemoryAdd(content, category string, metadata []string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	meta := make(map[string]string, len(metadata))
	for _, pair := range metadata {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid metadata pair %q (expected key=value)", pair)
		}
		meta[key] = value
	}

	body := map[string]interface{}{
		"content": content,
	}
	if category != "" {
		body["category"] = category
	}
	if len(meta) > 0 {
		body["metadata"] = meta
	}

	resp, err := api.Post("/memories", body)
	if err != nil {
		return fmt.Errorf("record failed: %w", err)
	}

	var mem MemoryItem
	if err := json.Unmarshal(resp.Data, &mem); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(mem, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Recorded %s [%s] importance %.2f\n", mem.ID, mem.Category, mem.Importance)
	return nil
}

func memoryListCmd() *cobra.Command {
	var (
		category string
		query    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Query memories",
		Long:  "Lists memories newest first; with --query results are ranked by relevance, importance and recency.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMemoryList(category, query, limit, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Free-text query")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")

	return cmd
}

func runMemoryList(category, query string, limit int, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if query != "" {
		params.Set("q", query)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	path := "/memories"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var listResp MemoryListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No memories found.")
		return nil
	}

	for i, mem := range listResp.Items {
		fmt.Printf("%d. [%s] %.2f  %s\n", i+1, mem.Category, mem.Importance, mem.Content)
		fmt.Printf("   Created: %s  ID: %s\n", mem.CreatedAt, mem.ID)
	}

	return nil
}
