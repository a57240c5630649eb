package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// DocumentItem represents a document in API responses.
type DocumentItem struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	Category      string `json:"category"`
	SizeBytes     int64  `json:"size_bytes"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	ChunkCount    int    `json:"chunk_count"`
	UploadedAt    string `json:"uploaded_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

// DocumentListResponse represents the document list API response.
type DocumentListResponse struct {
	Items   []DocumentItem `json:"items"`
	Cursor  string         `json:"cursor,omitempty"`
	HasMore bool           `json:"has_more"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document to the knowledge base",
		Long:  "Uploads a document for asynchronous chunking and embedding.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(args[0], category, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Document category (interview-transcript|resume-version|career-plan|job-description)")
	cmd.MarkFlagRequired("category")

	return cmd
}

func runUpload(filePath, category string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.PostFile("/documents", filePath, category)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var doc DocumentItem
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Accepted %s (%s)\n", doc.Filename, doc.ID)
	fmt.Printf("Status: %s\n", doc.Status)
	return nil
}

// ListCmd creates the document list command.
func ListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Long:  "Lists documents newest first with cursor pagination.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runList(limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/documents?limit=%d", limit)
	if cursor != "" {
		path += "&cursor=" + cursor
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp DocumentListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	fmt.Printf("Found %d documents:\n\n", len(listResp.Items))
	for i, item := range listResp.Items {
		fmt.Printf("%d. %s [%s]\n", i+1, item.Filename, item.Category)
		fmt.Printf("   Status: %s", item.Status)
		if item.FailureReason != "" {
			fmt.Printf(" (%s)", item.FailureReason)
		}
		fmt.Println()
		if item.ChunkCount > 0 {
			fmt.Printf("   Chunks: %d\n", item.ChunkCount)
		}
		fmt.Printf("   Uploaded: %s\n", item.UploadedAt)
		fmt.Printf("   ID: %s\n", item.ID)
		if i < len(listResp.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}

// GetCmd creates the document get command.
func GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(args[0], outputJSON)
		},
	}
}

func runGet(id string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/documents/" + id)
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}

	var doc DocumentItem
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("%s [%s]\n", doc.Filename, doc.Category)
	fmt.Printf("Status: %s\n", doc.Status)
	if doc.FailureReason != "" {
		fmt.Printf("Failure: %s\n", doc.FailureReason)
	}
	fmt.Printf("Size: %d bytes, Chunks: %d\n", doc.SizeBytes, doc.ChunkCount)
	fmt.Printf("Uploaded: %s\n", doc.UploadedAt)
	if doc.ProcessedAt != "" {
		fmt.Printf("Processed: %s\n", doc.ProcessedAt)
	}
	fmt.Printf("ID: %s\n", doc.ID)
	return nil
}

// DeleteCmd creates the document delete command.
func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(args[0])
		},
	}
}

func runDelete(id string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	if _, err := api.Delete("/documents/" + id); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("Deleted %s\n", id)
	return nil
}
