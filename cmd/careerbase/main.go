package main

import (
	"fmt"
	"os"

	"github.com/folioworks/careerbase/internal/cli"
	"github.com/folioworks/careerbase/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "careerbase",
		Short: "Careerbase CLI - personal career knowledge base",
		Long: `Careerbase CLI manages documents and memories in a career knowledge base.

Environment variables:
  CAREERBASE_USER_ID    Acting user id (required)
  CAREERBASE_API_TOKEN  Bearer token when the server enforces one
  CAREERBASE_API_URL    API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.MemoryCmd())
	rootCmd.AddCommand(client.ContextCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
