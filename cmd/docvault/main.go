package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/docvault/internal/cli"
	"github.com/cloo-solutions/docvault/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "docvault",
		Short: "Docvault CLI - Document retrieval for AI conversations",
		Long: `Docvault CLI provides commands to upload, search, and manage documents.

Environment variables:
  DOCVAULT_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.VersionsCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.DownloadCmd())
	rootCmd.AddCommand(client.ReindexCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
