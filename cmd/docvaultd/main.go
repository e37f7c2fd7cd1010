package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/docvault/internal/cli"
	"github.com/cloo-solutions/docvault/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docvaultd",
		Short: "Docvault daemon",
		Long:  "Docvault daemon for running the document ingestion and retrieval API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
