package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ReindexJobInfo represents a reindex job in API responses.
type ReindexJobInfo struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// ReindexCmd creates the reindex command.
func ReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex <content-hash>",
		Short: "Queue a document for re-chunking and re-embedding",
		Long:  "Queues a background job that rebuilds a document's chunks from its archived original.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runReindex(cmd, args[0], outputJSON)
		},
	}

	cmd.AddCommand(reindexStatusCmd())

	return cmd
}

func reindexStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a reindex job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runReindexStatus(cmd, args[0], outputJSON)
		},
	}
}

func runReindex(cmd *cobra.Command, hash string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/v1/documents/"+hash+"/reindex", nil)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	var job ReindexJobInfo
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		return fmt.Errorf("failed to parse reindex job: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Queued reindex job %s for %s.\n", job.ID, shortHash(job.ContentHash))
	return nil
}

func runReindexStatus(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/v1/reindex-jobs/" + id)
	if err != nil {
		return fmt.Errorf("failed to get job status: %w", err)
	}

	var job ReindexJobInfo
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		return fmt.Errorf("failed to parse reindex job: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Job %s: %s (document %s, created %s)\n", job.ID, job.Status, shortHash(job.ContentHash), job.CreatedAt)
	return nil
}
