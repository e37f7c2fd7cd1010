package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// UploadResponse represents the upload API response.
type UploadResponse struct {
	Outcome        string `json:"outcome"`
	ContentHash    string `json:"content_hash"`
	Filename       string `json:"filename"`
	ChunkCount     int    `json:"chunk_count"`
	FileSize       int64  `json:"file_size"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document",
		Long:  "Uploads a document for chunking and embedding. Identical content is deduplicated by hash; re-uploading a filename with new content supersedes the prior version.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(cmd, args[0], conversationID, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Conversation scope for the document (omit for global)")

	return cmd
}

func runUpload(cmd *cobra.Command, path, conversationID string, outputJSON bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.PostMultipart("/v1/documents", "file", filepath.Base(path), file, map[string]string{
		"conversation_id": conversationID,
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var uploadResp UploadResponse
	if err := json.Unmarshal(resp.Data, &uploadResp); err != nil {
		return fmt.Errorf("failed to parse upload response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(uploadResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	switch uploadResp.Outcome {
	case "duplicate":
		fmt.Printf("Already indexed: %s (hash %s)\n", uploadResp.Filename, shortHash(uploadResp.ContentHash))
	case "updated":
		fmt.Printf("Updated %s: %d chunks indexed (hash %s)\n", uploadResp.Filename, uploadResp.ChunkCount, shortHash(uploadResp.ContentHash))
	default:
		fmt.Printf("Indexed %s: %d chunks (hash %s)\n", uploadResp.Filename, uploadResp.ChunkCount, shortHash(uploadResp.ContentHash))
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
