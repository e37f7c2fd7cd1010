package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// DocumentInfo represents a registered document in API responses.
type DocumentInfo struct {
	ContentHash    string `json:"content_hash"`
	Filename       string `json:"filename"`
	FileSize       int64  `json:"file_size"`
	ChunkCount     int    `json:"chunk_count"`
	ConversationID string `json:"conversation_id,omitempty"`
	UploadedAt     string `json:"upload_timestamp"`
	LastIndexedAt  string `json:"last_indexed_timestamp"`
}

// ListResponse represents the document list API response.
type ListResponse struct {
	Documents []DocumentInfo `json:"documents"`
	Cursor    string         `json:"cursor,omitempty"`
	HasMore   bool           `json:"has_more"`
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	var (
		conversationID string
		limit          int
		cursor         string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered documents",
		Long:  "Lists the documents registered in a conversation scope, newest upload first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, conversationID, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Conversation scope (omit for global)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of documents per page")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runList(cmd *cobra.Command, conversationID string, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	params := url.Values{}
	if conversationID != "" {
		params.Set("conversation_id", conversationID)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := "/v1/documents"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp ListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse list response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Documents) == 0 {
		fmt.Println("No documents registered.")
		return nil
	}

	for _, doc := range listResp.Documents {
		fmt.Printf("%s  %s  (%d chunks, %d bytes)\n", shortHash(doc.ContentHash), doc.Filename, doc.ChunkCount, doc.FileSize)
	}
	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\nMore documents available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}
