package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the retrieve API request.
type SearchRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
}

// SearchResult represents one retrieved chunk.
type SearchResult struct {
	Content     string   `json:"content"`
	Score       float64  `json:"score"`
	ContentHash string   `json:"content_hash"`
	Filename    string   `json:"filename"`
	ChunkIndex  int      `json:"chunk_index"`
	Headings    []string `json:"headings,omitempty"`
	Page        int      `json:"page,omitempty"`
}

// SearchResponse represents the retrieve API response.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		conversationID string
		topK           int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long:  "Retrieves the document chunks most similar to the query, restricted to a conversation scope.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], conversationID, topK, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Conversation scope to search (omit for global)")
	cmd.Flags().IntVarP(&topK, "top-k", "n", 0, "Maximum number of results (server default when 0)")

	return cmd
}

func runSearch(cmd *cobra.Command, query, conversationID string, topK int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := SearchRequest{
		Query:          query,
		ConversationID: conversationID,
		TopK:           topK,
	}

	resp, err := api.Post("/v1/retrieve", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(searchResp.Results))
	for i, result := range searchResp.Results {
		fmt.Printf("%d. %s [chunk %d] (%.2f)\n", i+1, result.Filename, result.ChunkIndex, result.Score)
		if len(result.Headings) > 0 {
			fmt.Printf("   %s\n", strings.Join(result.Headings, " > "))
		}
		content := result.Content
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		fmt.Printf("   %s\n", content)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
