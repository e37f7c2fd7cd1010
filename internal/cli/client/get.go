package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <content-hash>",
		Short: "Show a document's registry record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(cmd *cobra.Command, hash string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/v1/documents/" + hash)
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}

	var doc DocumentInfo
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printDocument(doc)
	return nil
}

func printDocument(doc DocumentInfo) {
	fmt.Printf("Filename:      %s\n", doc.Filename)
	fmt.Printf("Content hash:  %s\n", doc.ContentHash)
	fmt.Printf("Size:          %d bytes\n", doc.FileSize)
	fmt.Printf("Chunks:        %d\n", doc.ChunkCount)
	if doc.ConversationID != "" {
		fmt.Printf("Conversation:  %s\n", doc.ConversationID)
	} else {
		fmt.Printf("Conversation:  (global)\n")
	}
	fmt.Printf("Uploaded:      %s\n", doc.UploadedAt)
	fmt.Printf("Last indexed:  %s\n", doc.LastIndexedAt)
}

// VersionsCmd creates the versions command.
func VersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions <filename>",
		Short: "List the content versions registered for a filename",
		Long:  "Lists every content version that was ever uploaded under a filename, oldest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runVersions(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runVersions(cmd *cobra.Command, filename string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/v1/documents/versions?filename=" + url.QueryEscape(filename))
	if err != nil {
		return fmt.Errorf("versions failed: %w", err)
	}

	var docs []DocumentInfo
	if err := json.Unmarshal(resp.Data, &docs); err != nil {
		return fmt.Errorf("failed to parse versions: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(docs, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(docs) == 0 {
		fmt.Printf("No versions registered for %s.\n", filename)
		return nil
	}

	for i, doc := range docs {
		scope := doc.ConversationID
		if scope == "" {
			scope = "global"
		}
		fmt.Printf("%d. %s  uploaded %s  scope %s\n", i+1, shortHash(doc.ContentHash), doc.UploadedAt, scope)
	}

	return nil
}
