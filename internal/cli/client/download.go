package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type downloadURLResponse struct {
	URL string `json:"download_url"`
}

// DownloadCmd creates the download command.
func DownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <content-hash>",
		Short: "Download a document's archived original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output-file", "o", "", "Output path (defaults to the registered filename)")

	return cmd
}

func runDownload(cmd *cobra.Command, hash, output string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if output == "" {
		resp, err := api.Get("/v1/documents/" + hash)
		if err != nil {
			return fmt.Errorf("failed to look up document: %w", err)
		}
		var doc DocumentInfo
		if err := json.Unmarshal(resp.Data, &doc); err != nil {
			return fmt.Errorf("failed to parse document: %w", err)
		}
		output = doc.Filename
	}

	resp, err := api.Get("/v1/documents/" + hash + "/download")
	if err != nil {
		return fmt.Errorf("failed to get download URL: %w", err)
	}

	var urlResp downloadURLResponse
	if err := json.Unmarshal(resp.Data, &urlResp); err != nil {
		return fmt.Errorf("failed to parse download URL: %w", err)
	}

	if err := api.DownloadFile(urlResp.URL, output); err != nil {
		return err
	}

	fmt.Printf("Downloaded %s.\n", output)
	return nil
}
