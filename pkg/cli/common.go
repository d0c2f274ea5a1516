package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"lwm2mbridge/pkg/models"

	"github.com/spf13/cobra"
)

// readEvent decodes an operation event from path, or stdin when path is "-".
func readEvent(cmd *cobra.Command, path string) (models.OperationRequest, error) {
	var req models.OperationRequest

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("failed to read event: %w", err)
	}

	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse event: %w", err)
	}
	return req, nil
}

// printResult writes the result as JSON and a colored status line.
func printResult(cmd *cobra.Command, result models.OperationResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if result.StatusCode >= 200 && result.StatusCode < 300 {
		successColor.Fprintf(cmd.ErrOrStderr(), "✓ status %d\n", result.StatusCode)
		return nil
	}
	failureColor.Fprintf(cmd.ErrOrStderr(), "✗ status %d\n", result.StatusCode)
	return fmt.Errorf("operation failed with status %d", result.StatusCode)
}
