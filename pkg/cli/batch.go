package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/models"
	"lwm2mbridge/pkg/setup"
	"lwm2mbridge/pkg/worker"

	"github.com/spf13/cobra"
)

var (
	batchEvents  string
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Dispatch a JSON array of operation events concurrently",
	Long: `Dispatch every event of a JSON array through one dispatcher using a bounded
number of workers. Results are printed as a JSON array in event order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return err
		}
		slog.SetDefault(setup.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel))

		var data []byte
		if batchEvents == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(batchEvents)
		}
		if err != nil {
			return fmt.Errorf("failed to read events: %w", err)
		}
		var events []models.OperationRequest
		if err := json.Unmarshal(data, &events); err != nil {
			return fmt.Errorf("failed to parse events: %w", err)
		}

		ctx := context.Background()
		d, cleanup, err := setup.Dispatcher(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		results := worker.Run(ctx, batchWorkers, "Batch", events, d.Dispatch)

		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		failed := 0
		for _, r := range results {
			if r.StatusCode < 200 || r.StatusCode >= 300 {
				failed++
			}
		}
		if failed > 0 {
			failureColor.Fprintf(cmd.ErrOrStderr(), "✗ %d of %d operations failed\n", failed, len(results))
			return fmt.Errorf("%d operations failed", failed)
		}
		successColor.Fprintf(cmd.ErrOrStderr(), "✓ %d operations succeeded\n", len(results))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchEvents, "events", "e", "-", "JSON array of events (- for stdin)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 4, "Number of concurrent dispatches")
	rootCmd.AddCommand(batchCmd)
}
