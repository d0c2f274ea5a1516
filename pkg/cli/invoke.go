package cli

import (
	"context"
	"log/slog"

	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/setup"

	"github.com/spf13/cobra"
)

var invokeEvent string

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Dispatch one operation event to Coiote DM",
	Long: `Validate the event, schedule the task on Coiote DM and trigger a session
with the device. Prints {statusCode, body}; exits non-zero unless the final
status is 2xx.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return err
		}
		slog.SetDefault(setup.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel))

		req, err := readEvent(cmd, invokeEvent)
		if err != nil {
			return err
		}

		ctx := context.Background()
		d, cleanup, err := setup.Dispatcher(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		return printResult(cmd, d.Dispatch(ctx, req))
	},
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeEvent, "event", "e", "-", "Event JSON file (- for stdin)")
	rootCmd.AddCommand(invokeCmd)
}
