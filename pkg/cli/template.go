package cli

import (
	"encoding/json"
	"fmt"

	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/dispatcher"
	"lwm2mbridge/pkg/models"
	"lwm2mbridge/pkg/operation"

	"github.com/spf13/cobra"
)

var templateEvent string

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print the task-template request an event would produce",
	Long: `Validate the event and print the Coiote DM task-template request without
contacting Coiote DM. Validation failures are printed as the result the
service would return.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return err
		}

		req, err := readEvent(cmd, templateEvent)
		if err != nil {
			return err
		}

		// Planning never reaches Coiote DM, so no task API is needed
		planner := dispatcher.New(nil, operation.NewBuilder(cfg.TemplatePrefix, cfg.TemplateSuffix), nil)
		_, task, err := planner.Plan(req)
		if err != nil {
			opErr := operation.AsError(err)
			return printResult(cmd, models.ErrorResult(opErr.Status, opErr.Message))
		}

		out, err := json.MarshalIndent(task, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVarP(&templateEvent, "event", "e", "-", "Event JSON file (- for stdin)")
	rootCmd.AddCommand(templateCmd)
}
