// Package cli implements lwm2mctl, an operator tool that runs LwM2M operation
// events through the same dispatcher the HTTP service uses.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configDir string

	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
)

// rootCmd is the root command for lwm2mctl.
var rootCmd = &cobra.Command{
	Use:     "lwm2mctl",
	Version: "dev",
	Short:   "Run LwM2M operations against Coiote DM",
	Long: `lwm2mctl turns LwM2M operation events into Coiote DM task-template
requests, schedules them and triggers a session with the device.

Events use the same JSON document as POST /api/v1/operations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory holding app.yaml / .env")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
