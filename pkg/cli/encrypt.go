package cli

import (
	"errors"
	"fmt"

	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/credentials"

	"github.com/spf13/cobra"
)

var encryptPassword string

var encryptCmd = &cobra.Command{
	Use:   "encrypt-password",
	Short: "Encrypt a Coiote DM password for COIOTE_PASSWORD",
	Long: `Encrypt the password with ENCRYPTION_KEY. Put the output in COIOTE_PASSWORD
and set COIOTE_PASSWORD_ENCRYPTED=true.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if encryptPassword == "" {
			return errors.New("--password is required")
		}

		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return err
		}

		ciphertext, err := credentials.EncryptPassword(encryptPassword, cfg.EncryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ciphertext)
		return nil
	},
}

func init() {
	encryptCmd.Flags().StringVar(&encryptPassword, "password", "", "Password to encrypt")
	rootCmd.AddCommand(encryptCmd)
}
