package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"veilchat/internal/domain"
)

func registerCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account and print the one-time recovery phrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("--password required")
			}

			res, err := wire.Identities.Register(
				cmd.Context(), domain.Username(args[0]), password, passphrase,
			)
			if err != nil {
				return err
			}

			phrase, err := res.RecoveryPhrase.Reveal()
			if err != nil {
				return err
			}

			fmt.Printf("Registered %s\n", args[0])
			fmt.Printf("Fingerprint: %s\n", res.Fingerprint)
			fmt.Println()
			fmt.Println("Recovery phrase (shown once, write it down now):")
			fmt.Printf("  %s\n", phrase)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password for the relay")
	return cmd
}
