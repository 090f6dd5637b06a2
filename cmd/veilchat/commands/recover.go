package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"veilchat/internal/domain"
)

func recoverCmd() *cobra.Command {
	var (
		newPassword string
		phrase      string
	)

	cmd := &cobra.Command{
		Use:   "recover <username>",
		Short: "Rebuild your account on this device from the recovery phrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if newPassword == "" {
				return fmt.Errorf("--new-password required")
			}
			if phrase == "" {
				return fmt.Errorf("--phrase required")
			}

			fp, err := wire.Recovery.Recover(
				cmd.Context(), domain.Username(args[0]), newPassword, phrase, passphrase,
			)
			if err != nil {
				return err
			}

			fmt.Printf("Recovered %s\n", args[0])
			fmt.Printf("Fingerprint: %s\n", fp)
			return nil
		},
	}

	cmd.Flags().StringVar(&newPassword, "new-password", "", "replacement account password")
	cmd.Flags().StringVar(&phrase, "phrase", "", "the recovery phrase shown at registration")
	return cmd
}

func checkPhraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-phrase <phrase>",
		Short: "Structurally validate a recovery phrase without contacting the relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !wire.Recovery.CheckPassphrase(args[0]) {
				return fmt.Errorf("phrase is not structurally valid")
			}
			fmt.Println("phrase looks structurally valid")
			return nil
		},
	}
}
