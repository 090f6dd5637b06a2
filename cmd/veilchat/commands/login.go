package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"veilchat/internal/domain"
)

func loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Authenticate with the relay and store a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("--password required")
			}
			if err := wire.Identities.Login(cmd.Context(), domain.Username(args[0]), password); err != nil {
				return err
			}
			fmt.Println("logged in")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password for the relay")
	return cmd
}
