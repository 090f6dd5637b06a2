package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"veilchat/internal/app"
)

var (
	home       string
	relayURL   string
	passphrase string

	wire *app.Wire
)

// Execute runs the veilchat CLI.
func Execute() error {
	root := &cobra.Command{
		Use:          "veilchat",
		Short:        "End-to-end encrypted messaging CLI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".veilchat")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			wire, err = app.NewWire(app.Config{Home: home, RelayURL: relayURL})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.veilchat)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "http://127.0.0.1:8080", "relay base URL")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "local passphrase protecting your keys")

	root.AddCommand(
		registerCmd(),
		loginCmd(),
		sendCmd(),
		recvCmd(),
		watchCmd(),
		conversationsCmd(),
		fingerprintCmd(),
		recoverCmd(),
		checkPhraseCmd(),
	)
	return root.Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}
