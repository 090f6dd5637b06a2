package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"veilchat/internal/domain"
)

// watch: print messages live as the relay delivers them, until interrupted.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print incoming messages as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			msgs, err := wire.Messages.Watch(ctx, passphrase)
			if err != nil {
				return err
			}
			fmt.Println("watching for messages (ctrl-c to stop)")
			for m := range msgs {
				switch {
				case m.DecryptErr != nil:
					fmt.Printf("[%s] <message could not be decrypted>\n", m.From)
				case m.Kind == domain.KindImage:
					fmt.Printf("[%s] <image, %d bytes>\n", m.From, len(m.Plaintext))
				default:
					fmt.Printf("[%s] %s\n", m.From, string(m.Plaintext))
				}
			}
			return nil
		},
	}
}
