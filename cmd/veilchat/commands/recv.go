package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"veilchat/internal/domain"
)

// recv <peer>: fetch and decrypt the conversation with <peer>.
func recvCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recv <peer>",
		Short: "Fetch and decrypt your conversation with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}

			msgs, err := wire.Messages.Receive(cmd.Context(), passphrase, domain.Username(args[0]), limit)
			if err != nil {
				return err
			}
			for _, m := range msgs {
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

	cmd.Flags().IntVar(&limit, "limit", 0, "max messages to fetch (0 = all)")
	return cmd
}
