package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veilchat/internal/domain"
)

// send <peer> <message>: encrypt and send a message to <peer>. With
// --image the second argument is a file path instead of literal text.
func sendCmd() *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "send <peer> [message]",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			peer := domain.Username(args[0])

			kind := domain.KindText
			var plaintext []byte
			switch {
			case imagePath != "":
				raw, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				kind = domain.KindImage
				plaintext = raw
			case len(args) == 2:
				plaintext = []byte(args[1])
			default:
				return fmt.Errorf("message text or --image required")
			}

			if err := wire.Messages.Send(cmd.Context(), passphrase, peer, kind, plaintext); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "send the file at this path as an image")
	return cmd
}
