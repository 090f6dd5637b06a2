package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"veilchat/internal/domain"
)

// fingerprint [user]: without arguments prints your own fingerprint;
// with a username, fetches the peer's key and prints theirs so both
// sides can compare out of band.
func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint [user]",
		Short: "Print identity fingerprint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				fp, err := wire.Identities.FingerprintOf(cmd.Context(), domain.Username(args[0]))
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", args[0], fp)
				return nil
			}

			if err := requirePassphrase(); err != nil {
				return err
			}
			fp, err := wire.Identities.Fingerprint(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Fingerprint: %s\n", fp)
			return nil
		},
	}
}
