package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func conversationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conversations",
		Short: "List conversation summaries with unread counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			convs, err := wire.Messages.Conversations(cmd.Context())
			if err != nil {
				return err
			}
			if len(convs) == 0 {
				fmt.Println("no conversations yet")
				return nil
			}
			for _, c := range convs {
				last := time.Unix(c.LastTimestamp, 0).Format(time.RFC3339)
				marker := ""
				if c.Unread > 0 {
					marker = fmt.Sprintf(" (%d unread)", c.Unread)
				}
				fmt.Printf("%s  last %s%s\n", c.Peer, last, marker)
			}
			return nil
		},
	}
}
