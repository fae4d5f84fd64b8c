package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the Relay client.
// It registers the channel command group.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "relay",
		Short: "Relay client commands",
	}
	root.AddCommand(NewChannelCommand())
	return root
}
