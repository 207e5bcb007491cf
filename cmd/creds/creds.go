package creds

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fhnwtools/unisync/cmd/util"
	"github.com/fhnwtools/unisync/pkg/network"
)

// New creates a new `creds` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage usernames stored for network shares.",
	}
	cmd.AddCommand(newSet(), newGet(), newDelete())
	return cmd
}

func newSet() *cobra.Command {
	return &cobra.Command{
		Use:   "set SHARE USERNAME",
		Short: "Store the username to use for a network share.",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			if err := network.SetShareCredential(args[0], args[1]); err != nil {
				util.HandleFatalError(err)
			}
			fmt.Printf("Stored credential for %q.\n", args[0])
		},
	}
}

func newGet() *cobra.Command {
	return &cobra.Command{
		Use:   "get SHARE",
		Short: "Print the stored username for a network share.",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			username, err := network.ShareCredential(args[0])
			if err != nil {
				util.HandleFatalError(err)
			}
			fmt.Println(username)
		},
	}
}

func newDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete SHARE",
		Short: "Remove the stored username for a network share.",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := network.DeleteShareCredential(args[0]); err != nil {
				util.HandleFatalError(err)
			}
			fmt.Printf("Deleted credential for %q.\n", args[0])
		},
	}
}
