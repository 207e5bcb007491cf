package preview

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fhnwtools/unisync/cmd/util"
	"github.com/fhnwtools/unisync/pkg/errors"
	"github.com/fhnwtools/unisync/pkg/network"
	"github.com/fhnwtools/unisync/pkg/profile"
	"github.com/fhnwtools/unisync/pkg/sync"
)

// New creates a new `preview` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "preview PROFILE",
		Short: "Show what a sync would do without changing any files.",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(name string) error {
	store, err := profile.NewStore()
	if err != nil {
		return errors.WithContext(err, "open profile store")
	}

	p, err := store.GetByName(name)
	if err != nil {
		return err
	}
	p.DryRun = true

	if err := network.EnsureReachable(p.Source); err != nil {
		return err
	}

	states, err := sync.NewStateStore()
	if err != nil {
		return errors.WithContext(err, "open state store")
	}

	result, err := sync.NewEngine(states).Run(p, nil, nil)
	if err != nil {
		return err
	}

	if len(result.Actions) == 0 {
		fmt.Println("Already in sync: nothing to do.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Action", "Path", "From", "Size"})
	for _, action := range result.Actions {
		size := ""
		if action.Kind == sync.ActionCopy {
			size = fmt.Sprintf("%d", action.Record.Size)
		}
		table.Append([]string{string(action.Kind), action.Path,
			string(action.Source), size})
	}
	table.Render()

	fmt.Printf("Would copy %d, delete %d, and skip %d entries (%d bytes).\n",
		result.Copied, result.Deleted, result.Skipped, result.BytesTransferred)
	for _, conflict := range result.Conflicts {
		fmt.Printf("conflict: %s would be resolved in favor of the %s side\n",
			conflict.Path, conflict.ChosenSide)
	}
	return nil
}
