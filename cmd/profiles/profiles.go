package profiles

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fhnwtools/unisync/cmd/util"
	"github.com/fhnwtools/unisync/pkg/errors"
	"github.com/fhnwtools/unisync/pkg/profile"
)

// New creates a new `profiles` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage synchronization profiles.",
	}
	cmd.AddCommand(newAdd(), newList(), newShow(), newDelete())
	return cmd
}

func newAdd() *cobra.Command {
	var mode, direction string
	var remoteSource, bidirectional bool

	cmd := &cobra.Command{
		Use:   "add NAME SOURCE DESTINATION",
		Short: "Create a profile.",
		Args:  cobra.ExactArgs(3),
		Run: func(_ *cobra.Command, args []string) {
			p := profile.New(args[0])
			p.Source = profile.SyncLocation{Path: args[1], IsRemote: remoteSource}
			p.Destination = profile.SyncLocation{Path: args[2]}
			p.Mode = profile.SyncMode(mode)
			p.Direction = profile.SyncDirection(direction)
			if bidirectional {
				p.Direction = profile.DirectionBidirectional
			}

			if err := runAdd(p); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(profile.ModeUpdate),
		"Sync mode: mirror, update, or additive.")
	cmd.Flags().StringVar(&direction, "direction", string(profile.DirectionRemoteToLocal),
		"Sync direction: remote_to_local, local_to_remote, or bidirectional.")
	cmd.Flags().BoolVar(&bidirectional, "bidirectional", false,
		"Shorthand for --direction bidirectional.")
	cmd.Flags().BoolVar(&remoteSource, "remote-source", false,
		"Mark the source as a network location.")
	return cmd
}

func runAdd(p profile.SyncProfile) error {
	store, err := profile.NewStore()
	if err != nil {
		return errors.WithContext(err, "open profile store")
	}

	saved, err := store.Save(p)
	if err != nil {
		return err
	}

	fmt.Printf("Created profile %q (%s).\n", saved.Name, saved.ID)
	return nil
}

func newList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stored profiles.",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := runList(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func newShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show PROFILE",
		Short: "Print a profile as YAML.",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := runShow(args[0]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func newDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PROFILE",
		Short: "Delete a profile.",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := runDelete(args[0]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func runList() error {
	store, err := profile.NewStore()
	if err != nil {
		return errors.WithContext(err, "open profile store")
	}

	list, err := store.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Printf("No profiles yet. Add YAML files under %s.\n", store.Dir())
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Mode", "Direction", "Source", "Destination"})
	for _, p := range list {
		table.Append([]string{p.Name, string(p.Mode), string(p.Direction),
			p.Source.Path, p.Destination.Path})
	}
	table.Render()
	return nil
}

func runShow(name string) error {
	store, err := profile.NewStore()
	if err != nil {
		return errors.WithContext(err, "open profile store")
	}

	p, err := store.GetByName(name)
	if err != nil {
		return err
	}

	contents, err := yaml.Marshal(p)
	if err != nil {
		return errors.WithContext(err, "marshal profile")
	}
	fmt.Print(string(contents))
	return nil
}

func runDelete(name string) error {
	store, err := profile.NewStore()
	if err != nil {
		return errors.WithContext(err, "open profile store")
	}

	p, err := store.GetByName(name)
	if err != nil {
		return err
	}
	if err := store.Delete(p.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted profile %q.\n", p.Name)
	return nil
}
