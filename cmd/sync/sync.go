package sync

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fhnwtools/unisync/cmd/util"
	"github.com/fhnwtools/unisync/pkg/errors"
	"github.com/fhnwtools/unisync/pkg/gitutil"
	"github.com/fhnwtools/unisync/pkg/metrics"
	"github.com/fhnwtools/unisync/pkg/network"
	"github.com/fhnwtools/unisync/pkg/profile"
	"github.com/fhnwtools/unisync/pkg/sync"
)

// New creates a new `sync` command.
func New() *cobra.Command {
	var dryRun bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "sync PROFILE",
		Short: "Run a synchronization profile.",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if metricsAddr != "" {
				metrics.Serve(metricsAddr)
			}
			if err := run(args[0], dryRun); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Plan the sync and report what would happen without touching any files.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (e.g. :9090) while syncing.")
	return cmd
}

func run(name string, dryRun bool) error {
	store, err := profile.NewStore()
	if err != nil {
		return errors.WithContext(err, "open profile store")
	}

	p, err := store.GetByName(name)
	if err != nil {
		return err
	}
	if dryRun {
		p.DryRun = true
	}

	if err := network.EnsureReachable(p.Source); err != nil {
		return err
	}
	// The engine creates a missing local one-way destination itself; remote
	// and bidirectional destinations must already be reachable.
	if p.Direction == profile.DirectionBidirectional || p.Destination.IsRemote {
		if err := network.EnsureReachable(p.Destination); err != nil {
			return err
		}
	}

	states, err := sync.NewStateStore()
	if err != nil {
		return errors.WithContext(err, "open state store")
	}

	cancel := sync.NewCancelSignal()
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		fmt.Fprintln(os.Stderr, "\nCancelling after the current file...")
		cancel.Cancel()
	}()
	defer signal.Stop(interrupts)

	observer := sync.ObserverFunc(func(progress sync.Progress) {
		if progress.CurrentPath == "" {
			return
		}
		fmt.Printf("\r\033[K[%d/%d] %s %s", progress.Processed, progress.Total,
			progress.CurrentKind, progress.CurrentPath)
	})

	result, err := sync.NewEngine(states).Run(p, observer, cancel)
	if err != nil {
		return err
	}
	fmt.Println()

	printSummary(result)

	if !result.DryRun && !result.Cancelled {
		if p.AutoCommit {
			msg := fmt.Sprintf("unisync: snapshot after syncing profile %q", p.Name)
			if err := gitutil.CommitAllIfRepo(p.Destination.Path, msg); err != nil {
				log.WithError(err).Warn("Post-sync git commit failed")
			}
		}
		if p.AutoPull {
			if err := gitutil.PullIfRepo(p.Destination.Path); err != nil {
				log.WithError(err).Warn("Post-sync git pull failed")
			}
		}
	}

	if result.Failed > 0 {
		return errors.NewFriendlyError("%d entries failed to sync. "+
			"See the messages above for details.", result.Failed)
	}
	return nil
}

func printSummary(result sync.SyncResult) {
	state := "Sync complete"
	if result.DryRun {
		state = "Dry run complete"
	}
	if result.Cancelled {
		state = "Sync cancelled"
	}

	fmt.Printf("%s in %s: %d copied, %d deleted, %d skipped, %d failed (%d bytes)\n",
		state, result.Duration.Round(time.Millisecond), result.Copied, result.Deleted,
		result.Skipped, result.Failed, result.BytesTransferred)

	for _, conflict := range result.Conflicts {
		fmt.Printf("conflict: %s resolved in favor of the %s side\n",
			conflict.Path, conflict.ChosenSide)
	}
	for _, actionErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "failed: %s\n", actionErr)
	}
	for _, scanErr := range result.ScanErrors {
		fmt.Fprintf(os.Stderr, "scan error: %s: %s\n", scanErr.Path, scanErr.Err)
	}
}
