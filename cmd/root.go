package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fhnwtools/unisync/cmd/creds"
	"github.com/fhnwtools/unisync/cmd/preview"
	"github.com/fhnwtools/unisync/cmd/profiles"
	syncCmd "github.com/fhnwtools/unisync/cmd/sync"
	"github.com/fhnwtools/unisync/cmd/util"
	"github.com/fhnwtools/unisync/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "UNISYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "unisync",
		Short:        "Synchronize directories between network shares and local folders.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		creds.New(),
		preview.New(),
		profiles.New(),
		syncCmd.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
