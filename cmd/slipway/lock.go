package slipway

import (
	"os"
	"path/filepath"

	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/railwayapp/slipway/internal/nativedeps"
	"github.com/railwayapp/slipway/internal/plan"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock [source-path]",
	Short: "Snapshot the dependency manifest into slipway.lock",
	Long: `Lock records the manifest's content hash and each requirement's pin
state. Pins are authoritative; unpinned ranges are recorded as declared so a
later plan can tell whether the manifest changed underneath the lock.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sourcePath := "."
		if len(args) > 0 {
			sourcePath = args[0]
		}

		if err := runLock(cmd, sourcePath); err != nil {
			logger.Error("lock failed", "err", err)
			os.Exit(1)
		}
	},
}

func runLock(cmd *cobra.Command, sourcePath string) error {
	filesystem, cleanup, err := newFilesystem(sourcePath)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := plan.NewPipeline(filesystem, plannerConfig(), nativedeps.NewRegistry())
	result, err := pipeline.Run(cmd.Context(), rootOf(filesystem, sourcePath))
	if err != nil {
		return err
	}

	lockfile := manifest.Lock(result.Manifest)
	// Resolve through the filesystem root so git:// sources lock inside the
	// clone instead of a path spelled like the URL
	lockPath := filepath.Join(rootOf(filesystem, sourcePath), manifest.LockFileName)
	if err := lockfile.Write(lockPath); err != nil {
		return err
	}

	unpinned := 0
	for _, req := range lockfile.Requirements {
		if !req.Pinned {
			unpinned++
		}
	}
	logger.Info("wrote lockfile", "path", lockPath, "requirements", len(lockfile.Requirements), "unpinned", unpinned)
	return nil
}

func init() {
	rootCmd.AddCommand(lockCmd)
}
