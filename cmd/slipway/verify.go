package slipway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/railwayapp/slipway/internal/discovery"
	"github.com/railwayapp/slipway/internal/filesystems"
	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/railwayapp/slipway/internal/nativedeps"
	"github.com/railwayapp/slipway/internal/plan"
	"github.com/railwayapp/slipway/internal/verify"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [source-path|Dockerfile]",
	Short: "Statically verify a descriptor against the separation invariants",
	Long: `Verify checks that a Dockerfile keeps the build toolchain out of the
runtime stage and that every native-extension dependency in the manifest has
its runtime shared libraries installed there. A missing runtime library is
the failure that builds cleanly and crashes the container at startup; this
command is the regression test for it.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		if err := runVerify(cmd.Context(), target); err != nil {
			logger.Error("verification failed", "err", err)
			os.Exit(1)
		}
	},
}

func runVerify(ctx context.Context, target string) error {
	filesystem := filesystems.NewLocalFS()
	dockerfilePath, sourceDir, err := resolveVerifyTarget(filesystem, target)
	if err != nil {
		return err
	}

	dockerfile, err := os.ReadFile(dockerfilePath)
	if err != nil {
		return fmt.Errorf("reading descriptor: %w", err)
	}

	// The manifest is optional here; without it only structural checks run
	var m *manifest.Manifest
	appDiscovery := discovery.NewAppDiscovery(filesystem)
	if app, err := appDiscovery.Discover(ctx, sourceDir); err == nil && app.ManifestPath != "" {
		if parsed, err := plan.ReadManifest(filesystem, app); err == nil {
			m = parsed
		}
	}
	if m == nil {
		logger.Warn("no dependency manifest found; running structural checks only")
	}

	findings, err := verify.NewVerifier(nativedeps.NewRegistry()).Verify(dockerfile, m)
	if err != nil {
		return err
	}

	reportFindings(findings)
	if verify.HasErrors(findings) {
		return fmt.Errorf("descriptor violates the build/runtime separation invariants")
	}

	logger.Info("descriptor verified", "path", dockerfilePath)
	return nil
}

// resolveVerifyTarget accepts either a Dockerfile path or a source directory
func resolveVerifyTarget(filesystem filesystems.FileSystem, target string) (dockerfilePath, sourceDir string, err error) {
	stat, err := os.Stat(target)
	if err != nil {
		return "", "", fmt.Errorf("cannot stat %s: %w", target, err)
	}

	if stat.IsDir() {
		path, err := filesystems.FindFile(filesystem, target, "Dockerfile", filesystem.ReadDir(target))
		if err != nil {
			return "", "", err
		}
		if path == "" {
			return "", "", fmt.Errorf("no Dockerfile under %s", target)
		}
		return path, target, nil
	}
	return target, filepath.Dir(target), nil
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
