package slipway

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/railwayapp/slipway/internal/filesystems"
	"github.com/railwayapp/slipway/internal/nativedeps"
	"github.com/railwayapp/slipway/internal/plan"
	"github.com/railwayapp/slipway/internal/render"
	"github.com/railwayapp/slipway/internal/verify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logger  = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
)

var rootCmd = &cobra.Command{
	Use:   "slipway [source-path]",
	Short: "Derive a two-stage container build descriptor for a Python ASGI service",
	Long: `Slipway takes a Python service's source tree and runs the build pipeline:
1. Discover - Find the dependency manifest and the ASGI application object
2. Plan - Split the install into an ephemeral build stage and a minimal runtime stage
3. Render - Emit the multi-stage Dockerfile
4. Verify - Statically check the build/runtime separation invariants`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sourcePath := "."
		if len(args) > 0 {
			sourcePath = args[0]
		}

		if err := runFullPipeline(cmd.Context(), sourcePath); err != nil {
			logger.Error("pipeline failed", "err", err)
			os.Exit(1)
		}
	},
}

func Execute() {
	rootCmd.SetContext(context.Background())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .slipway.yaml)")
	rootCmd.PersistentFlags().String("python", "", "python interpreter version for the base image")
	rootCmd.PersistentFlags().String("base-image", "", "override the base image for both stages")
	rootCmd.PersistentFlags().Int("port", 0, "override the exposed port")

	viper.BindPFlag("python", rootCmd.PersistentFlags().Lookup("python"))
	viper.BindPFlag("baseImage", rootCmd.PersistentFlags().Lookup("base-image"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".slipway")
	}

	viper.SetEnvPrefix("slipway")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// plannerConfig merges defaults with config file and flag overrides
func plannerConfig() plan.Config {
	config := plan.DefaultConfig()
	if v := viper.GetString("python"); v != "" {
		config.PythonVersion = v
	}
	if v := viper.GetString("baseImage"); v != "" {
		config.BaseImage = v
	}
	if v := viper.GetInt("port"); v != 0 {
		config.Port = v
	}
	config.ExtraBuildPackages = viper.GetStringSlice("buildPackages")
	config.ExtraRuntimePackages = viper.GetStringSlice("runtimePackages")
	return config
}

// newFilesystem resolves the source path into a filesystem, remembering to
// clean up git clones
func newFilesystem(sourcePath string) (filesystems.FileSystem, func(), error) {
	filesystem, err := filesystems.NewFileSystem(sourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create filesystem: %w", err)
	}

	cleanup := func() {}
	if gitFS, ok := filesystem.(*filesystems.GitFS); ok {
		cleanup = func() { gitFS.Cleanup() }
	}
	return filesystem, cleanup, nil
}

func runFullPipeline(ctx context.Context, sourcePath string) error {
	filesystem, cleanup, err := newFilesystem(sourcePath)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := nativedeps.NewRegistry()
	pipeline := plan.NewPipeline(filesystem, plannerConfig(), registry)
	result, err := pipeline.Run(ctx, rootOf(filesystem, sourcePath))
	if err != nil {
		return err
	}

	logger.Info("planned build",
		"app", result.App.Name,
		"start", result.Plan.StartCommand,
		"requirements", result.Manifest.Len(),
		"port", result.Plan.Port)
	for _, warning := range result.Plan.Warnings {
		logger.Warn(warning)
	}

	dockerfile, err := render.Dockerfile(result.Plan)
	if err != nil {
		return err
	}

	verifier := verify.NewVerifier(registry)
	findings, err := verifier.Verify(dockerfile, result.Manifest)
	if err != nil {
		return err
	}
	reportFindings(findings)
	if verify.HasErrors(findings) {
		return fmt.Errorf("rendered descriptor failed verification")
	}

	fmt.Print(string(dockerfile))
	return nil
}

func reportFindings(findings []verify.Finding) {
	for _, f := range findings {
		if f.Severity == verify.SeverityError {
			logger.Error(f.Message, "code", f.Code)
		} else {
			logger.Warn(f.Message, "code", f.Code)
		}
	}
}

// rootOf maps the user's source argument to the filesystem's root path
func rootOf(filesystem filesystems.FileSystem, sourcePath string) string {
	if gitFS, ok := filesystem.(*filesystems.GitFS); ok {
		return gitFS.LocalPath()
	}
	if stat, err := os.Stat(sourcePath); err == nil && !stat.IsDir() {
		return filesystem.Dir(sourcePath)
	}
	return sourcePath
}
