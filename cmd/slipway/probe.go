package slipway

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	probeTimeout  time.Duration
	probeInterval time.Duration
	probePath     string
)

var probeCmd = &cobra.Command{
	Use:   "probe [address]",
	Short: "Poll a started container until its port answers",
	Long: `Probe polls the application's root path until it responds or the
timeout elapses. The pipeline's runtime contract is only that the declared
port accepts HTTP once the process is up; probe checks exactly that.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		address := "http://localhost:8000"
		if len(args) > 0 {
			address = args[0]
		}
		if !strings.Contains(address, "://") {
			address = "http://" + address
		}

		if err := runProbe(cmd.Context(), address); err != nil {
			logger.Error("probe failed", "err", err)
			os.Exit(1)
		}
	},
}

func runProbe(ctx context.Context, address string) error {
	url := strings.TrimSuffix(address, "/") + probePath
	client := &http.Client{Timeout: probeInterval}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	attempt := 0
	for {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode < 500 {
				logger.Info("application is up", "url", url, "status", resp.StatusCode, "attempts", attempt)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s did not answer within %s; the container likely crashed on startup", url, probeTimeout)
		case <-ticker.C:
		}
	}
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 30*time.Second, "give up after this long")
	probeCmd.Flags().DurationVar(&probeInterval, "interval", time.Second, "poll interval")
	probeCmd.Flags().StringVar(&probePath, "path", "/", "request path for the liveness check")
	rootCmd.AddCommand(probeCmd)
}
