// cmd/deskpet-scan/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-deskpet/pkg/config"
	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/logging"
)

// deskpet-scan logs what the physics bridge would see on this desktop: the
// usable screen area, the refresh rate and the collidable windows.
func main() {
	interval := flag.Duration("interval", time.Second, "Time between scans")
	count := flag.Int("count", 1, "Number of scans, 0 scans until interrupted")
	ignoreMaximized := flag.Bool("ignore-maximized", true, "Exclude maximized windows")
	ignoreFullscreen := flag.Bool("ignore-fullscreen", true, "Exclude fullscreen windows")
	ignoreBorderless := flag.Bool("ignore-borderless", true, "Exclude borderless fullscreen windows")
	flag.Parse()

	logger := logging.NewLogger()
	ctx := logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())

	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		logger.Error(ctx, "Invalid environment configuration", err)
		os.Exit(1)
	}

	backend, err := desktop.NewNativeBackend()
	if err != nil {
		logger.Warn(ctx, "Native desktop unavailable, reporting defaults", "error", err.Error())
		backend = nil
	}
	scanner := desktop.NewEnvironmentScanner(backend, envConfig.ScannerConfig().BreakerSettings(), logger)
	policy := desktop.ObstaclePolicy{
		IgnoreMaximized:            *ignoreMaximized,
		IgnoreFullscreen:           *ignoreFullscreen,
		IgnoreBorderlessFullscreen: *ignoreBorderless,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		scan(ctx, logger, scanner, policy, n)
		if *count > 0 && n >= *count {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func scan(ctx context.Context, logger *logging.Logger, scanner *desktop.EnvironmentScanner, policy desktop.ObstaclePolicy, n int) {
	var none desktop.Handle
	screen := scanner.ScreenGeometry(none)
	obstacles := scanner.ObstacleRects(nil, policy)
	logger.Info(ctx, "Desktop scan",
		"scan", n,
		"screen", screen,
		"refresh_rate", scanner.RefreshRate(none),
		"obstacles", obstacles,
		"obstacle_count", len(obstacles),
		"breaker_state", scanner.State().String(),
	)
}
