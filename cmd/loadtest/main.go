package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/loadtest"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions    = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 60 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions = flag.Int("sessions", defaultSessions, "Number of scripted chat sessions")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent sessions")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for skill selection")
		verbose  = flag.Bool("verbose", false, "Log every finished session")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	stats, err := loadtest.Run(ctx, &loadtest.Config{
		BaseURL:  *baseURL,
		Sessions: *sessions,
		Workers:  *workers,
		Timeout:  *timeout,
		Seed:     *seed,
		Verbose:  *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
	if stats.FlowsFailed > 0 {
		cancel()
		os.Exit(2)
	}
}
