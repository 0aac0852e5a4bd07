package loadtest

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/types"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// PercentageMultiplier converts ratios into percentages.
const PercentageMultiplier = 100

// Run executes the complete load run and returns its statistics. Individual
// session failures are counted, not returned.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	log := logger.Get().Named("loadtest")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.Sessions),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	flows := generateFlows(config.Sessions, config.Seed)
	stats.FlowsGenerated = len(flows)

	var run, succeeded, failed, turns, entries, exhausted int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.Workers, 1))
	for _, flow := range flows {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			atomic.AddInt64(&run, 1)
			n, reply, err := runFlow(gctx, client, flow)
			atomic.AddInt64(&turns, int64(n))
			if err == nil {
				err = verifyReply(reply)
			}
			if err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn(gctx, "session failed", logger.String("userID", flow.UserID), logger.Error(err))
				return nil
			}
			atomic.AddInt64(&succeeded, 1)
			atomic.AddInt64(&entries, int64(len(reply.Search.Entries)))
			if reply.Search.Exhausted {
				atomic.AddInt64(&exhausted, 1)
			}
			if config.Verbose {
				log.Info(gctx, "session finished",
					logger.String("userID", flow.UserID),
					logger.Strings("skills", flow.Skills),
					logger.Int("entries", len(reply.Search.Entries)),
					logger.String("stopReason", reply.Search.StopReason))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.FlowsRun = int(run)
	stats.FlowsSucceeded = int(succeeded)
	stats.FlowsFailed = int(failed)
	stats.Turns = int(turns)
	stats.Entries = int(entries)
	stats.Exhausted = int(exhausted)
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats)
	return stats, ctx.Err()
}

// runFlow plays every message of flow and returns the number of turns sent
// and the last reply.
func runFlow(ctx context.Context, client *HTTPClient, flow Flow) (int, types.ChatReply, error) {
	var reply types.ChatReply
	for i, msg := range flow.Messages {
		var err error
		reply, err = client.Chat(ctx, flow.UserID, msg)
		if err != nil {
			return i, reply, fmt.Errorf("turn %d: %w", i+1, err)
		}
	}
	return len(flow.Messages), reply, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	status, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, sessionsPerSecond float64
	if stats.FlowsRun > 0 {
		successRate = float64(stats.FlowsSucceeded) / float64(stats.FlowsRun) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		sessionsPerSecond = float64(stats.FlowsRun) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("flowsGenerated", stats.FlowsGenerated),
		logger.Int("flowsRun", stats.FlowsRun),
		logger.Int("flowsSucceeded", stats.FlowsSucceeded),
		logger.Int("flowsFailed", stats.FlowsFailed),
		logger.Int("turns", stats.Turns),
		logger.Int("entries", stats.Entries),
		logger.Int("exhausted", stats.Exhausted),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("sessionsPerSecond", sessionsPerSecond))
}
