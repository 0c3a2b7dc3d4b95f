package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"collab-hub/runtime"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker periodically logs a health line: live sessions,
// connected participants, held locks, and the process's own RSS/CPU.
// Purely observational; it reads counters, never state.
type HeartbeatWorker struct {
	log      *slog.Logger
	registry *runtime.Registry
	locks    *runtime.LockTable
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, registry *runtime.Registry,
	locks *runtime.LockTable, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, registry: registry, locks: locks, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(self)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			sessions, connections := w.registry.Counts()
			w.log.Info("heartbeat",
				"sessions", sessions,
				"connections", connections,
				"locks", w.locks.Count(),
				"rss_bytes", rss,
				"cpu_percent", cpu,
			)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
