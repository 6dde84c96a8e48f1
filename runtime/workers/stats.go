package workers

import (
	"chat-hub/contract"
	"chat-hub/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats periodically logs hub counters together with the process's own
// memory and CPU usage, and refreshes the live-connection gauge.
type Stats struct {
	log      *slog.Logger
	registry contract.IRegistry
	stats    *observability.HubStats
	interval time.Duration
}

func NewStats(log *slog.Logger, registry contract.IRegistry, stats *observability.HubStats, interval time.Duration) *Stats {
	return &Stats{log: log, registry: registry, stats: stats, interval: interval}
}

func (w *Stats) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.stats.SetLiveConnections(len(w.registry.AllSinks()))
			snap := w.stats.Snapshot()

			rss, cpu := selfStats(p)
			w.log.Info("Hub stats",
				"live_connections", snap.LiveConnections,
				"messages_routed", snap.MessagesRouted,
				"deliveries", snap.Deliveries,
				"delivery_failures", snap.DeliveryFailures,
				"offline_targets", snap.OfflineTargets,
				"presence_transitions", snap.PresenceTransitions,
				"seen_acks", snap.SeenAcks,
				"events_broadcast", snap.EventsBroadcast,
				"dropped_events", snap.DroppedEvents,
				"rss_mb", rss/1024/1024,
				"cpu_percent", cpu,
			)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64) {
	var rss uint64
	if memInfo, err := p.MemoryInfo(); err == nil {
		rss = memInfo.RSS
	}
	cpu, _ := p.CPUPercent()
	return rss, cpu
}
