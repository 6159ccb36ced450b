package analytics

import (
	"time"

	"github.com/Amkushu999/Proxych/internal/model"
)

// Compute aggregates summary stats over a finished batch. Aggregate
// counters live here, in the caller's territory; the engine itself is
// call-scoped and stateless.
func Compute(reports []model.Report, totalDuration time.Duration) model.BatchStats {
	stats := model.BatchStats{
		TotalProxies:          len(reports),
		TotalProcessingTimeMs: totalDuration.Milliseconds(),
		Anonymity:             make(map[string]int),
	}

	seen := make(map[string]struct{})

	var connectSum int64
	var connectCount int64

	for _, r := range reports {
		seen[r.Proxy.HostPort()] = struct{}{}

		switch r.Overall {
		case model.StatusAlive:
			stats.AliveProxies++
		case model.StatusPartiallyAlive:
			stats.PartiallyAlive++
		case model.StatusDead:
			stats.DeadProxies++
		}

		if r.Connectivity.Succeeded && r.Connectivity.Elapsed > 0 {
			connectSum += r.Connectivity.ElapsedMs()
			connectCount++
		}

		if r.Anonymity != "" && r.Anonymity != model.AnonymityUnknown {
			stats.Anonymity[string(r.Anonymity)]++
		}
	}

	stats.UniqueProxies = len(seen)

	if connectCount > 0 {
		stats.AvgConnectMs = float64(connectSum) / float64(connectCount)
	}
	if stats.TotalProxies > 0 {
		usable := stats.AliveProxies + stats.PartiallyAlive - deadPartials(reports)
		stats.SuccessRatePct = (float64(usable) / float64(stats.TotalProxies)) * 100.0
	}

	return stats
}

// deadPartials counts reachable proxies where no protocol worked at
// all; they are "partially alive" in status terms but not usable.
func deadPartials(reports []model.Report) int {
	n := 0
	for _, r := range reports {
		if r.Overall == model.StatusPartiallyAlive && !r.Alive() {
			n++
		}
	}
	return n
}
