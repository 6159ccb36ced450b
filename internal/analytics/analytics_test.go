package analytics

import (
	"testing"
	"time"

	"github.com/Amkushu999/Proxych/internal/model"
)

func report(host string, overall model.OverallStatus, anonymity model.AnonymityLevel, connectMs int64, httpOK bool) model.Report {
	return model.Report{
		Proxy: model.Descriptor{Host: host, Port: 8080},
		Connectivity: model.ProbeOutcome{
			Succeeded: overall != model.StatusDead,
			Elapsed:   time.Duration(connectMs) * time.Millisecond,
		},
		HTTP:      model.ProbeOutcome{Succeeded: httpOK},
		Overall:   overall,
		Anonymity: anonymity,
	}
}

func TestCompute(t *testing.T) {
	reports := []model.Report{
		report("1.1.1.1", model.StatusAlive, model.AnonymityElite, 100, true),
		report("2.2.2.2", model.StatusPartiallyAlive, model.AnonymityAnonymous, 300, true),
		report("3.3.3.3", model.StatusPartiallyAlive, model.AnonymityUnknown, 200, false),
		report("4.4.4.4", model.StatusDead, model.AnonymityUnknown, 50, false),
		report("1.1.1.1", model.StatusAlive, model.AnonymityElite, 100, true), // duplicate endpoint
	}

	stats := Compute(reports, 2*time.Second)

	if stats.TotalProxies != 5 {
		t.Fatalf("total: got %d", stats.TotalProxies)
	}
	if stats.UniqueProxies != 4 {
		t.Fatalf("unique: got %d", stats.UniqueProxies)
	}
	if stats.AliveProxies != 2 || stats.PartiallyAlive != 2 || stats.DeadProxies != 1 {
		t.Fatalf("status counts wrong: %+v", stats)
	}
	// Usable = alive(2) + partial-with-a-working-scheme(1) out of 5.
	if stats.SuccessRatePct != 60.0 {
		t.Fatalf("success rate: got %v", stats.SuccessRatePct)
	}
	// Connect latency averages only over reachable proxies: (100+300+200+100)/4.
	if stats.AvgConnectMs != 175.0 {
		t.Fatalf("avg connect: got %v", stats.AvgConnectMs)
	}
	if stats.Anonymity["elite"] != 2 || stats.Anonymity["anonymous"] != 1 {
		t.Fatalf("anonymity distribution wrong: %#v", stats.Anonymity)
	}
	if stats.TotalProcessingTimeMs != 2000 {
		t.Fatalf("wall time: got %d", stats.TotalProcessingTimeMs)
	}
}

func TestCompute_Empty(t *testing.T) {
	stats := Compute(nil, 0)
	if stats.TotalProxies != 0 || stats.SuccessRatePct != 0 || stats.AvgConnectMs != 0 {
		t.Fatalf("zero batch should produce zero stats: %+v", stats)
	}
}
