// Package checker implements the proxy verification engine: a pure
// function from a proxy descriptor to a structured verification report.
// Each call is independent and call-scoped; the engine keeps no state
// across verifications, which makes concurrent checks safe by
// construction.
package checker

import (
	"context"
	"sync"
	"time"

	"github.com/Amkushu999/Proxych/internal/model"
)

// Verify runs one full verification of a proxy descriptor.
//
// Stages: the connectivity probe runs first and is awaited; the HTTP
// and HTTPS protocol probes then run concurrently, each bounded by its
// own timeout and fully isolated from the other. Classification and
// aggregation happen only after both probes completed. The whole call
// is bounded by opts.OverallDeadline: when it elapses, still-running
// probes are cancelled and classified as timeouts, and the report is
// assembled from whatever outcomes are available.
//
// Verify is total: it always produces a report, never an error. Every
// failure lives in a probe outcome with a classified kind.
func Verify(ctx context.Context, d model.Descriptor, opts Options) model.Report {
	opts = opts.withDefaults()

	vctx, cancel := context.WithTimeout(ctx, opts.OverallDeadline)
	defer cancel()

	report := model.Report{
		Proxy:     d.Redacted(),
		CheckedAt: time.Now().UTC(),
	}

	report.Connectivity = probeConnect(vctx, d, opts.ConnectTimeout)

	// Protocol probes run even when connectivity failed: a closed
	// endpoint makes them fail cleanly on their own timeouts, and the
	// per-scheme error kinds are still worth reporting.
	var (
		wg       sync.WaitGroup
		httpOut  model.ProbeOutcome
		httpsOut model.ProbeOutcome
		socksOut model.ProbeOutcome
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		httpOut = probeScheme(vctx, d, schemeHTTP, opts)
	}()
	go func() {
		defer wg.Done()
		httpsOut = probeScheme(vctx, d, schemeHTTPS, opts)
	}()
	if opts.ProbeSOCKS {
		wg.Add(1)
		go func() {
			defer wg.Done()
			socksOut = probeSOCKS5(vctx, d, opts)
		}()
	}
	wg.Wait()

	report.HTTP = httpOut
	report.HTTPS = httpsOut
	if opts.ProbeSOCKS {
		report.Socks5 = &socksOut
	}

	report.Anonymity = Classify(httpOut, httpsOut, opts)
	report.Overall = overallStatus(report.Connectivity, httpOut, httpsOut)

	if opts.Resolver != nil {
		report.Geo = lookupGeo(opts.Resolver, httpsOut, httpOut)
	}

	return report
}

// overallStatus applies the success policy: dead when the endpoint was
// unreachable, alive when it forwarded both schemes, partially alive
// when it was reachable but at most one scheme worked.
func overallStatus(conn, httpOut, httpsOut model.ProbeOutcome) model.OverallStatus {
	switch {
	case !conn.Succeeded:
		return model.StatusDead
	case httpOut.Succeeded && httpsOut.Succeeded:
		return model.StatusAlive
	default:
		return model.StatusPartiallyAlive
	}
}

// lookupGeo resolves the exit IP from the strongest successful probe.
// Geo enrichment is best-effort; a resolver failure leaves the field nil.
func lookupGeo(r model.IPResolver, outcomes ...model.ProbeOutcome) *model.GeoInfo {
	for _, o := range outcomes {
		if !o.Succeeded || o.ReportedIP == "" {
			continue
		}
		info, err := r.Lookup(o.ReportedIP)
		if err != nil {
			return nil
		}
		return &info
	}
	return nil
}
