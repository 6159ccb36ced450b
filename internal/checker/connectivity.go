package checker

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/Amkushu999/Proxych/internal/model"
)

// probeConnect attempts a raw TCP connection to the descriptor's
// endpoint. It sends no protocol bytes; the payload of the outcome is
// empty and only the reachability verdict and elapsed time matter.
func probeConnect(ctx context.Context, d model.Descriptor, timeout time.Duration) model.ProbeOutcome {
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var dialer net.Dialer
	conn, err := dialer.DialContext(dctx, "tcp", d.HostPort())
	elapsed := time.Since(start)

	if err != nil {
		return model.ProbeOutcome{
			Elapsed: elapsed,
			Kind:    classifyDialError(err),
			Detail:  err.Error(),
		}
	}
	conn.Close()

	return model.ProbeOutcome{
		Succeeded: true,
		Elapsed:   elapsed,
	}
}

// classifyDialError maps a dial failure onto the connectivity taxonomy.
// Order matters: DNS failures also satisfy net.Error, so they are
// checked first.
func classifyDialError(err error) model.ErrorKind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.KindResolutionFailed
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return model.KindConnectionRefused
	}
	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return model.KindUnreachableHost
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.KindConnectTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return model.KindConnectTimeout
	}
	return model.KindUnreachableHost
}
