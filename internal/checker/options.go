package checker

import (
	"time"

	"github.com/Amkushu999/Proxych/internal/model"
)

// Default echo endpoints. httpbin reports back the origin IP and the
// headers it received, which is what the anonymity classifier needs.
// Both are configurable because a third-party endpoint is an external
// dependency, not a constant of the design.
const (
	DefaultHTTPEchoURL  = "http://httpbin.org/get"
	DefaultHTTPSEchoURL = "https://httpbin.org/get"
)

const (
	DefaultConnectTimeout  = 5 * time.Second
	DefaultProbeTimeout    = 15 * time.Second
	DefaultOverallDeadline = 30 * time.Second
)

// Options configures a single verification. The zero value is usable:
// every unset field falls back to a default.
type Options struct {
	// ConnectTimeout bounds the raw TCP connectivity probe.
	ConnectTimeout time.Duration
	// ProbeTimeout bounds each protocol probe independently.
	ProbeTimeout time.Duration
	// OverallDeadline bounds the whole verification. When it elapses,
	// still-running probes are cancelled and recorded as timeouts.
	OverallDeadline time.Duration

	HTTPEchoURL  string
	HTTPSEchoURL string

	// ForwardHeaders are the echoed header names treated as carrying the
	// original client address; ViaHeaders the ones that merely announce
	// a proxy is in the path. Exact names are proxy convention, not
	// contract, so both sets are configurable.
	ForwardHeaders []string
	ViaHeaders     []string

	// ClientIP is the real outbound address of this machine, when known.
	// With it set, a forwarding header that does not actually reveal the
	// client is downgraded from transparent to anonymous.
	ClientIP string

	// ProbeSOCKS additionally checks whether the endpoint speaks SOCKS5.
	// The result is informational and never affects the overall status.
	ProbeSOCKS bool

	// Resolver, when non-nil, enriches the report with geo data for the
	// exit IP the echo endpoint observed.
	Resolver model.IPResolver
}

var (
	defaultForwardHeaders = []string{"X-Forwarded-For", "X-Real-Ip", "Forwarded"}
	defaultViaHeaders     = []string{"Via", "Proxy-Connection"}
)

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	if o.OverallDeadline <= 0 {
		o.OverallDeadline = DefaultOverallDeadline
	}
	if o.HTTPEchoURL == "" {
		o.HTTPEchoURL = DefaultHTTPEchoURL
	}
	if o.HTTPSEchoURL == "" {
		o.HTTPSEchoURL = DefaultHTTPSEchoURL
	}
	if len(o.ForwardHeaders) == 0 {
		o.ForwardHeaders = defaultForwardHeaders
	}
	if len(o.ViaHeaders) == 0 {
		o.ViaHeaders = defaultViaHeaders
	}
	return o
}
