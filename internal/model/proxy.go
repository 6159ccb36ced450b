package model

import (
	"net"
	"strconv"
	"time"
)

// Descriptor is a parsed, validated proxy endpoint.
// It is created by the parser and treated as immutable afterwards:
// every probe receives it by value.
type Descriptor struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"-"`
	Password string `json:"-"`

	// Raw keeps the original input line for debugging. It may embed
	// credentials, so it is never serialized.
	Raw string `json:"-"`
}

// HostPort renders the endpoint as "host:port" suitable for dialing.
func (d Descriptor) HostPort() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// HasAuth reports whether the descriptor carries usable credentials.
func (d Descriptor) HasAuth() bool {
	return d.Username != "" || d.Password != ""
}

// Redacted returns a copy safe to hand to external consumers:
// credentials and the raw input line are blanked.
func (d Descriptor) Redacted() Descriptor {
	d.Username = ""
	d.Password = ""
	d.Raw = ""
	return d
}

// ErrorKind is the closed failure taxonomy. Each probe stage classifies
// every local failure into one of these; nothing is left generic.
type ErrorKind string

const (
	// Parser.
	KindMalformedDescriptor ErrorKind = "malformed_descriptor"

	// Connectivity probe.
	KindResolutionFailed  ErrorKind = "resolution_failed"
	KindConnectionRefused ErrorKind = "connection_refused"
	KindConnectTimeout    ErrorKind = "connect_timeout"
	KindUnreachableHost   ErrorKind = "unreachable_host"

	// Protocol probes.
	KindProxyAuthRequired       ErrorKind = "proxy_auth_required"
	KindTLSHandshakeFailed      ErrorKind = "tls_handshake_failed"
	KindUpstreamTimeout         ErrorKind = "upstream_timeout"
	KindUpstreamConnectionReset ErrorKind = "upstream_connection_reset"
	KindUnexpectedStatus        ErrorKind = "unexpected_status"
	KindMalformedResponse       ErrorKind = "malformed_response"
)

// ProbeOutcome is the result of one bounded network attempt.
// Elapsed is always set, even on failure. Kind is set iff Succeeded is false.
// The protocol-probe payload fields (Scheme onwards) stay zero for the
// connectivity probe, which only establishes and tears down the connection.
type ProbeOutcome struct {
	Succeeded bool          `json:"succeeded"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Kind      ErrorKind     `json:"error_kind,omitempty"`
	Detail    string        `json:"detail,omitempty"`

	Scheme      string            `json:"scheme,omitempty"`
	StatusCode  int               `json:"status_code,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	ReportedIP  string            `json:"reported_ip,omitempty"`
	EchoHeaders map[string]string `json:"echo_headers,omitempty"`
}

// ElapsedMs is a display helper; the canonical field is Elapsed.
func (o ProbeOutcome) ElapsedMs() int64 {
	return o.Elapsed.Milliseconds()
}

// AnonymityLevel classifies how much of the original client's identity
// the proxy exposed to the destination.
type AnonymityLevel string

const (
	AnonymityUnknown     AnonymityLevel = "unknown"
	AnonymityTransparent AnonymityLevel = "transparent"
	AnonymityAnonymous   AnonymityLevel = "anonymous"
	AnonymityElite       AnonymityLevel = "elite"
)

// OverallStatus is the reduced verdict for a full verification.
type OverallStatus string

const (
	StatusAlive          OverallStatus = "alive"
	StatusDead           OverallStatus = "dead"
	StatusPartiallyAlive OverallStatus = "partially_alive"
)

// Report is the final immutable verification artifact. It is constructed
// once by the aggregator and never mutated afterwards; the caller owns it.
// Proxy is stored in redacted form so the report can be logged, rendered
// or serialized without leaking credentials.
type Report struct {
	Proxy        Descriptor     `json:"proxy"`
	Connectivity ProbeOutcome   `json:"connectivity"`
	HTTP         ProbeOutcome   `json:"http"`
	HTTPS        ProbeOutcome   `json:"https"`
	Socks5       *ProbeOutcome  `json:"socks5,omitempty"`
	Anonymity    AnonymityLevel `json:"anonymity"`
	Overall      OverallStatus  `json:"overall_status"`
	Geo          *GeoInfo       `json:"geo,omitempty"`
	CheckedAt    time.Time      `json:"checked_at"`
}

// Alive reports whether at least one protocol probe worked.
func (r Report) Alive() bool {
	return r.HTTP.Succeeded || r.HTTPS.Succeeded
}

// WorkingSchemes lists the schemes that succeeded, in a fixed order.
func (r Report) WorkingSchemes() []string {
	var out []string
	if r.HTTP.Succeeded {
		out = append(out, "http")
	}
	if r.HTTPS.Succeeded {
		out = append(out, "https")
	}
	if r.Socks5 != nil && r.Socks5.Succeeded {
		out = append(out, "socks5")
	}
	return out
}
