package checker

import (
	"strings"

	"github.com/Amkushu999/Proxych/internal/model"
)

// Classify reduces the two protocol outcomes to one anonymity level.
// The HTTPS-derived classification wins when both schemes succeeded,
// since it is the stronger guarantee; with no successful probe the
// level is unknown.
//
// This is a classification, not a guarantee: the headers are reported
// by the echo endpoint and a malicious proxy can spoof them. We document
// the limitation instead of attempting deeper verification.
func Classify(httpOut, httpsOut model.ProbeOutcome, opts Options) model.AnonymityLevel {
	opts = opts.withDefaults()

	switch {
	case httpsOut.Succeeded:
		return classifyOne(httpsOut, opts)
	case httpOut.Succeeded:
		return classifyOne(httpOut, opts)
	default:
		return model.AnonymityUnknown
	}
}

// classifyOne applies the standard proxy-anonymity convention to a
// single successful probe:
//
//   - a forwarding header reveals the client  -> transparent
//   - only a proxy-identifying header present -> anonymous
//   - neither header present                  -> elite
func classifyOne(o model.ProbeOutcome, opts Options) model.AnonymityLevel {
	forward := firstHeaderValue(o.EchoHeaders, opts.ForwardHeaders)
	via := firstHeaderValue(o.EchoHeaders, opts.ViaHeaders)

	switch {
	case forward == "" && via == "":
		return model.AnonymityElite
	case forward == "" || !revealsClient(forward, opts.ClientIP):
		return model.AnonymityAnonymous
	default:
		return model.AnonymityTransparent
	}
}

// revealsClient reports whether a forwarding header value exposes the
// real client address. Without a known client IP we assume the worst:
// any forwarded address counts as a leak.
func revealsClient(forward, clientIP string) bool {
	if clientIP == "" {
		return true
	}
	return strings.Contains(forward, clientIP)
}

// firstHeaderValue does a case-insensitive lookup of the first matching
// header name; echo services differ on canonicalization.
func firstHeaderValue(headers map[string]string, names []string) string {
	if len(headers) == 0 {
		return ""
	}
	for _, name := range names {
		for k, v := range headers {
			if strings.EqualFold(k, name) && v != "" {
				return v
			}
		}
	}
	return ""
}
