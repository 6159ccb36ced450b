package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/Amkushu999/Proxych/internal/model"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"

	// Browser-ish agent; some proxies reject obviously synthetic clients.
	probeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/112.0.0.0 Safari/537.36"

	// Echo bodies are tiny JSON documents; anything bigger is not the
	// format we asked for.
	maxEchoBody = 64 << 10
)

// echoResponse matches the fields we care about from the echo endpoint.
// "origin" is httpbin's shape, "query" covers ip-api style services.
type echoResponse struct {
	Origin  string            `json:"origin"`
	Query   string            `json:"query"`
	Headers map[string]string `json:"headers"`
}

// probeScheme issues exactly one GET through the proxy to the echo
// endpoint for the given scheme. It never retries: transient failures
// are surfaced, not masked. The two schemes are probed with separate
// clients so a failure in one cannot block the other.
func probeScheme(ctx context.Context, d model.Descriptor, scheme string, opts Options) model.ProbeOutcome {
	out := model.ProbeOutcome{Scheme: scheme}

	target := opts.HTTPEchoURL
	if scheme == schemeHTTPS {
		target = opts.HTTPSEchoURL
	}

	pctx, cancel := context.WithTimeout(ctx, opts.ProbeTimeout)
	defer cancel()

	client := newProxyClient(d, opts.ProbeTimeout)
	defer client.CloseIdleConnections()

	start := time.Now()
	req, err := http.NewRequestWithContext(pctx, http.MethodGet, target, nil)
	if err != nil {
		out.Elapsed = time.Since(start)
		out.Kind = model.KindMalformedResponse
		out.Detail = fmt.Sprintf("build request for %s: %v", target, err)
		return out
	}
	req.Header.Set("User-Agent", probeUserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := client.Do(req)
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Kind = classifyRequestError(err, scheme)
		out.Detail = err.Error()
		return out
	}
	defer resp.Body.Close()

	out.StatusCode = resp.StatusCode
	out.Headers = flattenHeader(resp.Header)

	if resp.StatusCode == http.StatusProxyAuthRequired {
		out.Kind = model.KindProxyAuthRequired
		out.Detail = resp.Status
		return out
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Kind = model.KindUnexpectedStatus
		out.Detail = resp.Status
		return out
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEchoBody))
	if err != nil {
		out.Kind = classifyRequestError(err, scheme)
		out.Detail = "read echo body: " + err.Error()
		return out
	}

	var echo echoResponse
	if err := json.Unmarshal(body, &echo); err != nil {
		out.Kind = model.KindMalformedResponse
		out.Detail = "decode echo body: " + err.Error()
		return out
	}
	ip := echo.Origin
	if ip == "" {
		ip = echo.Query
	}
	if ip == "" {
		out.Kind = model.KindMalformedResponse
		out.Detail = "echo body carries no origin address"
		return out
	}

	out.Succeeded = true
	out.Kind = ""
	out.Detail = ""
	out.ReportedIP = firstIPToken(ip)
	out.EchoHeaders = echo.Headers
	return out
}

// newProxyClient builds an *http.Client that routes requests through the
// descriptor's endpoint as an HTTP(S) proxy. Plain-scheme requests are
// forwarded, https goes over CONNECT. Credentials ride in the proxy URL
// so the transport emits Proxy-Authorization on both paths.
func newProxyClient(d model.Descriptor, timeout time.Duration) *http.Client {
	u := &url.URL{
		Scheme: "http",
		Host:   d.HostPort(),
	}
	if d.HasAuth() {
		u.User = url.UserPassword(d.Username, d.Password)
	}

	transport := &http.Transport{
		Proxy: http.ProxyURL(u),
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		// One request per probe; pooling connections to throwaway
		// proxies only causes trouble.
		DisableKeepAlives: true,
	}

	return &http.Client{Transport: transport}
}

// classifyRequestError maps a transport-level failure onto the protocol
// probe taxonomy.
func classifyRequestError(err error, scheme string) model.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.KindUpstreamTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return model.KindUpstreamTimeout
	}

	if scheme == schemeHTTPS && isTLSError(err) {
		return model.KindTLSHandshakeFailed
	}

	// A CONNECT proxy that wants credentials surfaces as a transport
	// error carrying the 407 status line.
	msg := err.Error()
	if strings.Contains(msg, "407") || strings.Contains(msg, "Proxy Authentication Required") {
		return model.KindProxyAuthRequired
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return model.KindUpstreamConnectionReset
	}

	if strings.Contains(msg, "malformed") {
		return model.KindMalformedResponse
	}
	return model.KindUpstreamConnectionReset
}

func isTLSError(err error) bool {
	var (
		certErr *tls.CertificateVerificationError
		recErr  tls.RecordHeaderError
		hostErr x509.HostnameError
		authErr x509.UnknownAuthorityError
		certInv x509.CertificateInvalidError
	)
	if errors.As(err, &certErr) || errors.As(err, &recErr) ||
		errors.As(err, &hostErr) || errors.As(err, &authErr) ||
		errors.As(err, &certInv) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "handshake failure") ||
		strings.Contains(msg, "x509:")
}

// flattenHeader keeps the first value per header name, which is all the
// report needs.
func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// firstIPToken extracts the first address from an "a, b" style origin
// list, which some echo services report when multiple hops are visible.
func firstIPToken(origin string) string {
	if origin == "" {
		return ""
	}
	parts := strings.Split(origin, ",")
	return strings.TrimSpace(parts[0])
}
