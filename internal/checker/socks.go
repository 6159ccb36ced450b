package checker

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"

	"github.com/Amkushu999/Proxych/internal/model"
)

// probeSOCKS5 checks whether the endpoint also speaks SOCKS5 by
// tunneling the plain-HTTP echo request through it. The result is
// informational: SOCKS support never feeds the overall status, which is
// defined over the HTTP and HTTPS probes only.
func probeSOCKS5(ctx context.Context, d model.Descriptor, opts Options) model.ProbeOutcome {
	out := model.ProbeOutcome{Scheme: "socks5"}

	pctx, cancel := context.WithTimeout(ctx, opts.ProbeTimeout)
	defer cancel()

	var auth *proxy.Auth
	if d.HasAuth() {
		auth = &proxy.Auth{User: d.Username, Password: d.Password}
	}

	start := time.Now()
	dialer, err := proxy.SOCKS5("tcp", d.HostPort(), auth, &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	})
	if err != nil {
		out.Elapsed = time.Since(start)
		out.Kind = model.KindUpstreamConnectionReset
		out.Detail = "socks5 dialer: " + err.Error()
		return out
	}

	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}

	client := &http.Client{
		Transport: &http.Transport{
			DialContext:           dialContext,
			TLSHandshakeTimeout:   opts.ProbeTimeout,
			ResponseHeaderTimeout: opts.ProbeTimeout,
			DisableKeepAlives:     true,
		},
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, opts.HTTPEchoURL, nil)
	if err != nil {
		out.Elapsed = time.Since(start)
		out.Kind = model.KindMalformedResponse
		out.Detail = err.Error()
		return out
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := client.Do(req)
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Kind = classifyRequestError(err, schemeHTTP)
		out.Detail = err.Error()
		return out
	}
	defer resp.Body.Close()

	out.StatusCode = resp.StatusCode
	out.Headers = flattenHeader(resp.Header)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Kind = model.KindUnexpectedStatus
		out.Detail = resp.Status
		return out
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEchoBody))
	if err != nil {
		out.Kind = classifyRequestError(err, schemeHTTP)
		out.Detail = "read echo body: " + err.Error()
		return out
	}
	var echo echoResponse
	if err := json.Unmarshal(body, &echo); err != nil {
		out.Kind = model.KindMalformedResponse
		out.Detail = "decode echo body: " + err.Error()
		return out
	}

	out.Succeeded = true
	out.ReportedIP = firstIPToken(echo.Origin)
	out.EchoHeaders = echo.Headers
	return out
}
