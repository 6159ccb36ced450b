package checker

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Amkushu999/Proxych/internal/model"
)

// descriptorFromAddr builds a descriptor pointing at a local test
// listener, so the test server plays the role of the proxy.
func descriptorFromAddr(t *testing.T, addr string) model.Descriptor {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return model.Descriptor{Host: host, Port: port}
}

// echoingProxy is an httptest server that behaves like a forwarding
// HTTP proxy in front of an httpbin-style echo service: it answers any
// absolute-URI GET with the origin address and the headers it saw.
func echoingProxy(t *testing.T, extraHeaders map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen := map[string]string{
			"Host":       r.Host,
			"User-Agent": r.Header.Get("User-Agent"),
		}
		for k, v := range extraHeaders {
			seen[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"origin":  "203.0.113.7",
			"headers": seen,
		})
	}))
}

func testOptions(echoURL string) Options {
	return Options{
		ConnectTimeout:  2 * time.Second,
		ProbeTimeout:    2 * time.Second,
		OverallDeadline: 10 * time.Second,
		HTTPEchoURL:     echoURL,
		HTTPSEchoURL:    echoURL,
	}
}

func TestProbeScheme_Success(t *testing.T) {
	srv := echoingProxy(t, map[string]string{"Via": "1.1 testproxy"})
	defer srv.Close()

	d := descriptorFromAddr(t, srv.Listener.Addr().String())
	out := probeScheme(context.Background(), d, schemeHTTP, testOptions("http://echo.test/get").withDefaults())

	if !out.Succeeded {
		t.Fatalf("want success, got %+v", out)
	}
	if out.Kind != "" {
		t.Fatalf("successful outcome must not carry an error kind: %+v", out)
	}
	if out.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", out.StatusCode)
	}
	if out.ReportedIP != "203.0.113.7" {
		t.Fatalf("want reported ip, got %q", out.ReportedIP)
	}
	if out.EchoHeaders["Via"] != "1.1 testproxy" {
		t.Fatalf("echo headers missing: %#v", out.EchoHeaders)
	}
	if out.Scheme != "http" {
		t.Fatalf("want scheme http, got %q", out.Scheme)
	}
}

func TestProbeScheme_MultiHopOriginKeepsFirstToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"origin": "203.0.113.7, 10.0.0.1"})
	}))
	defer srv.Close()

	d := descriptorFromAddr(t, srv.Listener.Addr().String())
	out := probeScheme(context.Background(), d, schemeHTTP, testOptions("http://echo.test/get").withDefaults())
	if !out.Succeeded || out.ReportedIP != "203.0.113.7" {
		t.Fatalf("want first origin token, got %+v", out)
	}
}

func TestProbeScheme_SendsProxyAuth(t *testing.T) {
	gotAuth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Proxy-Authorization")
		json.NewEncoder(w).Encode(map[string]any{"origin": "203.0.113.7"})
	}))
	defer srv.Close()

	d := descriptorFromAddr(t, srv.Listener.Addr().String())
	d.Username, d.Password = "user", "pass"

	out := probeScheme(context.Background(), d, schemeHTTP, testOptions("http://echo.test/get").withDefaults())
	if !out.Succeeded {
		t.Fatalf("want success, got %+v", out)
	}
	auth := <-gotAuth
	if auth == "" {
		t.Fatalf("proxy never saw credentials")
	}
}

func TestProbeScheme_ProxyAuthRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Proxy-Authenticate", `Basic realm="proxy"`)
		w.WriteHeader(http.StatusProxyAuthRequired)
	}))
	defer srv.Close()

	d := descriptorFromAddr(t, srv.Listener.Addr().String())
	out := probeScheme(context.Background(), d, schemeHTTP, testOptions("http://echo.test/get").withDefaults())
	if out.Succeeded {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Kind != model.KindProxyAuthRequired {
		t.Fatalf("want proxy_auth_required, got %q (%s)", out.Kind, out.Detail)
	}
}

func TestProbeScheme_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream sad", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := descriptorFromAddr(t, srv.Listener.Addr().String())
	out := probeScheme(context.Background(), d, schemeHTTP, testOptions("http://echo.test/get").withDefaults())
	if out.Kind != model.KindUnexpectedStatus {
		t.Fatalf("want unexpected_status, got %q (%s)", out.Kind, out.Detail)
	}
	if out.StatusCode != http.StatusBadGateway {
		t.Fatalf("want status recorded, got %d", out.StatusCode)
	}
}

func TestProbeScheme_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>definitely not json</html>")
	}))
	defer srv.Close()

	d := descriptorFromAddr(t, srv.Listener.Addr().String())
	out := probeScheme(context.Background(), d, schemeHTTP, testOptions("http://echo.test/get").withDefaults())
	if out.Kind != model.KindMalformedResponse {
		t.Fatalf("want malformed_response, got %q (%s)", out.Kind, out.Detail)
	}
}

func TestProbeScheme_EmptyOriginIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"headers":{}}`)
	}))
	defer srv.Close()

	d := descriptorFromAddr(t, srv.Listener.Addr().String())
	out := probeScheme(context.Background(), d, schemeHTTP, testOptions("http://echo.test/get").withDefaults())
	if out.Kind != model.KindMalformedResponse {
		t.Fatalf("want malformed_response, got %q (%s)", out.Kind, out.Detail)
	}
}

func TestProbeScheme_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	d := descriptorFromAddr(t, srv.Listener.Addr().String())
	opts := testOptions("http://echo.test/get").withDefaults()
	opts.ProbeTimeout = 100 * time.Millisecond

	start := time.Now()
	out := probeScheme(context.Background(), d, schemeHTTP, opts)
	if out.Succeeded {
		t.Fatalf("want timeout failure, got %+v", out)
	}
	if out.Kind != model.KindUpstreamTimeout {
		t.Fatalf("want upstream_timeout, got %q (%s)", out.Kind, out.Detail)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("probe ignored its timeout")
	}
}

func TestProbeScheme_TLSHandshakeFailed(t *testing.T) {
	// A self-signed TLS upstream behind a CONNECT tunnel: the client
	// rejects the certificate during the handshake.
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"origin": "203.0.113.7"})
	}))
	defer upstream.Close()

	tunnel := connectTunnelProxy(t, upstream.Listener.Addr().String())
	defer tunnel.Close()

	d := descriptorFromAddr(t, tunnel.Listener.Addr().String())
	out := probeScheme(context.Background(), d, schemeHTTPS, testOptions("https://echo.test/get").withDefaults())
	if out.Succeeded {
		t.Fatalf("want handshake failure, got %+v", out)
	}
	if out.Kind != model.KindTLSHandshakeFailed {
		t.Fatalf("want tls_handshake_failed, got %q (%s)", out.Kind, out.Detail)
	}
}

// connectTunnelProxy implements just enough of an HTTP CONNECT proxy to
// tunnel bytes to a fixed upstream.
func connectTunnelProxy(t *testing.T, upstreamAddr string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodConnect {
			http.Error(w, "CONNECT only", http.StatusMethodNotAllowed)
			return
		}
		upstream, err := net.Dial("tcp", upstreamAddr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		hj, ok := w.(http.Hijacker)
		if !ok {
			upstream.Close()
			http.Error(w, "no hijack", http.StatusInternalServerError)
			return
		}
		client, _, err := hj.Hijack()
		if err != nil {
			upstream.Close()
			return
		}
		client.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n"))
		go func() {
			defer upstream.Close()
			defer client.Close()
			io.Copy(upstream, client)
		}()
		io.Copy(client, upstream)
	}))
}
