package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPFetcher_ReturnsBodyAndSendsAcceptHTML(t *testing.T) {
	var accept string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.WriteHeader(200)
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer s.Close()

	f := NewHTTPFetcher(2*time.Second, 0, "")
	body, err := f.Fetch(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if body != "<html><body>ok</body></html>" {
		t.Fatalf("unexpected body %q", body)
	}
	if accept != "text/html" {
		t.Fatalf("want Accept text/html, got %q", accept)
	}
}

func TestHTTPFetcher_Status500IsStatusError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	f := NewHTTPFetcher(2*time.Second, 0, "")
	_, err := f.Fetch(context.Background(), s.URL)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want *StatusError, got %v", err)
	}
	if se.StatusCode != 500 {
		t.Fatalf("want status 500, got %d", se.StatusCode)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("want message to mention 500, got %q", err.Error())
	}
}

func TestHTTPFetcher_BodyIsCappedAndTruncationLogged(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/exact" {
			w.Write([]byte(strings.Repeat("a", 10)))
			return
		}
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer s.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	f := NewHTTPFetcher(2*time.Second, 10, "")
	f.Logger = zap.New(core)

	body, err := f.Fetch(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(body) != 10 {
		t.Fatalf("want 10 bytes, got %d", len(body))
	}
	entries := logs.FilterMessage("fetch_truncated").All()
	if len(entries) != 1 {
		t.Fatalf("want 1 fetch_truncated warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["max_bytes"] != int64(10) {
		t.Fatalf("unexpected fields: %v", entries[0].ContextMap())
	}

	// A body exactly at the cap is not truncated.
	body, err = f.Fetch(context.Background(), s.URL+"/exact")
	if err != nil || len(body) != 10 {
		t.Fatalf("exact: body=%d err=%v", len(body), err)
	}
	if got := logs.FilterMessage("fetch_truncated").Len(); got != 1 {
		t.Fatalf("want no new warning at the cap, got %d total", got)
	}
}

func TestHTTPFetcher_TimeoutAnnotatesDNSClass(t *testing.T) {
	// Server sleeps longer than client timeout
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	f := NewHTTPFetcher(50*time.Millisecond, 0, "")
	f.Resolve = func(ctx context.Context, host string) DNSStatus {
		return DNSStatus{Domain: host, Class: ClassServfail}
	}
	_, err := f.Fetch(context.Background(), s.URL)
	if err == nil {
		t.Fatalf("want failure due to timeout")
	}
	if !strings.Contains(err.Error(), "dns="+ClassServfail) {
		t.Fatalf("want dns annotation, got %q", err.Error())
	}
}

func TestCheckDNS_InvalidAndLiteral(t *testing.T) {
	if got := CheckDNS(context.Background(), "").Class; got != ClassInvalidName {
		t.Fatalf("empty: got %s", got)
	}
	if got := CheckDNS(context.Background(), "https://x").Class; got != ClassInvalidName {
		t.Fatalf("url: got %s", got)
	}
	if got := CheckDNS(context.Background(), "127.0.0.1").Class; got != ClassResolves {
		t.Fatalf("literal: got %s", got)
	}
}

type fakeResolver struct {
	ips     []net.IP
	ipErr   error
	ns      []*net.NS
	nsCalls int
}

func (f *fakeResolver) LookupIP(context.Context, string, string) ([]net.IP, error) {
	return f.ips, f.ipErr
}

func (f *fakeResolver) LookupNS(context.Context, string) ([]*net.NS, error) {
	f.nsCalls++
	if len(f.ns) == 0 {
		return nil, &net.DNSError{Err: "no such host", IsNotFound: true}
	}
	return f.ns, nil
}

func withResolver(t *testing.T, r resolver) {
	t.Helper()
	prev := lookup
	lookup = r
	t.Cleanup(func() { lookup = prev })
}

func TestCheckDNS_ResolvesWithSingleLookup(t *testing.T) {
	r := &fakeResolver{ips: []net.IP{net.ParseIP("93.184.216.34")}}
	withResolver(t, r)

	if got := CheckDNS(context.Background(), "example.com").Class; got != ClassResolves {
		t.Fatalf("want %s, got %s", ClassResolves, got)
	}
	if r.nsCalls != 0 {
		t.Fatalf("want no NS lookup for a resolving host, got %d", r.nsCalls)
	}
}

func TestCheckDNS_NotFoundClasses(t *testing.T) {
	notFound := &net.DNSError{Err: "no such host", Name: "x", IsNotFound: true}

	withResolver(t, &fakeResolver{ipErr: notFound, ns: []*net.NS{{Host: "ns1.example."}}})
	if got := CheckDNS(context.Background(), "www.example.com").Class; got != ClassNoARecord {
		t.Fatalf("zone exists: want %s, got %s", ClassNoARecord, got)
	}

	withResolver(t, &fakeResolver{ipErr: notFound})
	if got := CheckDNS(context.Background(), "nope.invalid").Class; got != ClassNXDomain {
		t.Fatalf("no zone: want %s, got %s", ClassNXDomain, got)
	}

	withResolver(t, &fakeResolver{ipErr: &net.DNSError{Err: "timeout", IsTimeout: true}})
	if got := CheckDNS(context.Background(), "slow.example").Class; got != ClassServfail {
		t.Fatalf("timeout: want %s, got %s", ClassServfail, got)
	}
}
