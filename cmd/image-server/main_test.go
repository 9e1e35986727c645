package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"flag"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/logging"
)

func TestParseFlags_KeyDefaultsToCert(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("image-server", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-cert", "certs/server.pem", "-dir", "shots/"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.KeyPath != "certs/server.pem" || cfg.Dir != "shots" || cfg.Addr != ":8086" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestConfigValidate_KeyWithoutCert(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.KeyPath = "server.key"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestServer_ServesFilesAndMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "step-1.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var logs bytes.Buffer
	log, err := logging.NewJSON(&logs, "info", "image-server")
	if err != nil {
		t.Fatalf("NewJSON: %v", err)
	}
	cfg := defaultConfig()
	cfg.Dir = dir
	m := newServerMetrics()
	srv, err := newServer(cfg, m, log)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	body := get(t, ts.Client(), ts.URL+"/step-1.png", http.StatusOK)
	if body != "png-bytes" {
		t.Fatalf("body=%q", body)
	}
	get(t, ts.Client(), ts.URL+"/missing.png", http.StatusNotFound)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("200", "GET")); got != 1 {
		t.Fatalf("200 count=%v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("404", "GET")); got != 1 {
		t.Fatalf("404 count=%v", got)
	}

	exposition := get(t, ts.Client(), ts.URL+"/metrics", http.StatusOK)
	for _, want := range []string{
		`browse_o_bot_image_requests_total{code="200",method="GET"} 1`,
		"browse_o_bot_image_request_duration_seconds_count",
	} {
		if !strings.Contains(exposition, want) {
			t.Fatalf("metrics missing %q:\n%s", want, exposition)
		}
	}

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines=%d: %s", len(lines), logs.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log json: %v", err)
	}
	if entry["service"] != "image-server" || entry["path"] != "/step-1.png" || entry["message"] != "request" {
		t.Fatalf("entry=%v", entry)
	}
	if entry["status"].(float64) != 200 || entry["bytes"].(float64) != 9 {
		t.Fatalf("entry=%v", entry)
	}
}

func TestNewServer_TLS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pemPath := filepath.Join(dir, "server.pem")
	writeSelfSigned(t, pemPath)

	log, _ := logging.NewJSON(io.Discard, "info", "image-server")
	cfg := defaultConfig()
	cfg.Dir = dir
	cfg.CertPath = pemPath
	cfg.KeyPath = pemPath
	srv, err := newServer(cfg, newServerMetrics(), log)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	if srv.TLSConfig == nil || len(srv.TLSConfig.Certificates) != 1 {
		t.Fatalf("TLS not configured")
	}

	ts := httptest.NewUnstartedServer(srv.Handler)
	ts.TLS = srv.TLSConfig
	ts.StartTLS()
	defer ts.Close()

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: insecureTLS()}}
	if body := get(t, client, ts.URL+"/server.pem", http.StatusOK); !strings.Contains(body, "CERTIFICATE") {
		t.Fatalf("body=%q", body)
	}

	cfg.CertPath = filepath.Join(dir, "absent.pem")
	cfg.KeyPath = cfg.CertPath
	if _, err := newServer(cfg, newServerMetrics(), log); err == nil {
		t.Fatalf("expected certificate error")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	log, _ := logging.NewJSON(io.Discard, "info", "image-server")
	cfg := defaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Dir = t.TempDir()
	srv, err := newServer(cfg, newServerMetrics(), log)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, time.Second, log) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func get(t *testing.T, c *http.Client, url string, wantStatus int) string {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status=%d want %d", url, resp.StatusCode, wantStatus)
	}
	return string(b)
}

// writeSelfSigned writes a combined certificate and key PEM to path.
func writeSelfSigned(t *testing.T, path string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("cert: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	var buf bytes.Buffer
	_ = pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: der})
	_ = pem.Encode(&buf, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write pem: %v", err)
	}
}

func insecureTLS() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed test certificate
}
