package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/logging"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	log, err := logging.NewJSON(os.Stderr, cfg.LogLevel, "image-server")
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if st, err := os.Stat(cfg.Dir); err != nil || !st.IsDir() {
		fmt.Fprintf(os.Stderr, "-dir %s is not a directory\n", cfg.Dir)
		os.Exit(2)
	}

	srv, err := newServer(cfg, newServerMetrics(), log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, srv, cfg.ShutdownTimeout, log); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

// newServer builds the file server with /metrics. A configured certificate enables TLS.
func newServer(cfg Config, m *serverMetrics, log logrus.FieldLogger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.handler())
	mux.Handle("/", instrument(http.FileServer(http.Dir(cfg.Dir)), m, log))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.CertPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load certificate: %w", err)
		}
		srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}
	return srv, nil
}

// serve runs srv until ctx is done, then drains in-flight requests for up to grace.
func serve(ctx context.Context, srv *http.Server, grace time.Duration, log logrus.FieldLogger) error {
	scheme := "http"
	if srv.TLSConfig != nil {
		scheme = "https"
	}
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "scheme": scheme}).Info("serving")
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		errc <- err
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
