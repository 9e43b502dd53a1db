package main

import (
	"context"
	"crypto/tls"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/audiohls/ingest-server/internal/config"
	"github.com/audiohls/ingest-server/internal/httpapi"
	"github.com/audiohls/ingest-server/internal/idgen"
	"github.com/audiohls/ingest-server/internal/lock"
	"github.com/audiohls/ingest-server/internal/logging"
	"github.com/audiohls/ingest-server/internal/metrics"
	"github.com/audiohls/ingest-server/internal/storage"
)

func main() {
	var (
		port        = flag.Int("port", config.DefaultPort, "TCP port to listen on")
		maxUploadMB = flag.Int64("max-upload-mib", config.DefaultMaxUploadMiB, "per-upload body size cap, in MiB")
		storageRoot = flag.String("storage-root", config.DefaultStorageRoot, "permanent storage root")
		tempRoot    = flag.String("temp-root", config.DefaultTempRoot, "staging root, must share a filesystem with storage-root")
		lockSocket  = flag.String("lock-socket", config.DefaultLockSocket, "single-instance guard socket path")
		certFile    = flag.String("tls-cert", config.DefaultCertFile, "TLS certificate PEM path")
		keyFile     = flag.String("tls-key", config.DefaultKeyFile, "TLS private key PEM path")
		logLevel    = flag.String("log-level", "info", "logrus level: debug, info, warn, error")
		logFormat   = flag.String("log-format", "text", "logrus formatter: text or json")
	)
	flag.Parse()

	log := logging.New(*logLevel, *logFormat)

	guard, err := lock.Acquire(*lockSocket)
	if err != nil {
		log.WithError(err).Fatal("server: failed to acquire single-instance lock")
	}
	defer guard.Release()

	layout, err := storage.New(*storageRoot, *tempRoot)
	if err != nil {
		log.WithError(err).Fatal("server: failed to initialize storage layout")
	}

	cfg := config.Default(
		config.WithPort(*port),
		config.WithMaxUploadMiB(*maxUploadMB),
		config.WithRoots(*storageRoot, *tempRoot),
		config.WithLockSocketPath(*lockSocket),
		config.WithTLSFiles(*certFile, *keyFile),
	)

	m := metrics.New()
	ids := idgen.NewUUIDGenerator()

	api := httpapi.New(cfg, layout, log, m, ids)

	srv := &http.Server{
		Addr:      ":" + strconv.Itoa(cfg.Port),
		Handler:   api.Router(),
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		// The reference server serves one request per accepted connection;
		// disabling keep-alives keeps that framing under net/http.
		ReadHeaderTimeout: 30 * time.Second,
	}
	srv.SetKeepAlivesEnabled(false)

	go func() {
		log.WithField("addr", srv.Addr).Info("server: listening")
		if err := srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server: listener failed")
		}
	}()

	waitForShutdown(log, srv, guard)
}

func waitForShutdown(log *logrus.Logger, srv *http.Server, guard *lock.Guard) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-sigCh

	log.Info("server: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("server: shutdown did not complete cleanly")
	}
	guard.Release()
}
