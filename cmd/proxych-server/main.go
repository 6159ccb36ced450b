package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Amkushu999/Proxych/internal/config"
	"github.com/Amkushu999/Proxych/internal/geo"
	"github.com/Amkushu999/Proxych/internal/httpapi"
	"github.com/Amkushu999/Proxych/internal/logging"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg := config.FromEnv()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
	}

	log, err := logging.NewFileLogger(cfg.LogDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := cfg.Options()
	if cfg.MMDBCityPath != "" || cfg.MMDBASNPath != "" {
		mmdb, err := geo.OpenMMDB(cfg.MMDBCityPath, cfg.MMDBASNPath)
		if err != nil {
			log.Warn("geo lookup disabled", zap.Error(err))
		} else {
			opts.Resolver = geo.Chain{mmdb, geo.NewIPAPI()}
			defer mmdb.Close()
		}
	}

	server := httpapi.NewServer(log, opts)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("proxych server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
