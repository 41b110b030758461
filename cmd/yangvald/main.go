// Command yangvald serves YANG/XML validation over HTTP.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jacoelho/yang/internal/config"
	"github.com/jacoelho/yang/internal/logging"
	"github.com/jacoelho/yang/internal/metrics"
	"github.com/jacoelho/yang/internal/schemacache"
	"github.com/jacoelho/yang/internal/server"
)

func main() {
	app := kingpin.New("yangvald", "HTTP service validating XML documents against YANG modules.")
	configPath := app.Flag("config.file", "Path to a YAML configuration file.").Envar("YANGVAL_CONFIG_FILE").String()
	listenAddr := app.Flag("server.listen-addr", "Address to listen on; overrides the configuration.").String()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := run(*configPath, *listenAddr); err != nil {
		fmt.Fprintf(os.Stderr, "yangvald: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, listenAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	logging.Init(cfg.Log)
	logger := logging.WithComponent("yangvald")

	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	cache := schemacache.Default()
	defer cache.Close()
	if cfg.Cache.Enabled {
		metrics.RegisterCacheEntries(reg, cache.Len)
	}

	srv := server.New(server.Config{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Options:      opts,
	}, m, reg, logging.WithComponent("server"))

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.ListenAddr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("addr", cfg.Server.ListenAddr).
		Bool("cache", cfg.Cache.Enabled).
		Str("unknownNodes", cfg.Validation.UnknownNodes).
		Msg("starting")
	if err := srv.Serve(ctx, ln, cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	stats := cache.Stats()
	logger.Info().
		Int("entries", stats.Entries).
		Uint64("hits", stats.Hits).
		Uint64("misses", stats.Misses).
		Msg("schema cache closed")
	return nil
}
