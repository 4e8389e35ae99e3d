package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/lspmux/internal/admin"
	"github.com/danmuck/lspmux/internal/config"
	"github.com/danmuck/lspmux/internal/instance"
	"github.com/danmuck/lspmux/internal/logging"
	"github.com/danmuck/lspmux/internal/observability"
	"github.com/danmuck/lspmux/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lspmux: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath(), "path to lspmux.toml")
	listenAddr := flag.String("listen", "", "override listen address")
	adminAddr := flag.String("admin", "", "override admin address")
	serverPath := flag.String("server", "", "override language server binary")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("lspmux")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return err
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *adminAddr != "" {
		cfg.AdminAddr = *adminAddr
	}
	if *serverPath != "" {
		cfg.ServerPath = *serverPath
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger.Info().
		Str("listen_addr", cfg.ListenAddr).
		Str("server_path", cfg.ServerPath).
		Str("admin_addr", cfg.AdminAddr).
		Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := instance.NewRegistry()
	relaySrv := server.New(cfg, registry, logger)

	adminErr := make(chan error, 1)
	if strings.TrimSpace(cfg.AdminAddr) != "" {
		adminSrv := admin.New(registry, cfg.CorsOrigins, logger)
		go func() {
			adminErr <- adminSrv.Run(cfg.AdminAddr)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- relaySrv.Run(ctx)
	}()

	select {
	case err := <-serveErr:
		return err
	case err := <-adminErr:
		if err != nil {
			return err
		}
		return <-serveErr
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/lspmux/lspmux.toml"
	}
	return ""
}
