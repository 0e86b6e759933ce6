package cmd

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rhyred/routerdash/internal/api"
)

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := configFlag(fs)
	listen := fs.String("listen", "", "listen address (overrides config)")
	offline := fs.Bool("offline", false, "do not poll a router; accept samples over HTTP only")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*cfgPath)
	if *listen != "" {
		cfg.Listen = *listen
	}
	logger := newLogger(cfg)

	srvCfg := api.Config{
		Addr:           cfg.Listen,
		StreamInterval: cfg.StreamInterval,
		Logger:         logger,
	}
	srvCfg.Estimator = newEstimator(cfg, logger)
	if !*offline {
		poller := newPoller(cfg, dialRouter(cfg), srvCfg.Estimator, logger)
		defer poller.Close()
		srvCfg.Poller = poller
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("routerdash starting", "version", Version, "listen", cfg.Listen, "router", cfg.Router.Host, "offline", *offline)
	if err := api.NewServer(srvCfg).Run(ctx); err != nil {
		logger.Error("server failed", "err", err)
		stop()
		os.Exit(1)
	}
	logger.Info("routerdash stopped")
}
