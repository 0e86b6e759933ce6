package cmd

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/rhyred/routerdash/internal/config"
	"github.com/rhyred/routerdash/internal/engine"
	"github.com/rhyred/routerdash/internal/identity"
	"github.com/rhyred/routerdash/internal/logging"
)

const masterKeyEnv = "ROUTERDASH_MASTER_KEY"

// configFlag registers the --config flag shared by every subcommand that
// reads the config file.
func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "config file (default: user config dir)")
}

// loadConfig loads path, or the default config file when path is empty.
func loadConfig(path string) *config.Config {
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			fatalf("%v", err)
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fatalf("load config %s: %v", path, err)
	}
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fatalf("%v", err)
	}
	return logger
}

// openStore opens the identity store. An empty password is tried first so
// stores created without one open silently.
func openStore() *identity.FileStore {
	storePath, err := config.GetIdentityStorePath()
	if err != nil {
		fatalf("%v", err)
	}
	if err := config.EnsureDirs(); err != nil {
		fatalf("create config directory: %v", err)
	}

	if store, err := identity.NewFileStore(storePath, nil); err == nil {
		return store
	}
	store, err := identity.NewFileStore(storePath, masterPassword())
	if err != nil {
		fatalf("open identity store: %v", err)
	}
	return store
}

func masterPassword() []byte {
	if key := os.Getenv(masterKeyEnv); key != "" {
		return []byte(key)
	}
	return readSecret("Master password: ")
}

func readSecret(prompt string) []byte {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatalf("read password: %v", err)
	}
	return secret
}

// dialRouter connects to the configured router with its configured identity.
func dialRouter(cfg *config.Config) *engine.Session {
	if cfg.Router.Identity == "" {
		fatalf("no router identity configured; run 'routerdash config router HOST IDENTITY'")
	}
	id, err := openStore().Get(cfg.Router.Identity)
	if err != nil {
		fatalf("%v", err)
	}
	sess, err := engine.Dial(cfg.Router.Host, cfg.Router.Port, id, cfg.Router.Timeout)
	if err != nil {
		fatalf("%v", err)
	}
	return sess
}

func newEstimator(cfg *config.Config, logger *slog.Logger) *engine.Estimator {
	est, err := engine.NewEstimator(engine.EstimatorOptions{
		MaxHistory:    cfg.Estimator.MaxHistory,
		Retention:     cfg.Estimator.Retention,
		MaxInterfaces: cfg.Estimator.MaxInterfaces,
		Logger:        logger,
	})
	if err != nil {
		fatalf("%v", err)
	}
	return est
}

func newPoller(cfg *config.Config, conn engine.Conn, est *engine.Estimator, logger *slog.Logger) *engine.Poller {
	return engine.NewPoller(conn, est, engine.PollerOptions{
		Router:      cfg.Router.Host,
		Interfaces:  cfg.Router.Interfaces,
		MinInterval: cfg.MinPollInterval,
		Logger:      logger,
	})
}
