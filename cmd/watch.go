package cmd

import (
	"flag"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rhyred/routerdash/internal/logging"
	"github.com/rhyred/routerdash/tui"
	"github.com/rhyred/routerdash/tui/styles"
)

func watchCmd(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfgPath := configFlag(fs)
	themeName := fs.String("theme", "", "theme name (overrides config)")
	logFile := fs.String("log", "", "write logs to this file instead of discarding them")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*cfgPath)
	if *themeName != "" {
		cfg.Theme = *themeName
	}

	// The alternate screen owns the terminal, so logs go to a file or nowhere.
	var w io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			fatalf("open log file: %v", err)
		}
		defer f.Close()
		w = f
	}
	logger, err := logging.New(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fatalf("%v", err)
	}

	est := newEstimator(cfg, logger)
	poller := newPoller(cfg, dialRouter(cfg), est, logger)
	defer poller.Close()

	model := tui.NewAppModel(poller, est.History, tui.Options{
		Router:       cfg.Router.Host,
		Version:      Version,
		Theme:        styles.Resolve(cfg.Theme),
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.Router.Timeout * 2,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fatalf("%v", err)
	}
}
