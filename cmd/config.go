package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/rhyred/routerdash/internal/config"
	"github.com/rhyred/routerdash/tui/styles"
)

const configUsage = "Usage: routerdash config <path|show|router|theme>"

func configCmd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, configUsage)
		os.Exit(1)
	}

	switch args[0] {
	case "path":
		fmt.Println(configPath())
	case "show":
		configShow()
	case "router":
		if len(args) < 2 {
			fatalf("usage: routerdash config router HOST [IDENTITY]")
		}
		configSetRouter(args[1], args[2:])
	case "theme":
		if len(args) < 2 {
			fatalf("usage: routerdash config theme NAME")
		}
		configSetTheme(args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, configUsage)
		os.Exit(1)
	}
}

func configPath() string {
	path, err := config.GetConfigPath()
	if err != nil {
		fatalf("%v", err)
	}
	return path
}

func configShow() {
	cfg := loadConfig("")
	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		fatalf("%v", err)
	}
}

func configSetRouter(host string, rest []string) {
	cfg := loadConfig("")
	cfg.Router.Host = host
	if len(rest) > 0 {
		if _, err := openStore().Get(rest[0]); err != nil {
			fatalf("%v", err)
		}
		cfg.Router.Identity = rest[0]
	}
	saveConfig(cfg)
	fmt.Printf("Router set to %s (identity %q).\n", cfg.Router.Host, cfg.Router.Identity)
}

func configSetTheme(name string) {
	if styles.GetThemeByName(name) == nil {
		fatalf("unknown theme %q; run 'routerdash themes' to list them", name)
	}
	cfg := loadConfig("")
	cfg.Theme = name
	saveConfig(cfg)
	fmt.Printf("Theme set to %q.\n", name)
}

func themesCmd() {
	for _, name := range styles.ListThemes() {
		fmt.Println(name)
	}
}

func saveConfig(cfg *config.Config) {
	if err := config.EnsureDirs(); err != nil {
		fatalf("create config directory: %v", err)
	}
	if err := config.SaveConfig(cfg, configPath()); err != nil {
		fatalf("save config: %v", err)
	}
}
