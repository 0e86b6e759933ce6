package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/rhyred/routerdash/internal/engine"
	"github.com/rhyred/routerdash/tui/components"
)

func discoverCmd(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	cfgPath := configFlag(fs)
	identityName := fs.String("identity", "", "identity name (default: router identity from config)")
	port := fs.Int("port", 0, "SNMP port (default: router port from config)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: routerdash discover [--identity NAME] [--port PORT] [HOST]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*cfgPath)
	if fs.NArg() > 0 {
		cfg.Router.Host = fs.Arg(0)
	}
	if *identityName != "" {
		cfg.Router.Identity = *identityName
	}
	if *port != 0 {
		cfg.Router.Port = *port
	}

	fmt.Fprintf(os.Stderr, "Discovering interfaces on %s...\n", cfg.Router.Host)
	sess := dialRouter(cfg)
	defer sess.Close()

	interfaces, err := engine.DiscoverInterfaces(sess)
	if err != nil {
		fatalf("discover interfaces: %v", err)
	}
	if len(interfaces) == 0 {
		fmt.Println("No interfaces found.")
		return
	}

	fmt.Printf("Found %d interfaces on %s:\n\n", len(interfaces), cfg.Router.Host)
	fmt.Printf("%-6s  %-8s  %-28s  %-36s  %8s  %s\n", "Index", "Status", "Name", "Description", "Speed", "Alias")
	for _, iface := range interfaces {
		speed := ""
		if iface.Speed > 0 {
			speed = components.FormatSpeed(iface.Speed)
		}
		fmt.Printf("%-6d  %-8s  %-28s  %-36s  %8s  %s\n",
			iface.IfIndex, iface.Status,
			clip(iface.Name, 28), clip(iface.Description, 36),
			speed, iface.Alias)
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
