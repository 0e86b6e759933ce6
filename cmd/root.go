package cmd

import (
	"fmt"
	"os"
)

// Version is the routerdash release, overridden at link time.
var Version = "0.1.0"

// Execute dispatches to the subcommand named by args[0]. With no arguments
// the API server is started.
func Execute(args []string) {
	if len(args) == 0 {
		serveCmd(nil)
		return
	}

	switch args[0] {
	case "serve":
		serveCmd(args[1:])
	case "watch":
		watchCmd(args[1:])
	case "identity":
		identityCmd(args[1:])
	case "discover":
		discoverCmd(args[1:])
	case "config":
		configCmd(args[1:])
	case "themes":
		themesCmd()
	case "version":
		fmt.Printf("routerdash v%s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`routerdash - router interface bandwidth dashboard

Usage:
  routerdash [serve] [--config PATH]   Run the HTTP API (default)
  routerdash watch [--config PATH]     Live interface rates in the terminal
  routerdash discover [--identity NAME] [HOST]
                                       List a router's interfaces
  routerdash identity <cmd>            Manage SNMP identities
  routerdash config <cmd>              Manage configuration
  routerdash themes                    List available themes
  routerdash version                   Show version
  routerdash help                      Show this help

Identity Commands:
  routerdash identity list             List all identities
  routerdash identity add              Add a new identity (interactive)
  routerdash identity remove NAME      Remove an identity
  routerdash identity test NAME HOST   Test SNMP connectivity

Config Commands:
  routerdash config path               Show the config file path
  routerdash config show               Print the effective configuration
  routerdash config router HOST [IDENTITY]
                                       Set the monitored router
  routerdash config theme NAME         Set the watch theme

The identity store password is read from ROUTERDASH_MASTER_KEY or prompted.`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
