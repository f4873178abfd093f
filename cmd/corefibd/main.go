// Command corefibd hosts the FIB core as a standalone process: a
// software-simulated HAL, an in-memory LPM route table, and the
// HTTP/JSON orchestration API, so route installs, withdrawals and
// liveness events can be driven end to end (via fibctl or any HTTP
// client) on a machine with no forwarding ASIC.
package main

import (
	"flag"
	"fmt"
	"os"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `corefibd - standalone FIB core daemon

Usage:
  corefibd <command> [flags]

Commands:
  start    Start the daemon
  version  Show version information

Flags (start):
  --config string    Path to config file (optional; defaults apply without one)

Examples:
  # Start with built-in defaults (API on :8080 when enabled in config)
  corefibd start

  # Start with a config file
  corefibd start --config /etc/corefib/config.yaml

  # Override options the config file sets with environment variables
  COREFIB_LOGGING_LEVEL=debug corefibd start --config /etc/corefib/config.yaml

Environment Variables:
  COREFIB_<SECTION>_<KEY> overrides an option that the --config file sets.
  Without --config, environment variables are not read.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "start":
		startFlags := flag.NewFlagSet("start", flag.ExitOnError)
		configFile := startFlags.String("config", "", "Path to config file")
		if err := startFlags.Parse(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "parsing flags: %v\n", err)
			os.Exit(1)
		}
		if err := runStart(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "corefibd: %v\n", err)
			os.Exit(1)
		}
	case "help", "--help", "-h":
		fmt.Print(usage)
	case "version", "--version", "-v":
		fmt.Printf("corefibd %s (commit: %s, built: %s)\n", version, commit, date)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}
