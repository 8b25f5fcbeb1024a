package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/eshaffer321/hledger-clear/internal/cli"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/config"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/logging"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

// CLI represents the main CLI application
type CLI struct {
	configFile string
	verbose    bool
}

func main() {
	app := &CLI{}

	// Global flags
	flag.StringVar(&app.configFile, "config", "", "Configuration file path")
	flag.BoolVar(&app.verbose, "verbose", false, "Enable verbose logging")
	flag.Usage = printUsage
	flag.Parse()

	// Get subcommand
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	subcommand := args[0]
	subArgs := args[1:]

	// Load configuration
	cfg := loadConfig(app.configFile)
	if app.verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	var err error
	switch subcommand {
	case "reconcile":
		err = handleReconcileCommand(subArgs, cfg)
	case "runs":
		err = handleRunsCommand(subArgs, cfg)
	case "serve":
		err = handleServeCommand(subArgs, cfg)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", subcommand)
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "hledger-clear: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "hledger-clear: mark ledger transactions cleared from a bank statement")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  hledger-clear [-config file] [-verbose] <command> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  reconcile   Match a statement CSV against the ledger and mark matches cleared")
	fmt.Fprintln(os.Stderr, "  runs        Show reconciliation history")
	fmt.Fprintln(os.Stderr, "  serve       Start the HTTP API")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Global Options:")
	fmt.Fprintln(os.Stderr, "  -config string      Configuration file path")
	fmt.Fprintln(os.Stderr, "  -verbose            Enable verbose logging")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'hledger-clear <command> -h' for command options.")
}

func loadConfig(configFile string) *config.Config {
	if configFile == "" {
		// Try to find config file
		for _, candidate := range []string{"config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				configFile = candidate
				break
			}
		}
	}

	if configFile == "" {
		return config.LoadFromEnv()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hledger-clear: load config %s: %v\n", configFile, err)
		os.Exit(1)
	}
	return cfg
}

func handleReconcileCommand(args []string, cfg *config.Config) error {
	flags, err := cli.ParseReconcileFlags(args, cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "reconcile")
	logger.Debug("starting reconcile",
		slog.String("ledger", flags.Ledger),
		slog.String("csv", flags.CSV),
		slog.String("policy", flags.Policy))

	return cli.RunReconcile(ctx, cfg, flags, cli.StdEnv(), logger)
}

func handleRunsCommand(args []string, cfg *config.Config) error {
	flags, err := cli.ParseRunsFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return cli.RunRuns(store, flags, cli.StdEnv())
}

func handleServeCommand(args []string, cfg *config.Config) error {
	flags, err := cli.ParseServeFlags(args, cfg, os.Stderr)
	if err != nil {
		return err
	}
	return cli.RunServe(cfg, flags)
}
