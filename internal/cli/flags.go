package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/eshaffer321/hledger-clear/internal/domain/resolver"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/config"
)

// DefaultOutput is where the updated ledger goes without -output or -in-place.
const DefaultOutput = "updated.ledger"

// ReconcileFlags are the flags of the reconcile command. Defaults come from
// the loaded config, so flags override file and environment settings.
type ReconcileFlags struct {
	Ledger    string
	CSV       string
	Output    string
	InPlace   bool
	DryRun    bool
	Policy    string
	Account   string
	Window    int
	Delimiter string
	Invert    bool
	Strict    bool

	windowSet bool
}

// ParseReconcileFlags parses the reconcile command's arguments.
func ParseReconcileFlags(args []string, cfg *config.Config, output io.Writer) (*ReconcileFlags, error) {
	flags := &ReconcileFlags{}
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.Ledger, "ledger", cfg.Ledger.File, "Ledger journal to update (default $LEDGER_FILE)")
	fs.StringVar(&flags.CSV, "csv", "", "Bank statement CSV")
	fs.StringVar(&flags.Output, "output", DefaultOutput, "Where to write the updated ledger")
	fs.BoolVar(&flags.InPlace, "in-place", false, "Overwrite the ledger file")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Print a diff instead of writing")
	fs.StringVar(&flags.Policy, "policy", cfg.Resolve.Policy, "Ambiguity policy: interactive, skip, first or abort")
	fs.StringVar(&flags.Account, "account", cfg.Ledger.Account, "Account whose postings are matched (default last posting)")
	fs.IntVar(&flags.Window, "window", cfg.Matching.DateWindowDays, "Date window in days")
	fs.StringVar(&flags.Delimiter, "delimiter", cfg.Statement.Delimiter, "CSV field delimiter")
	fs.BoolVar(&flags.Invert, "invert", cfg.Statement.InvertSign, "Negate statement amounts")
	fs.BoolVar(&flags.Strict, "strict", cfg.Statement.Strict, "Fail on malformed statement rows")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "window" {
			flags.windowSet = true
		}
	})

	if err := flags.validate(); err != nil {
		return nil, err
	}
	return flags, nil
}

func (f *ReconcileFlags) validate() error {
	if f.Ledger == "" {
		return errors.New("no ledger file: pass -ledger or set LEDGER_FILE")
	}
	if f.CSV == "" {
		return errors.New("-csv is required")
	}
	if f.Window < 0 {
		return fmt.Errorf("-window must not be negative, got %d", f.Window)
	}
	if f.Policy != resolver.PolicyInteractive {
		if _, ok := resolver.ChooserForPolicy(f.Policy); !ok {
			return fmt.Errorf("unknown policy %q", f.Policy)
		}
	}
	return nil
}

// OutputPath returns the file the updated ledger is written to.
func (f *ReconcileFlags) OutputPath() string {
	if f.InPlace {
		return f.Ledger
	}
	if f.Output == "" {
		return DefaultOutput
	}
	return f.Output
}

// Apply copies the flag values onto cfg.
func (f *ReconcileFlags) Apply(cfg *config.Config) {
	cfg.Ledger.File = f.Ledger
	cfg.Ledger.Account = f.Account
	cfg.Resolve.Policy = f.Policy
	cfg.Statement.Delimiter = f.Delimiter
	cfg.Statement.InvertSign = f.Invert
	cfg.Statement.Strict = f.Strict
	cfg.Matching.DateWindowDays = f.Window
}

// RunsFlags holds the flags of the runs command.
type RunsFlags struct {
	Limit int
	Run   string // id or key; shows the rows of one run
}

// ParseRunsFlags parses the runs command's arguments.
func ParseRunsFlags(args []string, output io.Writer) (*RunsFlags, error) {
	flags := &RunsFlags{}
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.Limit, "limit", 20, "Number of runs to list")
	fs.StringVar(&flags.Run, "run", "", "Show the rows of one run (id or key)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port int
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string, cfg *config.Config, output io.Writer) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.Port, "port", cfg.API.Port, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}
