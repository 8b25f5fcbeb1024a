package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/eshaffer321/hledger-clear/internal/application/reconcile"
	"github.com/eshaffer321/hledger-clear/internal/domain/resolver"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/config"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Env carries the process streams a command writes to.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StdEnv returns the process's standard streams.
func StdEnv() Env {
	return Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// RunReconcile reconciles one statement against the ledger and writes the
// result. Nothing is written unless the whole run succeeds.
func RunReconcile(ctx context.Context, cfg *config.Config, flags *ReconcileFlags, env Env, logger *slog.Logger) error {
	flags.Apply(cfg)

	opts, err := BuildOptions(cfg)
	if err != nil {
		return err
	}
	if flags.windowSet {
		opts.Matcher.DateWindowDays = flags.Window
	}
	opts.DryRun = flags.DryRun
	opts.Chooser = chooserFor(flags.Policy, env, logger)

	out := flags.OutputPath()
	opts.Commit = func(updated string) error {
		if err := writeFileAtomic(out, []byte(updated)); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		return nil
	}

	ledgerText, err := os.ReadFile(flags.Ledger)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	statementData, err := os.ReadFile(flags.CSV)
	if err != nil {
		return fmt.Errorf("read statement: %w", err)
	}

	var repo storage.Repository
	if store, err := storage.NewStorage(cfg.Storage.DatabasePath); err != nil {
		logger.Warn("run history unavailable", slog.String("path", cfg.Storage.DatabasePath), slog.Any("error", err))
	} else {
		defer func() { _ = store.Close() }()
		repo = store
	}

	PrintHeader(env.Stdout, flags.Ledger, flags.CSV, flags.DryRun)

	orchestrator := reconcile.NewOrchestrator(repo, logger)
	report, err := orchestrator.Run(ctx, reconcile.Input{
		LedgerText:    string(ledgerText),
		LedgerName:    flags.Ledger,
		StatementData: statementData,
		StatementName: flags.CSV,
	}, opts)
	if err != nil {
		return err
	}

	PrintSummary(env.Stdout, report)

	if flags.DryRun {
		if report.Diff == "" {
			fmt.Fprintln(env.Stdout, mutedStyle.Render("No changes."))
		} else {
			fmt.Fprint(env.Stdout, "\n"+report.Diff)
		}
		return nil
	}

	logger.Info("ledger written", slog.String("path", out), slog.Int("cleared", report.Summary.Cleared()))
	return nil
}

// BuildOptions converts config into orchestrator options with the chooser of
// the configured policy. The interactive policy maps to skip here; callers
// with a terminal install their own chooser.
func BuildOptions(cfg *config.Config) (reconcile.Options, error) {
	opts := reconcile.DefaultOptions()

	stmt, err := cfg.StatementParseConfig()
	if err != nil {
		return opts, err
	}
	m, err := cfg.MatcherConfig()
	if err != nil {
		return opts, err
	}

	opts.Account = cfg.Ledger.Account
	opts.Statement = stmt
	opts.Matcher = m
	opts.Policy = cfg.Resolve.Policy
	if chooser, ok := resolver.ChooserForPolicy(cfg.Resolve.Policy); ok {
		opts.Chooser = chooser
	}
	return opts, nil
}

func chooserFor(policy string, env Env, logger *slog.Logger) resolver.Chooser {
	if policy == resolver.PolicyInteractive {
		if !stdinIsTerminal() {
			logger.Warn("stdin is not a terminal, skipping ambiguous rows")
			return resolver.SkipAll
		}
		return NewTerminalChooser(env.Stdin, env.Stderr)
	}
	chooser, ok := resolver.ChooserForPolicy(policy)
	if !ok {
		return resolver.SkipAll
	}
	return chooser
}

// writeFileAtomic writes data to a temp file in path's directory and renames
// it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
