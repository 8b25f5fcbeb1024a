package cli

import (
	"fmt"
	"strconv"

	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

// RunRuns prints recent runs, or the rows of one run when flags.Run is set.
func RunRuns(repo storage.Repository, flags *RunsFlags, env Env) error {
	if flags.Run == "" {
		runs, err := repo.ListRuns(flags.Limit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		PrintRuns(env.Stdout, runs)
		return nil
	}

	run, err := lookupRun(repo, flags.Run)
	if err != nil {
		return err
	}
	rows, err := repo.ListOutcomes(run.ID)
	if err != nil {
		return fmt.Errorf("list rows of run %d: %w", run.ID, err)
	}
	PrintRunRows(env.Stdout, run, rows)
	return nil
}

func lookupRun(repo storage.Repository, ref string) (*storage.Run, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return repo.GetRun(id)
	}
	return repo.GetRunByKey(ref)
}
