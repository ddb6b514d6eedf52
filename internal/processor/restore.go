package processor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"codeberg.org/rpytools/orphanclean/internal/backup"
	"codeberg.org/rpytools/orphanclean/internal/journal"
)

// RunGetter looks up recorded runs
type RunGetter interface {
	Get(ctx context.Context, id string) (journal.Run, error)
}

// Restore copies the backup of a recorded run back into its project.
// It returns the run and the number of restored files.
func Restore(ctx context.Context, runs RunGetter, runID string) (journal.Run, int, error) {
	run, err := runs.Get(ctx, runID)
	if err != nil {
		return journal.Run{}, 0, err
	}

	if run.BackupDir == "" {
		return run, 0, fmt.Errorf("run %s was made without a backup", runID)
	}

	restored, err := backup.Restore(run.BackupDir, run.Root)
	if err != nil {
		return run, restored, fmt.Errorf("failed to restore run %s: %w", runID, err)
	}

	log.Info().Str("run", runID).Str("root", run.Root).Int("files", restored).Msg("Backup restored")
	return run, restored, nil
}
