package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"codeberg.org/rpytools/orphanclean/internal"
	"codeberg.org/rpytools/orphanclean/internal/backup"
	"codeberg.org/rpytools/orphanclean/internal/detect"
	"codeberg.org/rpytools/orphanclean/internal/journal"
	"codeberg.org/rpytools/orphanclean/internal/rpy"
)

// Recorder stores finished runs
type Recorder interface {
	Record(ctx context.Context, run journal.Run) error
}

// ProgressFunc is called once per processed file
type ProgressFunc func(done, total int, result FileResult)

// Processor runs cleanups
type Processor struct {
	stateDir string
	recorder Recorder
	progress ProgressFunc
	now      func() time.Time
}

// NewProcessor creates a processor keeping backups below stateDir
func NewProcessor(stateDir string) *Processor {
	return &Processor{
		stateDir: stateDir,
		now:      time.Now,
	}
}

// SetRecorder sets where finished runs are recorded
func (p *Processor) SetRecorder(r Recorder) {
	p.recorder = r
}

// SetProgress sets the per-file progress callback
func (p *Processor) SetProgress(fn ProgressFunc) {
	p.progress = fn
}

// Process rewrites the blocks named by opts.IDs in every script below opts.Root.
// Failing files are reported in the summary and do not stop the run. The
// returned error is set when the run could not happen at all, or together with
// the partial summary when ctx was cancelled mid-run.
func (p *Processor) Process(ctx context.Context, opts Options) (*Summary, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Language) == "" {
		return nil, ErrNoLanguage
	}
	if len(opts.IDs) == 0 {
		return nil, ErrNoIDs
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("project root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", root)
	}

	files, err := rpy.FindScripts(root)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:     internal.GenerateRunID(root),
		Root:      root,
		Language:  opts.Language,
		Mode:      mode,
		DryRun:    opts.DryRun,
		StartedAt: p.now(),
		Requested: opts.IDs,
	}
	if opts.Backup && !opts.DryRun && p.stateDir != "" {
		summary.BackupDir = backup.Dir(p.stateDir, summary.RunID)
	}

	log.Info().
		Str("run", summary.RunID).
		Str("root", root).
		Str("language", opts.Language).
		Str("mode", string(mode)).
		Int("ids", len(opts.IDs)).
		Int("files", len(files)).
		Bool("dry_run", opts.DryRun).
		Msg("Starting cleanup")

	rewrite := rpy.CommentBlocks
	if mode == ModeRemove {
		rewrite = rpy.RemoveBlocks
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	keys := rpy.NewKeySet(opts.IDs)
	results := make([]FileResult, len(files))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := p.processFile(path, root, summary, keys, rewrite)
			results[i] = res

			mu.Lock()
			done++
			if p.progress != nil {
				p.progress(done, len(files), res)
			}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Files rewritten before the cancellation stay restorable
		summary.Files = finished(results)
		summary.FinishedAt = p.now()
		summarize(summary, keys)
		if summary.FilesChanged > 0 {
			p.record(ctx, summary)
		}

		log.Warn().
			Err(err).
			Str("run", summary.RunID).
			Int("files_changed", summary.FilesChanged).
			Int("files_skipped", len(files)-len(summary.Files)).
			Msg("Cleanup interrupted")
		return summary, err
	}

	summary.Files = results
	summary.FinishedAt = p.now()
	summarize(summary, keys)
	p.record(ctx, summary)

	log.Info().
		Str("run", summary.RunID).
		Int("blocks", summary.Changed).
		Int("files_changed", summary.FilesChanged).
		Int("failed", summary.Failed).
		Int("missing", len(summary.Missing)).
		Dur("took", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Cleanup finished")

	return summary, nil
}

// record stores a non-dry run in the journal. The run is recorded even when
// ctx is already cancelled.
func (p *Processor) record(ctx context.Context, summary *Summary) {
	if p.recorder == nil || summary.DryRun {
		return
	}
	if err := p.recorder.Record(context.WithoutCancel(ctx), summary.journalRun()); err != nil {
		log.Warn().Err(err).Str("run", summary.RunID).Msg("Failed to record run")
	}
}

// finished returns the results of the files that were processed, in path order
func finished(results []FileResult) []FileResult {
	var out []FileResult
	for _, res := range results {
		if res.Path != "" {
			out = append(out, res)
		}
	}
	return out
}

// processFile rewrites one file. Failures are returned in the result and
// only logged at debug level, callers report them.
func (p *Processor) processFile(path, root string, summary *Summary, keys rpy.KeySet, rewrite rpy.RewriteFunc) FileResult {
	res := FileResult{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("failed to read file: %w", err)
		log.Debug().Err(err).Str("file", path).Msg("Error processing file")
		return res
	}

	text := string(content)
	if !strings.Contains(text, "translate") {
		return res
	}

	cleaned, ids := rewrite(text, summary.Language, keys)
	if len(ids) == 0 {
		return res
	}

	res.IDs = ids
	res.Status = StatusChanged

	if summary.DryRun {
		log.Info().Str("file", path).Strs("ids", ids).Msg("Would process file")
		return res
	}

	if summary.BackupDir != "" {
		if err := backup.Snapshot(summary.BackupDir, root, []string{path}); err != nil {
			res.Status = StatusFailed
			res.Err = err
			log.Debug().Err(err).Str("file", path).Msg("Error backing up file")
			return res
		}
	}

	if err := writeFileAtomic(path, []byte(cleaned)); err != nil {
		res.Status = StatusFailed
		res.Err = err
		log.Debug().Err(err).Str("file", path).Msg("Error processing file")
		return res
	}

	log.Info().Str("file", path).Int("blocks", len(ids)).Msg("File processed")
	return res
}

// summarize fills the counters and the missing IDs of a summary
func summarize(s *Summary, keys rpy.KeySet) {
	found := make(map[string]bool)
	for _, f := range s.Files {
		switch f.Status {
		case StatusChanged:
			s.FilesChanged++
			s.Changed += len(f.IDs)
			for _, id := range f.IDs {
				found[id] = true
			}
		case StatusFailed:
			s.Failed++
		}
	}

	for _, id := range s.Requested {
		if keys.Has(id) && !found[id] {
			s.Missing = append(s.Missing, id)
		}
	}
}

// journalRun converts the summary into a journal entry
func (s *Summary) journalRun() journal.Run {
	return journal.Run{
		ID:           s.RunID,
		StartedAt:    s.StartedAt,
		Root:         s.Root,
		Language:     s.Language,
		Mode:         string(s.Mode),
		Requested:    len(s.Requested),
		Changed:      s.Changed,
		FilesChanged: s.FilesChanged,
		Failed:       s.Failed,
		BackupDir:    s.BackupDir,
	}
}

// writeFileAtomic replaces path through a temporary file in the same directory
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".orphanclean-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// Detect finds the orphaned blocks of language below root
func (p *Processor) Detect(ctx context.Context, root, language string) ([]detect.Orphan, error) {
	if strings.TrimSpace(language) == "" {
		return nil, ErrNoLanguage
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	orphans, err := detect.Run(ctx, absRoot, language)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	log.Info().Str("root", absRoot).Str("language", language).Int("orphans", len(orphans)).Msg("Detection finished")
	return orphans, nil
}
