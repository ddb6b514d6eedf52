package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/rpytools/orphanclean/internal"
	"codeberg.org/rpytools/orphanclean/internal/detect"
	"codeberg.org/rpytools/orphanclean/internal/i18n"
	"codeberg.org/rpytools/orphanclean/internal/journal"
	"codeberg.org/rpytools/orphanclean/internal/lint"
	"codeberg.org/rpytools/orphanclean/internal/processor"
	"codeberg.org/rpytools/orphanclean/internal/report"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func localizer() *i18n.Localizer {
	return i18n.New(UILanguage())
}

func runCleanLint(cmd *cobra.Command, input string, flags *Flags) error {
	loc := localizer()

	output := flags.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(input), loc.IDFileName())
	}

	path, count, err := lint.CleanFile(input, output)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), green(loc.T("LintCleaned", map[string]any{"Count": count, "File": path})))
	return nil
}

func runProcess(cmd *cobra.Command, flags *Flags) error {
	loc := localizer()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, loc.T("ReadingIDs", nil))
	ids, err := lint.ReadIDs(flags.IDsFile)
	if err != nil {
		return fmt.Errorf("could not read cleaned lint file: %w", err)
	}

	return executeProcess(cmd, loc, processOptions(flags, ids), flags.Report)
}

// processOptions resolves the processing options from flags, config and environment
func processOptions(flags *Flags, ids []string) processor.Options {
	return processor.Options{
		Root:     viper.GetString("project.root"),
		Language: viper.GetString("project.language"),
		IDs:      ids,
		Mode:     processor.Mode(viper.GetString("process.mode")),
		DryRun:   flags.DryRun,
		Backup:   viper.GetBool("process.backup") && !flags.NoBackup,
		Workers:  viper.GetInt("process.workers"),
	}
}

func executeProcess(cmd *cobra.Command, loc *i18n.Localizer, opts processor.Options, reportPath string) error {
	out := cmd.OutOrStdout()

	p := processor.NewProcessor(StateDir())
	if !opts.DryRun {
		j, err := journal.Open(JournalPath())
		if err != nil {
			log.Warn().Err(err).Msg("Run journal unavailable, the run will not be recorded")
		} else {
			defer j.Close()
			p.SetRecorder(j)
		}
	}

	var bar *progressbar.ProgressBar
	p.SetProgress(func(done, total int, result processor.FileResult) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription(opts.Language),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionClearOnFinish(),
			)
		}
		bar.Set(done)
	})

	fmt.Fprintln(out, loc.T("Started", map[string]any{"Language": opts.Language}))

	summary, err := p.Process(cmd.Context(), opts)
	if err != nil {
		if summary != nil && summary.FilesChanged > 0 {
			fmt.Fprintf(out, "Run: %s\n", summary.RunID)
		}
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	printSummary(out, loc, summary)

	if reportPath != "" {
		if err := report.Write(reportPath, summary); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report: %s\n", reportPath)
	}

	return summary.Err()
}

func printSummary(w io.Writer, loc *i18n.Localizer, s *processor.Summary) {
	for _, f := range s.Files {
		switch f.Status {
		case processor.StatusChanged:
			fmt.Fprintln(w, loc.T("Processed", map[string]any{"File": relPath(s.Root, f.Path)}))
		case processor.StatusFailed:
			fmt.Fprintln(w, red(loc.T("ProcessError", map[string]any{"File": relPath(s.Root, f.Path), "Error": f.Err})))
		}
	}

	fmt.Fprintln(w, green(loc.N("BlocksHandled", s.Changed, nil)))

	if len(s.Missing) > 0 {
		fmt.Fprintln(w, yellow(loc.T("MissingIDs", map[string]any{"IDs": strings.Join(s.Missing, ", ")})))
	}
	if s.Failed > 0 {
		fmt.Fprintln(w, red(loc.T("FailedFiles", map[string]any{"Count": s.Failed})))
	}

	switch {
	case s.DryRun:
		fmt.Fprintln(w, yellow(loc.T("DryRunNotice", nil)))
	case s.BackupDir != "" && s.FilesChanged > 0:
		fmt.Fprintln(w, loc.T("BackupSaved", map[string]any{"Dir": s.BackupDir}))
	}

	if !s.DryRun && s.Failed == 0 && s.Mode == processor.ModeComment {
		fmt.Fprintln(w, loc.T("Completed", nil))
	}
	if !s.DryRun {
		fmt.Fprintf(w, "Run: %s\n", s.RunID)
	}
}

func runDetect(cmd *cobra.Command, flags *Flags) error {
	loc := localizer()
	out := cmd.OutOrStdout()

	opts := processOptions(flags, nil)

	p := processor.NewProcessor(StateDir())
	orphans, err := p.Detect(cmd.Context(), opts.Root, opts.Language)
	if err != nil {
		return err
	}

	root, _ := filepath.Abs(opts.Root)
	for _, o := range orphans {
		fmt.Fprintf(out, "%s:%d\t%s\n", relPath(root, o.File), o.Line, o.ID)
	}
	fmt.Fprintln(out, bold(loc.T("OrphansFound", map[string]any{"Count": len(orphans)})))

	if len(orphans) == 0 {
		return nil
	}

	output := flags.Output
	if output == "" {
		output = "orphans_" + internal.SanitizeFilename(opts.Language) + ".txt"
	}

	keys := detect.Keys(orphans)
	if err := lint.WriteIDs(output, keys); err != nil {
		return err
	}
	fmt.Fprintln(out, green(loc.T("LintCleaned", map[string]any{"Count": len(keys), "File": output})))

	if !flags.Apply {
		return nil
	}

	opts.IDs = keys
	return executeProcess(cmd, loc, opts, flags.Report)
}

func runHistory(cmd *cobra.Command, flags *Flags) error {
	j, err := journal.Open(JournalPath())
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.List(cmd.Context(), flags.Limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	fmt.Fprintln(out, bold(fmt.Sprintf("%-24s %-19s %-12s %-8s %7s %6s %7s  %s",
		"RUN", "STARTED", "LANGUAGE", "MODE", "BLOCKS", "FILES", "FAILED", "ROOT")))
	for _, run := range runs {
		line := fmt.Sprintf("%-24s %-19s %-12s %-8s %7d %6d %7d  %s",
			run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Language, run.Mode,
			run.Changed, run.FilesChanged, run.Failed, run.Root)
		if run.Failed > 0 {
			line = red(line)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runRestore(cmd *cobra.Command, runID string) error {
	j, err := journal.Open(JournalPath())
	if err != nil {
		return err
	}
	defer j.Close()

	run, restored, err := processor.Restore(cmd.Context(), j, runID)
	if err != nil {
		if errors.Is(err, journal.ErrRunNotFound) {
			return fmt.Errorf("no run %q in the journal, see the history command", runID)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), green(fmt.Sprintf("Restored %d files of run %s into %s", restored, run.ID, run.Root)))
	return nil
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
