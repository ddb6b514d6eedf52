package gui

import (
	"path/filepath"
	"strings"

	"codeberg.org/rpytools/orphanclean/internal/i18n"
	"codeberg.org/rpytools/orphanclean/internal/processor"
)

// formValues are the inputs of the main form
type formValues struct {
	Language string
	Root     string
	IDsFile  string
	Mode     processor.Mode
	DryRun   bool
	Backup   bool
}

// validate returns the message key of the first missing input, "" when
// everything needed is there. needIDs is false for detection.
func (f formValues) validate(needIDs bool) string {
	switch {
	case strings.TrimSpace(f.Language) == "":
		return "ErrMissingLanguage"
	case strings.TrimSpace(f.Root) == "":
		return "ErrMissingProject"
	case needIDs && strings.TrimSpace(f.IDsFile) == "":
		return "ErrMissingCleanedLint"
	}
	return ""
}

func (f formValues) options(ids []string, workers int) processor.Options {
	return processor.Options{
		Root:     strings.TrimSpace(f.Root),
		Language: strings.TrimSpace(f.Language),
		IDs:      ids,
		Mode:     f.Mode,
		DryRun:   f.DryRun,
		Backup:   f.Backup,
		Workers:  workers,
	}
}

// cleanedLintPath is where the ids of lintPath are written
func cleanedLintPath(lintPath string, loc *i18n.Localizer) string {
	return filepath.Join(filepath.Dir(lintPath), loc.IDFileName())
}

// modeLabels returns the localized mode names in selector order
func modeLabels(loc *i18n.Localizer) []string {
	return []string{loc.T("ModeComment", nil), loc.T("ModeRemove", nil)}
}

func modeLabel(loc *i18n.Localizer, mode processor.Mode) string {
	labels := modeLabels(loc)
	if mode == processor.ModeRemove {
		return labels[1]
	}
	return labels[0]
}

func modeFromLabel(loc *i18n.Localizer, label string) processor.Mode {
	if label == modeLabels(loc)[1] {
		return processor.ModeRemove
	}
	return processor.ModeComment
}

// fileLine renders the log line of one processed file, "" for unchanged files
func fileLine(loc *i18n.Localizer, root string, res processor.FileResult) string {
	path := res.Path
	if rel, err := filepath.Rel(root, res.Path); err == nil {
		path = filepath.ToSlash(rel)
	}

	switch res.Status {
	case processor.StatusChanged:
		return loc.T("Processed", map[string]any{"File": path})
	case processor.StatusFailed:
		return loc.T("ProcessError", map[string]any{"File": path, "Error": res.Err})
	}
	return ""
}

// summaryLines renders a finished run for the log
func summaryLines(loc *i18n.Localizer, s *processor.Summary) []string {
	lines := []string{loc.N("BlocksHandled", s.Changed, nil)}

	if len(s.Missing) > 0 {
		lines = append(lines, loc.T("MissingIDs", map[string]any{"IDs": strings.Join(s.Missing, ", ")}))
	}
	if s.Failed > 0 {
		lines = append(lines, loc.T("FailedFiles", map[string]any{"Count": s.Failed}))
	}

	switch {
	case s.DryRun:
		lines = append(lines, loc.T("DryRunNotice", nil))
	case s.BackupDir != "" && s.FilesChanged > 0:
		lines = append(lines, loc.T("BackupSaved", map[string]any{"Dir": s.BackupDir}))
	}

	if !s.DryRun && s.Failed == 0 && s.Mode == processor.ModeComment {
		lines = append(lines, loc.T("Completed", nil))
	}
	return lines
}
