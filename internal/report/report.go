package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"codeberg.org/rpytools/orphanclean/internal/processor"
)

// Report is the serialized form of a run summary
type Report struct {
	Run     string       `yaml:"run"`
	Root    string       `yaml:"root"`
	Lang    string       `yaml:"language"`
	Mode    string       `yaml:"mode"`
	DryRun  bool         `yaml:"dry_run"`
	Started string       `yaml:"started"`
	Took    string       `yaml:"took"`
	Backup  string       `yaml:"backup,omitempty"`
	Totals  Totals       `yaml:"totals"`
	Missing []string     `yaml:"missing,omitempty"`
	Files   []FileReport `yaml:"files,omitempty"`
}

// Totals holds the counters of a run
type Totals struct {
	Requested    int `yaml:"requested"`
	Blocks       int `yaml:"blocks"`
	FilesScanned int `yaml:"files_scanned"`
	FilesChanged int `yaml:"files_changed"`
	Failed       int `yaml:"failed"`
}

// FileReport describes one changed or failed file
type FileReport struct {
	Path   string   `yaml:"path"`
	Status string   `yaml:"status"`
	IDs    []string `yaml:"ids,omitempty"`
	Error  string   `yaml:"error,omitempty"`
}

// New builds a report from a summary. Unchanged files are left out and
// paths are made relative to the project root.
func New(s *processor.Summary) Report {
	r := Report{
		Run:     s.RunID,
		Root:    s.Root,
		Lang:    s.Language,
		Mode:    string(s.Mode),
		DryRun:  s.DryRun,
		Started: s.StartedAt.Format(time.RFC3339),
		Took:    s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String(),
		Backup:  s.BackupDir,
		Totals: Totals{
			Requested:    len(s.Requested),
			Blocks:       s.Changed,
			FilesScanned: len(s.Files),
			FilesChanged: s.FilesChanged,
			Failed:       s.Failed,
		},
		Missing: s.Missing,
	}

	for _, f := range s.Files {
		if f.Status == processor.StatusUnchanged {
			continue
		}

		path := f.Path
		if rel, err := filepath.Rel(s.Root, f.Path); err == nil {
			path = filepath.ToSlash(rel)
		}

		fr := FileReport{
			Path:   path,
			Status: f.Status.String(),
			IDs:    f.IDs,
		}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		r.Files = append(r.Files, fr)
	}

	return r
}

// Encode writes the YAML report of s to w
func Encode(w io.Writer, s *processor.Summary) error {
	if err := yaml.NewEncoder(w, yaml.Indent(2)).Encode(New(s)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Write writes the YAML report of s to path
func Write(path string, s *processor.Summary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
