package processor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects what happens to orphaned blocks
type Mode string

const (
	// ModeComment comments the blocks out
	ModeComment Mode = "comment"
	// ModeRemove deletes the blocks
	ModeRemove Mode = "remove"
)

var (
	ErrNoLanguage  = errors.New("language is required")
	ErrNoIDs       = errors.New("no translation IDs given")
	ErrInvalidMode = errors.New("invalid mode")
)

// ParseMode parses a mode name; an empty name selects ModeComment
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeComment:
		return ModeComment, nil
	case ModeRemove:
		return ModeRemove, nil
	default:
		return "", fmt.Errorf("%w: %q (use comment or remove)", ErrInvalidMode, s)
	}
}

// Options describes one cleanup run
type Options struct {
	Root     string
	Language string
	IDs      []string
	Mode     Mode
	DryRun   bool
	Backup   bool
	Workers  int
}

// FileStatus is the outcome for one file
type FileStatus int

const (
	StatusUnchanged FileStatus = iota
	StatusChanged
	StatusFailed
)

func (s FileStatus) String() string {
	switch s {
	case StatusUnchanged:
		return "Unchanged"
	case StatusChanged:
		return "Changed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// FileResult is what happened to one script file
type FileResult struct {
	Path   string
	Status FileStatus
	IDs    []string // rewritten block IDs in file order
	Err    error
}

// Summary describes a finished run
type Summary struct {
	RunID      string
	Root       string
	Language   string
	Mode       Mode
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	Requested []string
	Missing   []string // requested IDs no file contained

	Files        []FileResult // every scanned file, sorted by path
	Changed      int          // rewritten blocks
	FilesChanged int
	Failed       int

	BackupDir string
}

// Err joins the errors of all failed files, nil when none failed
func (s *Summary) Err() error {
	var errs []error
	for _, f := range s.Files {
		if f.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
		}
	}
	return errors.Join(errs...)
}

// ChangedFiles returns the results of the files that were rewritten
func (s *Summary) ChangedFiles() []FileResult {
	var changed []FileResult
	for _, f := range s.Files {
		if f.Status == StatusChanged {
			changed = append(changed, f)
		}
	}
	return changed
}
