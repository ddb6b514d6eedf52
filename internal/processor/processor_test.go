package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/rpytools/orphanclean/internal/detect"
	"codeberg.org/rpytools/orphanclean/internal/lint"
	"codeberg.org/rpytools/orphanclean/internal/rpy"
	"codeberg.org/rpytools/orphanclean/internal/testutil"
)

const gameScript = `define e = Character("Eileen")

label start:

    e "You've created a new Ren'Py game."

    return
`

const frenchScript = `# game/script.rpy:5
translate french start_636ae3f5:

    # e "You've created a new Ren'Py game."
    e "Vous avez créé un nouveau jeu Ren'Py."

# game/script.rpy:7
translate french start_deadbeef:

    # e "This line was deleted."
    e "Cette ligne a été supprimée."
`

const frenchChapter = `# game/chapter2.rpy:3
translate french chapter2_0f0f0f0f:

    # e "A whole chapter that is gone."
    e "Un chapitre entier qui a disparu."
`

const spanishScript = `# game/script.rpy:7
translate spanish start_deadbeef:

    # e "This line was deleted."
    e "Esta línea fue eliminada."
`

var orphanIDs = []string{"start_deadbeef", "chapter2_0f0f0f0f", "start_missing"}

func createProject(t *testing.T) string {
	t.Helper()

	return testutil.CreateTestProject(t, map[string]string{
		"game/script.rpy":              gameScript,
		"game/tl/french/script.rpy":    frenchScript,
		"game/tl/french/chapter2.rpym": frenchChapter,
		"game/tl/spanish/script.rpy":   spanishScript,
	})
}

func referencedBlock(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	text := string(content)

	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	offsets = append(offsets, len(text))

	for _, b := range rpy.ParseBlocks(text) {
		if b.ID == "start_636ae3f5" {
			return text[offsets[b.Start]:offsets[b.End]]
		}
	}
	t.Fatalf("Referenced block missing from %s", path)
	return ""
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeComment, false},
		{"comment", ModeComment, false},
		{" Remove ", ModeRemove, false},
		{"delete", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidMode) {
			t.Errorf("ParseMode(%q) error should wrap ErrInvalidMode, got %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestProcess_Comment(t *testing.T) {
	root := createProject(t)
	stateDir := t.TempDir()
	frenchPath := filepath.Join(root, "game", "tl", "french", "script.rpy")
	referencedBefore := referencedBlock(t, frenchPath)

	mockJournal := testutil.NewMockJournal()
	p := NewProcessor(stateDir)
	p.SetRecorder(mockJournal)

	summary, err := p.Process(context.Background(), Options{
		Root:     root,
		Language: "french",
		IDs:      orphanIDs,
		Mode:     ModeComment,
		Backup:   true,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if summary.Changed != 2 {
		t.Errorf("Expected 2 changed blocks, got %d", summary.Changed)
	}
	if summary.FilesChanged != 2 {
		t.Errorf("Expected 2 changed files, got %d", summary.FilesChanged)
	}
	if summary.Failed != 0 || summary.Err() != nil {
		t.Errorf("Expected no failures, got %d (%v)", summary.Failed, summary.Err())
	}
	if !reflect.DeepEqual(summary.Missing, []string{"start_missing"}) {
		t.Errorf("Expected missing [start_missing], got %v", summary.Missing)
	}
	if len(summary.Files) != 4 {
		t.Errorf("Expected 4 scanned files, got %d", len(summary.Files))
	}

	// Orphans are commented out, the referenced block is untouched
	testutil.AssertFileContains(t, frenchPath, "# translate french start_deadbeef:")
	testutil.AssertFileContains(t, filepath.Join(root, "game", "tl", "french", "chapter2.rpym"), "# translate french chapter2_0f0f0f0f:")
	if got := referencedBlock(t, frenchPath); got != referencedBefore {
		t.Errorf("Referenced block changed:\nbefore: %q\nafter: %q", referencedBefore, got)
	}

	// Other languages and the game script are untouched
	testutil.AssertFileContent(t, filepath.Join(root, "game", "tl", "spanish", "script.rpy"), []byte(spanishScript))
	testutil.AssertFileContent(t, filepath.Join(root, "game", "script.rpy"), []byte(gameScript))

	// Backups hold the original content of changed files only
	if summary.BackupDir == "" {
		t.Fatal("Expected a backup directory")
	}
	testutil.AssertFileContent(t, filepath.Join(summary.BackupDir, "game", "tl", "french", "script.rpy"), []byte(frenchScript))
	testutil.AssertFileContent(t, filepath.Join(summary.BackupDir, "game", "tl", "french", "chapter2.rpym"), []byte(frenchChapter))
	testutil.AssertFileNotExists(t, filepath.Join(summary.BackupDir, "game", "tl", "spanish", "script.rpy"))

	run, err := mockJournal.Only()
	if err != nil {
		t.Fatalf("Journal: %v", err)
	}
	if run.ID != summary.RunID || run.Changed != 2 || run.Requested != 3 || run.Mode != "comment" {
		t.Errorf("Unexpected journal entry: %+v", run)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	for _, mode := range []Mode{ModeComment, ModeRemove} {
		t.Run(string(mode), func(t *testing.T) {
			root := createProject(t)
			p := NewProcessor(t.TempDir())
			opts := Options{Root: root, Language: "french", IDs: orphanIDs, Mode: mode}

			first, err := p.Process(context.Background(), opts)
			if err != nil {
				t.Fatalf("First run failed: %v", err)
			}
			if first.Changed != 2 {
				t.Fatalf("Expected 2 changed blocks in first run, got %d", first.Changed)
			}

			before := testutil.SnapshotTree(t, root)

			second, err := p.Process(context.Background(), opts)
			if err != nil {
				t.Fatalf("Second run failed: %v", err)
			}
			if second.Changed != 0 || second.FilesChanged != 0 {
				t.Errorf("Second run changed %d blocks in %d files", second.Changed, second.FilesChanged)
			}
			if !reflect.DeepEqual(before, testutil.SnapshotTree(t, root)) {
				t.Error("Second run modified the project")
			}
		})
	}
}

func TestProcess_Remove(t *testing.T) {
	root := createProject(t)
	frenchPath := filepath.Join(root, "game", "tl", "french", "script.rpy")

	p := NewProcessor(t.TempDir())
	summary, err := p.Process(context.Background(), Options{
		Root:     root,
		Language: "french",
		IDs:      orphanIDs,
		Mode:     ModeRemove,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.BackupDir != "" {
		t.Errorf("Expected no backup directory, got %s", summary.BackupDir)
	}

	expected := frenchScript[:strings.Index(frenchScript, "# game/script.rpy:7")]
	testutil.AssertFileContent(t, frenchPath, []byte(expected))
	testutil.AssertFileContent(t, filepath.Join(root, "game", "tl", "french", "chapter2.rpym"), []byte(""))
	testutil.AssertFileContent(t, filepath.Join(root, "game", "tl", "spanish", "script.rpy"), []byte(spanishScript))
}

func TestProcess_DryRun(t *testing.T) {
	root := createProject(t)
	before := testutil.SnapshotTree(t, root)

	mockJournal := testutil.NewMockJournal()
	p := NewProcessor(t.TempDir())
	p.SetRecorder(mockJournal)

	summary, err := p.Process(context.Background(), Options{
		Root:     root,
		Language: "french",
		IDs:      orphanIDs,
		DryRun:   true,
		Backup:   true,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if summary.Changed != 2 {
		t.Errorf("Expected 2 blocks reported, got %d", summary.Changed)
	}
	if summary.BackupDir != "" {
		t.Errorf("Dry run should not back up, got %s", summary.BackupDir)
	}
	if !reflect.DeepEqual(before, testutil.SnapshotTree(t, root)) {
		t.Error("Dry run modified the project")
	}
	if len(mockJournal.Calls) != 0 {
		t.Errorf("Dry run should not be recorded, got %v", mockJournal.Calls)
	}
}

func TestProcess_Validation(t *testing.T) {
	root := createProject(t)
	file := filepath.Join(root, "game", "script.rpy")

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"no language", Options{Root: root, IDs: orphanIDs}, ErrNoLanguage},
		{"blank language", Options{Root: root, Language: "  ", IDs: orphanIDs}, ErrNoLanguage},
		{"no IDs", Options{Root: root, Language: "french"}, ErrNoIDs},
		{"invalid mode", Options{Root: root, Language: "french", IDs: orphanIDs, Mode: "shred"}, ErrInvalidMode},
		{"missing root", Options{Root: filepath.Join(root, "missing"), Language: "french", IDs: orphanIDs}, os.ErrNotExist},
		{"root is a file", Options{Root: file, Language: "french", IDs: orphanIDs}, nil},
	}

	p := NewProcessor(t.TempDir())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := p.Process(context.Background(), tt.opts)
			if err == nil {
				t.Fatal("Expected error")
			}
			if summary != nil {
				t.Errorf("Expected nil summary, got %+v", summary)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestProcess_Progress(t *testing.T) {
	root := createProject(t)

	var (
		mu    sync.Mutex
		calls []int
		total int
	)

	p := NewProcessor(t.TempDir())
	p.SetProgress(func(done, n int, result FileResult) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		total = n
	})

	if _, err := p.Process(context.Background(), Options{Root: root, Language: "french", IDs: orphanIDs}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if total != 4 {
		t.Errorf("Expected total of 4 files, got %d", total)
	}
	if !reflect.DeepEqual(calls, []int{1, 2, 3, 4}) {
		t.Errorf("Unexpected progress sequence: %v", calls)
	}
}

func TestProcess_FailedBackup(t *testing.T) {
	root := createProject(t)
	before := testutil.SnapshotTree(t, root)

	// A state "directory" that is a file makes every backup fail
	stateFile := filepath.Join(t.TempDir(), "state")
	testutil.CreateTestFile(t, stateFile, []byte("not a directory"))

	// Frontends show failed files from the results, warnings would repeat them
	var logged bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&logged).Level(zerolog.WarnLevel)
	t.Cleanup(func() { log.Logger = previous })

	p := NewProcessor(stateFile)
	summary, err := p.Process(context.Background(), Options{
		Root:     root,
		Language: "french",
		IDs:      orphanIDs,
		Backup:   true,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if summary.Failed != 2 {
		t.Errorf("Expected 2 failed files, got %d", summary.Failed)
	}
	if summary.Err() == nil {
		t.Error("Expected summary error")
	}
	if summary.Changed != 0 {
		t.Errorf("Expected no changed blocks, got %d", summary.Changed)
	}
	if !reflect.DeepEqual(before, testutil.SnapshotTree(t, root)) {
		t.Error("Files were modified although their backup failed")
	}
	if logged.Len() != 0 {
		t.Errorf("Failed files should only be reported in the summary, logged: %s", logged.String())
	}
}

func TestProcess_Cancelled(t *testing.T) {
	root := createProject(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(t.TempDir())
	_, err := p.Process(ctx, Options{Root: root, Language: "french", IDs: orphanIDs})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestProcess_CancelledMidRun(t *testing.T) {
	files := make(map[string]string)
	var ids []string
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("start_%08d", i)
		ids = append(ids, id)
		files[fmt.Sprintf("game/tl/french/part%02d.rpy", i)] = fmt.Sprintf("translate french %s:\n\n    # e \"Gone %d.\"\n    e \"Parti %d.\"\n", id, i, i)
	}
	root := testutil.CreateTestProject(t, files)
	before := testutil.SnapshotTree(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mockJournal := testutil.NewMockJournal()
	p := NewProcessor(t.TempDir())
	p.SetRecorder(mockJournal)
	p.SetProgress(func(done, total int, result FileResult) {
		if done == 3 {
			cancel()
		}
	})

	summary, err := p.Process(ctx, Options{
		Root:     root,
		Language: "french",
		IDs:      ids,
		Backup:   true,
		Workers:  1,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected the partial summary of the interrupted run")
	}
	if summary.FilesChanged != 3 || len(summary.Files) != 3 {
		t.Errorf("Expected 3 rewritten files, got %d of %d results", summary.FilesChanged, len(summary.Files))
	}

	run, ok := mockJournal.Runs[summary.RunID]
	if !ok {
		t.Fatalf("Interrupted run %s was not recorded", summary.RunID)
	}
	if run.FilesChanged != 3 {
		t.Errorf("Expected 3 changed files in the journal, got %d", run.FilesChanged)
	}

	if _, restored, err := Restore(context.Background(), mockJournal, summary.RunID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	} else if restored != 3 {
		t.Errorf("Expected 3 restored files, got %d", restored)
	}
	if !reflect.DeepEqual(before, testutil.SnapshotTree(t, root)) {
		t.Error("Project differs from its state before the interrupted run")
	}
}

// TestDetectThenRemove checks the cleanup properties end to end: referenced
// entries survive unchanged, unreferenced ones are removed and a second run
// finds nothing left to do.
func TestDetectThenRemove(t *testing.T) {
	root := createProject(t)
	frenchPath := filepath.Join(root, "game", "tl", "french", "script.rpy")
	referencedBefore := referencedBlock(t, frenchPath)

	p := NewProcessor(t.TempDir())
	ctx := context.Background()

	orphans, err := p.Detect(ctx, root, "french")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	keys := detect.Keys(orphans)
	if !reflect.DeepEqual(keys, []string{"chapter2_0f0f0f0f", "start_deadbeef"}) {
		t.Fatalf("Unexpected orphans: %v", keys)
	}

	idsFile := filepath.Join(t.TempDir(), "ids.txt")
	if err := lint.WriteIDs(idsFile, keys); err != nil {
		t.Fatalf("WriteIDs failed: %v", err)
	}
	ids, err := lint.ReadIDs(idsFile)
	if err != nil {
		t.Fatalf("ReadIDs failed: %v", err)
	}

	summary, err := p.Process(ctx, Options{Root: root, Language: "french", IDs: ids, Mode: ModeRemove})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.Changed != 2 {
		t.Errorf("Expected 2 removed blocks, got %d", summary.Changed)
	}

	if got := referencedBlock(t, frenchPath); got != referencedBefore {
		t.Errorf("Referenced block changed:\nbefore: %q\nafter: %q", referencedBefore, got)
	}
	testutil.AssertFileNotContains(t, frenchPath, "start_deadbeef")

	orphans, err = p.Detect(ctx, root, "french")
	if err != nil {
		t.Fatalf("Second detect failed: %v", err)
	}
	if len(orphans) != 0 {
		t.Errorf("Expected no orphans after cleanup, got %v", orphans)
	}
}

func TestDetect_RequiresLanguage(t *testing.T) {
	p := NewProcessor(t.TempDir())
	if _, err := p.Detect(context.Background(), t.TempDir(), ""); !errors.Is(err, ErrNoLanguage) {
		t.Errorf("Expected ErrNoLanguage, got %v", err)
	}
}
