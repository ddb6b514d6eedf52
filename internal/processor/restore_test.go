package processor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"codeberg.org/rpytools/orphanclean/internal/journal"
	"codeberg.org/rpytools/orphanclean/internal/testutil"
)

func TestRestore(t *testing.T) {
	root := createProject(t)
	mockJournal := testutil.NewMockJournal()

	p := NewProcessor(t.TempDir())
	p.SetRecorder(mockJournal)

	summary, err := p.Process(context.Background(), Options{
		Root:     root,
		Language: "french",
		IDs:      orphanIDs,
		Mode:     ModeRemove,
		Backup:   true,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	run, restored, err := Restore(context.Background(), mockJournal, summary.RunID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored != 2 {
		t.Errorf("Expected 2 restored files, got %d", restored)
	}
	if run.ID != summary.RunID {
		t.Errorf("Expected run %s, got %s", summary.RunID, run.ID)
	}

	testutil.AssertFileContent(t, filepath.Join(root, "game", "tl", "french", "script.rpy"), []byte(frenchScript))
	testutil.AssertFileContent(t, filepath.Join(root, "game", "tl", "french", "chapter2.rpym"), []byte(frenchChapter))
}

func TestRestore_Errors(t *testing.T) {
	mockJournal := testutil.NewMockJournal()
	mockJournal.Runs["no_backup"] = journal.Run{ID: "no_backup", Root: t.TempDir()}

	if _, _, err := Restore(context.Background(), mockJournal, "missing"); !errors.Is(err, journal.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}

	if _, _, err := Restore(context.Background(), mockJournal, "no_backup"); err == nil {
		t.Error("Expected error for run without backup")
	}
}
