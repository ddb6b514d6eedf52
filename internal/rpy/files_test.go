package rpy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScripts(t *testing.T) {
	root := t.TempDir()

	files := []string{
		"game/script.rpy",
		"game/screens.rpym",
		"game/tl/french/script.rpy",
		"game/script.rpyc",
		"game/notes.txt",
		"game/Upper.RPY",
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("label start:\n"), 0644))
	}

	got, err := FindScripts(root)
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "game/Upper.RPY"),
		filepath.Join(root, "game/screens.rpym"),
		filepath.Join(root, "game/script.rpy"),
		filepath.Join(root, "game/tl/french/script.rpy"),
	}
	assert.Equal(t, want, got)
}

func TestFindScripts_MissingRoot(t *testing.T) {
	_, err := FindScripts(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestIsTranslationPath(t *testing.T) {
	root := filepath.FromSlash("/games/vn")

	assert.True(t, IsTranslationPath(root, filepath.FromSlash("/games/vn/game/tl/french/script.rpy")))
	assert.False(t, IsTranslationPath(root, filepath.FromSlash("/games/vn/game/script.rpy")))
	assert.False(t, IsTranslationPath(root, filepath.FromSlash("/games/vn/game/tools/tlx.rpy")))
	assert.False(t, IsTranslationPath(filepath.FromSlash("/games/tl"), filepath.FromSlash("/games/tl/game/script.rpy")))
}
