package backup

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the snapshot directory of a run
func Dir(stateDir, runID string) string {
	return filepath.Join(stateDir, "backups", runID)
}

// Snapshot copies files into dir, keeping their paths relative to root
func Snapshot(dir, root string, files []string) error {
	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("file %s is outside of %s", path, root)
		}

		target := filepath.Join(dir, rel)

		// Check if the snapshot already holds this file (unlikely but possible)
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("backup already exists: %s", target)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}

		if err := copyFile(path, target); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	return nil
}

// Restore copies every file of the snapshot in dir back below root.
// It returns the number of restored files.
func Restore(dir, root string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("backup directory does not exist: %s: %w", dir, err)
	}

	restored := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		target := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", target, err)
		}

		if err := copyFile(path, target); err != nil {
			return fmt.Errorf("failed to restore %s: %w", target, err)
		}

		restored++
		return nil
	})
	if err != nil {
		return restored, err
	}

	return restored, nil
}

// copyFile copies src to dst, keeping the permissions of src
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
