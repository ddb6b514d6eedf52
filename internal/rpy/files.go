package rpy

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// TranslationDir is the directory Ren'Py keeps translations in
const TranslationDir = "tl"

// IsScriptFile reports whether the path has a Ren'Py script extension
func IsScriptFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".rpy" || ext == ".rpym"
}

// FindScripts returns every .rpy and .rpym file below root, sorted by path
func FindScripts(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsScriptFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// IsTranslationPath reports whether path lies inside a tl directory of root
func IsTranslationPath(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
		if segment == TranslationDir {
			return true
		}
	}
	return false
}
