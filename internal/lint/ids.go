package lint

import (
	"fmt"
	"os"
	"strings"
)

// ParseIDs splits comma separated identifiers.
// Whitespace around items is ignored, empty items are dropped and duplicates
// are removed keeping the first occurrence.
func ParseIDs(s string) []string {
	var ids []string
	seen := make(map[string]struct{})

	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}

// ReadIDs reads an ID file
func ReadIDs(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ID file: %w", err)
	}

	return ParseIDs(string(content)), nil
}

// WriteIDs writes identifiers in the ID file format
func WriteIDs(path string, ids []string) error {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(id)
		sb.WriteByte(',')
	}
	sb.WriteByte('\n')

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ID file: %w", err)
	}

	return nil
}
