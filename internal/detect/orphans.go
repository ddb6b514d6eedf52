package detect

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"codeberg.org/rpytools/orphanclean/internal/rpy"
)

// reservedIDs are block keys that group many entries and are never reported
var reservedIDs = map[string]bool{
	"strings": true,
	"python":  true,
}

// Orphan is a translate block no script references
type Orphan struct {
	ID       string `yaml:"id"`
	Language string `yaml:"language"`
	File     string `yaml:"file"`
	Line     int    `yaml:"line"`
}

// FindOrphans returns the blocks of language below the tl directories of
// root that refs does not cover, ordered by file and line.
func FindOrphans(ctx context.Context, root, language string, refs *References) ([]Orphan, error) {
	if language == "" {
		return nil, fmt.Errorf("language is required")
	}

	files, err := rpy.FindScripts(root)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		orphans []Orphan
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, path := range files {
		if !rpy.IsTranslationPath(root, path) {
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read translation %s: %w", path, err)
			}

			var found []Orphan
			for _, block := range rpy.ParseBlocks(string(content)) {
				if block.Language != language || reservedIDs[block.ID] {
					continue
				}
				if refs.Covers(block) {
					continue
				}
				found = append(found, Orphan{
					ID:       block.ID,
					Language: block.Language,
					File:     path,
					Line:     block.Start + 1,
				})
			}

			mu.Lock()
			orphans = append(orphans, found...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(orphans, func(i, j int) bool {
		if orphans[i].File != orphans[j].File {
			return orphans[i].File < orphans[j].File
		}
		return orphans[i].Line < orphans[j].Line
	})

	return orphans, nil
}

// Run collects references below root and returns the orphans of language
func Run(ctx context.Context, root, language string) ([]Orphan, error) {
	refs, err := CollectReferences(ctx, root)
	if err != nil {
		return nil, err
	}
	return FindOrphans(ctx, root, language, refs)
}

// Keys returns the distinct IDs of orphans in order
func Keys(orphans []Orphan) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, o := range orphans {
		if seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		keys = append(keys, o.ID)
	}
	return keys
}
