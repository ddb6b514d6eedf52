package detect

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"codeberg.org/rpytools/orphanclean/internal/rpy"
)

// idClausePattern matches an explicit "id <identifier>" at the end of a statement
var idClausePattern = regexp.MustCompile(`\s+id\s+([A-Za-z0-9_]+)$`)

// References holds everything the game scripts reference
type References struct {
	mu         sync.Mutex
	statements map[string]struct{}
	ids        map[string]struct{}
	files      int
}

// NewReferences creates an empty reference set
func NewReferences() *References {
	return &References{
		statements: make(map[string]struct{}),
		ids:        make(map[string]struct{}),
	}
}

// AddScript records the statements and explicit IDs of one script
func (r *References) AddScript(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files++
	for _, line := range strings.Split(content, "\n") {
		code := normalize(line)
		if code == "" {
			continue
		}

		r.statements[code] = struct{}{}

		if m := idClausePattern.FindStringSubmatchIndex(code); m != nil {
			r.ids[code[m[2]:m[3]]] = struct{}{}
			r.statements[code[:m[0]]] = struct{}{}
		}
	}
}

// HasStatement reports whether a statement occurs in the scripts
func (r *References) HasStatement(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.statements[normalize(code)]
	return ok
}

// HasID reports whether a script names the identifier explicitly
func (r *References) HasID(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// Files returns the number of scripts recorded
func (r *References) Files() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.files
}

// Covers reports whether the scripts still reference a translate block.
// A block without original statements cannot be traced back and counts as referenced.
func (r *References) Covers(block rpy.Block) bool {
	if r.HasID(block.ID) || len(block.Original) == 0 {
		return true
	}

	for _, code := range block.Original {
		if !r.HasStatement(code) {
			return false
		}
	}
	return true
}

// normalize brings a statement into the form Ren'Py writes into translation
// comments: a trailing comment is dropped, strings are double quoted and runs
// of whitespace are collapsed.
func normalize(line string) string {
	var sb strings.Builder
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]

		if quote != 0 {
			switch {
			case c == '\\' && i+1 < len(line):
				i++
				if line[i] == '\'' && quote != '"' {
					sb.WriteByte('\'')
				} else {
					sb.WriteByte(c)
					sb.WriteByte(line[i])
				}
			case c == quote:
				sb.WriteByte('"')
				quote = 0
			case c == '"':
				sb.WriteString(`\"`)
			default:
				sb.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
			sb.WriteByte('"')
		case '#':
			return strings.Join(strings.Fields(sb.String()), " ")
		default:
			sb.WriteByte(c)
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// CollectReferences reads every script below root that is not a translation
func CollectReferences(ctx context.Context, root string) (*References, error) {
	files, err := rpy.FindScripts(root)
	if err != nil {
		return nil, err
	}

	refs := NewReferences()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, path := range files {
		if rpy.IsTranslationPath(root, path) {
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read script %s: %w", path, err)
			}

			refs.AddScript(string(content))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return refs, nil
}
