package rpy

import (
	"regexp"
	"strings"
)

// headerPattern matches "translate <language> <id>:" at the start of a line
var headerPattern = regexp.MustCompile(`^translate[ \t]+(\S+)[ \t]+([^\s:]+):`)

// locationPattern matches the "# game/script.rpy:10" comment Ren'Py writes above a block
var locationPattern = regexp.MustCompile(`^#[ \t]*\S+:\d+[ \t\r]*$`)

// Block is one translate block of a translation file
type Block struct {
	Language string
	ID       string

	// Start is the index of the header line, End the index of the first line
	// after the block. Trailing blank lines belong to the block.
	Start int
	End   int

	// Original holds the commented source statements Ren'Py copies into the block
	Original []string
}

// KeySet is a set of translation identifiers
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from identifiers
func NewKeySet(ids []string) KeySet {
	set := make(KeySet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is in the set
func (s KeySet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// ParseBlocks splits content into translate blocks.
// A block starts at a header line and runs over every following blank or
// indented line; the next line starting with a non-space character ends it.
func ParseBlocks(content string) []Block {
	lines := strings.Split(content, "\n")

	var blocks []Block
	for i := 0; i < len(lines); i++ {
		m := headerPattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		block := Block{Language: m[1], ID: m[2], Start: i}

		j := i + 1
		for j < len(lines) && isBodyLine(lines[j]) {
			if code, ok := originalCode(lines[j]); ok {
				block.Original = append(block.Original, code)
			}
			j++
		}
		block.End = j

		blocks = append(blocks, block)
		i = j - 1
	}

	return blocks
}

// isBodyLine reports whether a line continues the current block
func isBodyLine(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return line[0] == ' ' || line[0] == '\t'
}

// originalCode extracts the statement from an indented "# statement" comment
func originalCode(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	code := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
	if code == "" {
		return "", false
	}
	return code, true
}

// lineOffsets returns the byte offset of every line start, followed by
// len(content) so that offsets[len(lines)] is valid.
func lineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return append(offsets, len(content))
}
