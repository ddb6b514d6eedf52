package rpy

import (
	"strings"
)

// RewriteFunc rewrites the blocks of language whose ID is in keys.
// It returns the new content and the IDs of the rewritten blocks in file order.
type RewriteFunc func(content, language string, keys KeySet) (string, []string)

// CommentBlocks comments out every matching block.
// The block text is trimmed, each non-blank line gets a "# " prefix and the
// block is followed by a single blank line. Commented blocks no longer match,
// so running it again leaves the content unchanged.
func CommentBlocks(content, language string, keys KeySet) (string, []string) {
	return rewrite(content, language, keys, false)
}

// RemoveBlocks deletes every matching block, along with the location
// comments ("# game/script.rpy:10") directly above its header.
func RemoveBlocks(content, language string, keys KeySet) (string, []string) {
	return rewrite(content, language, keys, true)
}

func rewrite(content, language string, keys KeySet, remove bool) (string, []string) {
	if len(keys) == 0 {
		return content, nil
	}

	lines := strings.Split(content, "\n")
	offsets := lineOffsets(content)

	var sb strings.Builder
	var changed []string
	pos := 0

	for _, block := range ParseBlocks(content) {
		if block.Language != language || !keys.Has(block.ID) {
			continue
		}

		start := block.Start
		if remove {
			for start > 0 && offsets[start-1] >= pos && locationPattern.MatchString(lines[start-1]) {
				start--
			}
		}

		sb.WriteString(content[pos:offsets[start]])
		if !remove {
			sb.WriteString(commentOut(content[offsets[block.Start]:offsets[block.End]]))
		}
		pos = offsets[block.End]

		changed = append(changed, block.ID)
	}

	if len(changed) == 0 {
		return content, nil
	}

	sb.WriteString(content[pos:])
	return sb.String(), changed
}

// commentOut turns a block into comments, keeping the block's line endings
func commentOut(block string) string {
	eol := "\n"
	if strings.Contains(block, "\r\n") {
		eol = "\r\n"
	}

	lines := strings.Split(strings.TrimSpace(block), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
		} else {
			lines[i] = "# " + line
		}
	}
	return strings.Join(lines, eol) + eol + eol
}
