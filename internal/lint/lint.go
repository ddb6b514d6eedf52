package lint

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultOutputName is the file name used for cleaned reports when no output is given
const DefaultOutputName = "cleaned_lint.txt"

// idPattern matches the "(id identifier)" notes Ren'Py lint attaches to translations
var idPattern = regexp.MustCompile(`\(id\s+([^)\s]+)\s*\)`)

// ExtractIDs returns the identifiers of every "(id X)" note in a lint line
func ExtractIDs(line string) []string {
	matches := idPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}

// CleanReport keeps only the identifiers of a lint report.
// Each report line that mentions an ID becomes one output line with the
// identifiers followed by a comma. It returns the number of IDs written.
func CleanReport(r io.Reader, w io.Writer) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	bw := bufio.NewWriter(w)

	count := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "(id") {
			continue
		}

		ids := ExtractIDs(line)
		if len(ids) == 0 {
			continue
		}

		for _, id := range ids {
			if _, err := bw.WriteString(id + ","); err != nil {
				return count, fmt.Errorf("failed to write ID: %w", err)
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return count, fmt.Errorf("failed to write ID: %w", err)
		}
		count += len(ids)
	}

	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read lint report: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return count, fmt.Errorf("failed to write IDs: %w", err)
	}

	return count, nil
}

// CleanFile cleans the lint report at input and writes the IDs to output.
// An empty output writes DefaultOutputName next to the input. It returns the
// absolute output path and the number of IDs written.
func CleanFile(input, output string) (string, int, error) {
	in, err := os.Open(input)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open lint file: %w", err)
	}
	defer in.Close()

	if output == "" {
		output = filepath.Join(filepath.Dir(input), DefaultOutputName)
	}

	absOutput, err := filepath.Abs(output)
	if err != nil {
		return "", 0, fmt.Errorf("failed to resolve output path: %w", err)
	}

	absInput, err := filepath.Abs(input)
	if err == nil && absInput == absOutput {
		return "", 0, fmt.Errorf("output file must differ from lint file: %s", input)
	}

	out, err := os.Create(absOutput)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create ID file: %w", err)
	}

	count, err := CleanReport(in, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close ID file: %w", closeErr)
	}
	if err != nil {
		return "", count, err
	}

	return absOutput, count, nil
}
