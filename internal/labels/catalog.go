package labels

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Separator divides the species part from the health-status part in a raw
// label line, e.g. "Apple___Cedar_apple_rust".
const Separator = "___"

// Placeholder is substituted for both parts when a line carries no separator.
const Placeholder = "unknown"

// Label is a single class the classifier can predict. Raw keeps the source
// line verbatim; Species and Status are the human-readable parts.
type Label struct {
	Raw     string
	Species string
	Status  string
}

// Catalog is an ordered set of labels. The position of a label in the
// catalog is the classifier's output index for that label, so order must
// match the label resource the model was trained against.
type Catalog struct {
	labels []Label
}

// ErrEmptyCatalog is returned when a label resource yields no labels.
var ErrEmptyCatalog = errors.New("label catalog is empty")

// parseLabel splits a raw line into species and status on the first
// occurrence of Separator. Underscores within each part become spaces.
func parseLabel(raw string) Label {
	species, status, ok := strings.Cut(raw, Separator)
	if !ok {
		return Label{Raw: raw, Species: Placeholder, Status: Placeholder}
	}
	return Label{
		Raw:     raw,
		Species: strings.ReplaceAll(species, "_", " "),
		Status:  strings.ReplaceAll(status, "_", " "),
	}
}

// removeBOM strips a UTF-8 BOM from the first line if present.
func removeBOM(line string, isFirstLine bool) string {
	if isFirstLine {
		return strings.TrimPrefix(line, "\uFEFF")
	}
	return line
}

// Parse builds a catalog from newline-delimited label text. Lines are
// trimmed and blank lines skipped; every surviving line becomes one label in
// source order. An input with no usable lines fails with ErrEmptyCatalog.
func Parse(text string) (*Catalog, error) {
	lines := strings.Split(text, "\n")
	parsed := make([]Label, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(removeBOM(line, i == 0))
		if line == "" {
			continue
		}
		parsed = append(parsed, parseLabel(line))
	}
	if len(parsed) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{labels: parsed}, nil
}

// Load reads a label resource file and parses it into a catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return nil, errors.New("label file path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: Opening user-provided label file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing label file: %v\n", err)
		}
	}()

	scanner := bufio.NewScanner(f)
	parsed := make([]Label, 0, 64)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(removeBOM(scanner.Text(), lineNum == 1))
		if line == "" {
			continue
		}
		parsed = append(parsed, parseLabel(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading label file: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCatalog, path)
	}
	return &Catalog{labels: parsed}, nil
}

// Size returns the number of labels, which must equal the length of the
// classifier's probability vector.
func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	return len(c.labels)
}

// Get returns the label at index, or ok=false when the index is out of
// range. Callers must treat absence explicitly; it signals catalog/model
// version skew.
func (c *Catalog) Get(index int) (Label, bool) {
	if c == nil || index < 0 || index >= len(c.labels) {
		return Label{}, false
	}
	return c.labels[index], true
}

// All returns the labels in catalog order. The returned slice is a copy.
func (c *Catalog) All() []Label {
	if c == nil {
		return nil
	}
	out := make([]Label, len(c.labels))
	copy(out, c.labels)
	return out
}
