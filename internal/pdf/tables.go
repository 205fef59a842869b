package pdf

import (
	"regexp"
	"strings"
)

// Cells are separated by a tab or a run of two or more spaces
var cellSeparator = regexp.MustCompile(`\t+| {2,}`)

// DetectTables finds table-shaped regions in page text: two or more
// consecutive lines that split into the same number of columns. Returns
// tables as ordered rows of cell strings.
func DetectTables(text string) [][][]string {
	var tables [][][]string
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		cells := splitCells(line)

		if len(cells) < 2 {
			flush()
			continue
		}

		if len(current) > 0 && len(cells) != len(current[0]) {
			flush()
		}
		current = append(current, cells)
	}
	flush()

	return tables
}

func splitCells(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	parts := cellSeparator.Split(trimmed, -1)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}
