package extract

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	blockDelimiter = "---"

	// minFallbackResponseLength gates the loose parser: short responses like
	// "no complaints found" must not produce phantom pain points.
	minFallbackResponseLength = 40

	minLooseLineLength = 20
)

// parsedRow is one pain point as it appears in the model response, before it
// is joined back to its source record.
type parsedRow struct {
	Index   int
	Quote   string
	Problem string
}

// parseBlocks handles the requested INDEX/QUOTE/PROBLEM format. Blocks
// missing a PROBLEM line are dropped; a missing or unparsable INDEX keeps the
// point but loses the engagement join.
func parseBlocks(raw string) []parsedRow {
	var rows []parsedRow

	for _, block := range strings.Split(raw, blockDelimiter) {
		row := parsedRow{}

		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)

			switch {
			case strings.HasPrefix(line, "INDEX:"):
				if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "INDEX:"))); err == nil {
					row.Index = n
				}
			case strings.HasPrefix(line, "QUOTE:"):
				row.Quote = cleanText(strings.TrimPrefix(line, "QUOTE:"))
			case strings.HasPrefix(line, "PROBLEM:"):
				row.Problem = cleanText(strings.TrimPrefix(line, "PROBLEM:"))
			}
		}

		if row.Problem == "" {
			continue
		}

		rows = append(rows, row)
	}

	return rows
}

// parseLooseList salvages responses where the model ignored the block format
// and answered with a numbered or bulleted list. Each substantial line
// becomes one pain point with no record join.
func parseLooseList(raw string) []parsedRow {
	var rows []parsedRow

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)-* \t")
		line = strings.TrimSpace(line)

		if len(line) < minLooseLineLength {
			continue
		}

		rows = append(rows, parsedRow{Problem: cleanText(line)})
	}

	return rows
}

// cleanText trims and NFC-normalizes model output. Equivalent problem
// statements must compare equal downstream regardless of which unicode form
// the model emitted.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
