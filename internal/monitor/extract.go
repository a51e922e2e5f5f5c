package monitor

import (
	"regexp"
	"strings"
)

const (
	minRecordFields = 3

	// continuationMarker stands in for "same company as the row above".
	continuationMarker = "↳"
)

// ExtractOptions controls table extraction.
type ExtractOptions struct {
	// HeaderMarker locates the header row, e.g. "| Company | Role | Location".
	HeaderMarker string

	// MaxRows limits how many rows after the header are examined. Zero means all.
	MaxRows int

	// HTML selects HTML <table> parsing instead of markdown pipe tables.
	HTML bool
}

var (
	mdLinkRe    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	lineBreakRe = regexp.MustCompile(`(?i)</?br\s*/?>`)
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
	emphasisRe  = regexp.MustCompile("\\*\\*|__|`")
)

// ExtractRecords parses the table following the header marker into records.
// Malformed rows are skipped; a missing header returns ErrHeaderNotFound.
func ExtractRecords(doc string, opts ExtractOptions) ([]Record, error) {
	var (
		rows [][]string
		err  error
	)
	if opts.HTML {
		rows, err = htmlRows(doc, opts)
	} else {
		rows, err = markdownRows(doc, opts)
	}
	if err != nil {
		return nil, err
	}
	return recordsFromRows(rows), nil
}

// markdownRows returns the cells of at most MaxRows table rows after the header.
func markdownRows(doc string, opts ExtractOptions) ([][]string, error) {
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")

	start := -1
	for i, line := range lines {
		if strings.Contains(line, opts.HeaderMarker) {
			start = i
			break
		}
	}
	if opts.HeaderMarker == "" || start < 0 {
		return nil, ErrHeaderNotFound
	}

	var rows [][]string
	for _, line := range lines[start+1:] {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			break
		}
		if isSeparatorRow(line) {
			continue
		}

		rows = append(rows, splitRow(line))
		if opts.MaxRows > 0 && len(rows) >= opts.MaxRows {
			break
		}
	}
	return rows, nil
}

// splitRow strips the outer pipes and splits a markdown row into trimmed cells.
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")

	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = cleanCell(p)
	}
	return cells
}

// isSeparatorRow matches the |---|:---:| line under a markdown header.
func isSeparatorRow(line string) bool {
	stripped := strings.Trim(line, "|-: \t")
	return stripped == "" && strings.Contains(line, "-")
}

// cleanCell reduces markdown or inline HTML to plain text.
func cleanCell(s string) string {
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = lineBreakRe.ReplaceAllString(s, ", ")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = emphasisRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// recordsFromRows converts rows into records, skipping malformed ones.
func recordsFromRows(rows [][]string) []Record {
	records := make([]Record, 0, len(rows))
	lastCompany := ""

	for _, cells := range rows {
		if len(cells) < minRecordFields {
			continue
		}

		company := cells[0]
		if company == continuationMarker {
			company = lastCompany
		}

		rec, err := NewRecord(company, cells[1], cells[2])
		if err != nil {
			continue
		}
		lastCompany = rec.Company
		records = append(records, rec)
	}
	return records
}
