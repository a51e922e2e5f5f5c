package monitor

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlRows finds the first <table> whose header mentions every word of the
// marker and returns the cells of at most MaxRows body rows.
func htmlRows(doc string, opts ExtractOptions) ([][]string, error) {
	words := markerWords(opts.HeaderMarker)
	if len(words) == 0 {
		return nil, ErrHeaderNotFound
	}

	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, ErrDecode
	}

	var table, header *goquery.Selection
	root.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		candidate := t.Find("thead tr")
		if candidate.Length() == 0 {
			candidate = t.Find("tr").First()
		}
		if containsAll(candidate.Text(), words) {
			table, header = t, candidate
			return false
		}
		return true
	})
	if table == nil {
		return nil, ErrHeaderNotFound
	}

	// Rows after the header, whether it was written with <th> or <td>.
	body := table.Find("tr").NotSelection(header)

	var rows [][]string
	body.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return true
		}

		var cells []string
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cellText(td))
		})
		rows = append(rows, cells)
		return opts.MaxRows <= 0 || len(rows) < opts.MaxRows
	})
	return rows, nil
}

func cellText(td *goquery.Selection) string {
	inner, err := td.Html()
	if err != nil {
		return strings.TrimSpace(td.Text())
	}
	return strings.TrimSpace(html.UnescapeString(cleanCell(inner)))
}

// markerWords turns "| Company | Role |" into ["Company", "Role"].
func markerWords(marker string) []string {
	return strings.Fields(strings.ReplaceAll(marker, "|", " "))
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
