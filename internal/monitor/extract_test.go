package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMarker = "| Company | Role | Location"

func TestExtractRecords_Markdown(t *testing.T) {
	doc := `# New Grad Positions

Some intro text.

| Company | Role | Location | Application/Link | Date Posted |
| ------- | ---- | -------- | ---------------- | ----------- |
| **[Acme](https://acme.example)** | Software Engineer | NYC | <a href="x"><img src="apply.png"></a> | Oct 01 |
| ↳ | Data Engineer | Remote | link | Oct 01 |
| Globex | PM |
| Initech |  | Austin | link | Sep 30 |
| Umbrella | Researcher | Raccoon City</br>Remote | link | Sep 29 |

More text after the table.
`

	records, err := ExtractRecords(doc, ExtractOptions{HeaderMarker: testMarker})
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{Company: "Acme", Role: "Software Engineer", Location: "NYC"},
		{Company: "Acme", Role: "Data Engineer", Location: "Remote"},
		{Company: "Umbrella", Role: "Researcher", Location: "Raccoon City, Remote"},
	}, records)
}

func TestExtractRecords_RowWindow(t *testing.T) {
	doc := `| Company | Role | Location |
|---|---|---|
| A | r1 | l1 |
| B | r2 |
| C | r3 | l3 |
| D | r4 | l4 |
| E | r5 | l5 |
| F | r6 | l6 |
| G | r7 | l7 |
`

	t.Run("window of five", func(t *testing.T) {
		records, err := ExtractRecords(doc, ExtractOptions{HeaderMarker: testMarker, MaxRows: 5})
		require.NoError(t, err)

		// Five rows examined, one malformed.
		require.Len(t, records, 4)
		assert.Equal(t, "A", records[0].Company)
		assert.Equal(t, "E", records[3].Company)
	})

	t.Run("unlimited", func(t *testing.T) {
		records, err := ExtractRecords(doc, ExtractOptions{HeaderMarker: testMarker})
		require.NoError(t, err)
		assert.Len(t, records, 6)
	})
}

func TestExtractRecords_Properties(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want int
	}{
		{"all well formed", []string{"| a | b | c |", "| d | e | f |"}, 2},
		{"all malformed", []string{"| a | b |", "| c |"}, 0},
		{"more than window", []string{"| a | b | c |", "| a2 | b | c |", "| a3 | b | c |", "| a4 | b | c |", "| a5 | b | c |", "| a6 | b | c |"}, 5},
		{"empty table", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "| Company | Role | Location |\n|---|---|---|\n"
			for _, r := range tt.rows {
				doc += r + "\n"
			}

			records, err := ExtractRecords(doc, ExtractOptions{HeaderMarker: testMarker, MaxRows: 5})
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
			for _, r := range records {
				assert.NoError(t, r.Validate())
			}
		})
	}
}

func TestExtractRecords_NoHeader(t *testing.T) {
	_, err := ExtractRecords("# README\n\nnothing here\n", ExtractOptions{HeaderMarker: testMarker})
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	_, err = ExtractRecords("| Company | Role | Location |", ExtractOptions{})
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestExtractRecords_HTML(t *testing.T) {
	doc := `<p>intro</p>
<table><tr><td>unrelated</td></tr></table>
<table>
<thead><tr><th>Company</th><th>Role</th><th>Location</th><th>Application</th></tr></thead>
<tbody>
<tr><td><strong><a href="https://acme.example">Acme</a></strong></td><td>SWE</td><td>NYC</td><td><a href="x">Apply</a></td></tr>
<tr><td>↳</td><td>SRE</td><td>SF<br>Remote</td><td></td></tr>
<tr><td>Globex</td><td>PM</td></tr>
<tr><td>Initech &amp; Co</td><td>QA</td><td>Austin</td><td></td></tr>
</tbody>
</table>`

	records, err := ExtractRecords(doc, ExtractOptions{HeaderMarker: testMarker, HTML: true, MaxRows: 5})
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{Company: "Acme", Role: "SWE", Location: "NYC"},
		{Company: "Acme", Role: "SRE", Location: "SF, Remote"},
		{Company: "Initech & Co", Role: "QA", Location: "Austin"},
	}, records)
}

func TestExtractRecords_HTMLWindow(t *testing.T) {
	doc := `<table><tr><th>Company</th><th>Role</th><th>Location</th></tr>
<tr><td>A</td><td>r</td><td>l</td></tr>
<tr><td>B</td><td>r</td><td>l</td></tr>
<tr><td>C</td><td>r</td><td>l</td></tr>
</table>`

	records, err := ExtractRecords(doc, ExtractOptions{HeaderMarker: testMarker, HTML: true, MaxRows: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "B", records[1].Company)
}

func TestExtractRecords_HTMLTdHeader(t *testing.T) {
	doc := `<table>
<tr><td>Company</td><td>Role</td><td>Location</td></tr>
<tr><td>Acme</td><td>SWE</td><td>NYC</td></tr>
<tr><td>Globex</td><td>PM</td><td>Remote</td></tr>
</table>`

	t.Run("header is not a record", func(t *testing.T) {
		records, err := ExtractRecords(doc, ExtractOptions{HeaderMarker: testMarker, HTML: true})
		require.NoError(t, err)
		assert.Equal(t, []Record{
			{Company: "Acme", Role: "SWE", Location: "NYC"},
			{Company: "Globex", Role: "PM", Location: "Remote"},
		}, records)
	})

	t.Run("header does not use a window slot", func(t *testing.T) {
		records, err := ExtractRecords(doc, ExtractOptions{HeaderMarker: testMarker, HTML: true, MaxRows: 1})
		require.NoError(t, err)
		assert.Equal(t, []Record{{Company: "Acme", Role: "SWE", Location: "NYC"}}, records)
	})
}

func TestExtractRecords_HTMLNoTable(t *testing.T) {
	_, err := ExtractRecords("<p>no tables</p>", ExtractOptions{HeaderMarker: testMarker, HTML: true})
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain ", "plain"},
		{"**bold**", "bold"},
		{"[Acme](https://x)", "Acme"},
		{"**[Acme](https://x)**", "Acme"},
		{"NYC</br>SF", "NYC, SF"},
		{`<a href="x"><img src="y"></a>`, ""},
		{"`code`", "code"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanCell(tt.in))
		})
	}
}

func TestIsSeparatorRow(t *testing.T) {
	assert.True(t, isSeparatorRow("|---|---|"))
	assert.True(t, isSeparatorRow("| :--- | :---: |"))
	assert.False(t, isSeparatorRow("| a | b |"))
	assert.False(t, isSeparatorRow("| | |"))
}
