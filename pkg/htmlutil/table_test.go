package htmlutil

import (
	"slices"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

const gradesTable = `<html><body>
<table class="other"><tr><td>decoy</td><td>x</td><td>y</td></tr></table>
<table class="cssbody wide">
	<tr><th>Code</th><th>Name</th><th>Hours</th></tr>
	<tr><td> 19CS201 </td><td>Data Structures</td><td>40</td></tr>
	<tr><td>19CS202</td><td>Operating Systems &amp; Networks</td><td>&nbsp;36&nbsp;</td></tr>
	<tr><td>19CS203</td><td>Compilers</td><td>
		32
	</td></tr>
	<tr><td colspan="3">Total</td></tr>
</table>
</body></html>`

func TestRowsDropsMalformedRows(t *testing.T) {
	doc := parse(t, gradesTable)

	table, err := FindTable(doc, "class", "cssbody")
	require.NoError(t, err)
	require.Equal(t, 5, table.Len())

	rows := slices.Collect(table.Rows(1, 3))
	require.Equal(t, [][]string{
		{"19CS201", "Data Structures", "40"},
		{"19CS202", "Operating Systems & Networks", "36"},
		{"19CS203", "Compilers", "32"},
	}, rows)
}

func TestRowsStopsEarly(t *testing.T) {
	doc := parse(t, gradesTable)
	table, err := FindTable(doc, "class", "cssbody")
	require.NoError(t, err)

	var seen []string
	for row := range table.Rows(1, 3) {
		seen = append(seen, row[0])
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []string{"19CS201", "19CS202"}, seen)
}

func TestFindTableNotFound(t *testing.T) {
	doc := parse(t, gradesTable)

	_, err := FindTable(doc, "id", "TbCourDesc")
	require.ErrorIs(t, err, ErrNotFound)

	// class tokens must match whole words
	_, err = FindTable(doc, "class", "css")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindTableById(t *testing.T) {
	doc := parse(t, `<table id="TbCourDesc"><tr><td>a</td><td>b</td></tr></table>`)
	table, err := FindTable(doc, "id", "TbCourDesc")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a", "b"}}, slices.Collect(table.Rows(0, 2)))
}

func TestZeroTableYieldsNothing(t *testing.T) {
	require.Empty(t, slices.Collect(Table{}.Rows(0, 0)))
}

func TestRowTextAndCompactText(t *testing.T) {
	doc := parse(t, `<table id="grid">
		<tr><th>Day</th><th>1</th></tr>
		<tr><td> MON </td><td> 19CS201 <br/> LAB </td></tr>
	</table>`)
	table, err := FindTable(doc, "id", "grid")
	require.NoError(t, err)

	require.Equal(t, "Day1", table.RowText(0))
	require.Equal(t, "MON19CS201LAB", table.RowText(1))
	require.Equal(t, "", table.RowText(7))

	rows := slices.Collect(table.RowsWith(RowOptions{CellText: CompactText}))
	require.Equal(t, [][]string{{}, {"MON", "19CS201LAB"}}, rows)
}

func TestNormalizeSpace(t *testing.T) {
	require.Equal(t, "Data Structures Lab", NormalizeSpace("  Data   Structures \n\t Lab "))
}
