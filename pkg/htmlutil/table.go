package htmlutil

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotFound is returned when an element the caller expected is absent from the page,
// it is a recoverable "no data" condition.
var ErrNotFound = errors.New("element not found")

// Table is a located <table> element.
type Table struct {
	sel *goquery.Selection
}

func hasAttr(s *goquery.Selection, attr, value string) bool {
	actual, ok := s.Attr(attr)
	if !ok {
		return false
	}
	if attr != "class" {
		return actual == value
	}
	for _, class := range strings.Fields(actual) {
		if class == value {
			return true
		}
	}
	return false
}

// FindTable locates the first table whose attribute `attr` has `value`. The class
// attribute matches if any of its classes is `value`.
func FindTable(doc *goquery.Document, attr, value string) (Table, error) {
	sel := doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasAttr(s, attr, value)
	}).First()
	if sel.Length() == 0 {
		return Table{}, fmt.Errorf("table[%s=%s]: %w", attr, value, ErrNotFound)
	}
	return Table{sel: sel}, nil
}

func (t Table) rows() *goquery.Selection {
	return t.sel.Find("tr")
}

// Len is the number of rows in the table, including headers.
func (t Table) Len() int {
	return t.rows().Length()
}

// RowText is the compacted text of the i-th row (header cells included), or "" when
// the row does not exist.
func (t Table) RowText(i int) string {
	rows := t.rows()
	if i < 0 || i >= rows.Length() {
		return ""
	}
	return CompactText(rows.Eq(i))
}

// RowOptions controls which rows RowsWith yields and how their cells are read.
type RowOptions struct {
	// Skip drops the first N rows, usually to remove a header.
	Skip int
	// MinCells drops any row with fewer <td> cells.
	MinCells int
	// CellText extracts the text of a cell, it defaults to TrimmedText.
	CellText func(*goquery.Selection) string
}

// Rows lazily yields the trimmed text of the <td> cells of each row after skipping
// `skip` rows. Rows with fewer than `minCells` cells are skipped.
func (t Table) Rows(skip, minCells int) iter.Seq[[]string] {
	return t.RowsWith(RowOptions{Skip: skip, MinCells: minCells})
}

// RowsWith lazily yields the text of the <td> cells of each row selected by opts.
// <th> cells are never read, so a header-only row yields an empty slice unless
// MinCells filters it out.
func (t Table) RowsWith(opts RowOptions) iter.Seq[[]string] {
	cellText := opts.CellText
	if cellText == nil {
		cellText = TrimmedText
	}

	return func(yield func([]string) bool) {
		if t.sel == nil {
			return
		}
		rows := t.rows()
		for i := max(opts.Skip, 0); i < rows.Length(); i++ {
			tds := rows.Eq(i).Find("td")
			if tds.Length() < opts.MinCells {
				continue
			}
			cells := make([]string, 0, tds.Length())
			tds.Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, cellText(td))
			})
			if !yield(cells) {
				return
			}
		}
	}
}
