package htmlutil

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func writeCompactText(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(strings.TrimSpace(node.Data))
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeCompactText(child, buffer)
	}
}

// TrimmedText is the text of the selection with surrounding whitespace removed.
func TrimmedText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

// CompactText trims every text fragment under the selection and joins them without
// a separator, so "<td> 19CS201 <br> LAB </td>" becomes "19CS201LAB".
func CompactText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		writeCompactText(n, &buffer)
	}
	return buffer.String()
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// NormalizeSpace trims s and collapses inner runs of whitespace into a single space.
func NormalizeSpace(s string) string {
	return innerWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
