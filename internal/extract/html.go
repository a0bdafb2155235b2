package extract

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/gorate/internal/table"
)

// htmlTables lists the top-level <table> elements of an HTML document in
// document order. Cell text is whitespace-normalized; colspan repeats the
// cell once per spanned column.
func htmlTables(input []byte) ([]table.Raw, error) {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	var out []table.Raw
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if isElement(cur, "table") {
			out = append(out, htmlTable(cur))
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(node)
	return out, nil
}

func htmlTable(n *html.Node) table.Raw {
	var raw table.Raw
	var rows func(*html.Node)
	rows = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case isElement(c, "table"):
				// nested tables belong to the enclosing cell
			case isElement(c, "tr"):
				raw.Rows = append(raw.Rows, htmlRow(c))
			default:
				rows(c)
			}
		}
	}
	rows(n)
	return raw
}

func htmlRow(tr *html.Node) []string {
	var row []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if !isElement(c, "td") && !isElement(c, "th") {
			continue
		}
		var b strings.Builder
		collectText(&b, c)
		text := normalizeWhitespace(b.String())
		span := 1
		for _, a := range c.Attr {
			if strings.EqualFold(a.Key, "colspan") {
				if n, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && n > 1 {
					span = n
				}
			}
		}
		for k := 0; k < span; k++ {
			row = append(row, text)
		}
	}
	return row
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			return
		case "br", "p", "div", "li":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		data := strings.ReplaceAll(n.Data, "\t", " ")
		b.WriteString(strings.ReplaceAll(data, "\r", " "))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// normalizeWhitespace collapses runs of spaces inside lines and drops blank lines.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, collapseSpaces(trimmed))
	}
	return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
