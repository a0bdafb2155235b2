// Package docxtest builds minimal WordprocessingML packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"
)

const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const footer = `<w:sectPr/></w:body></w:document>`

// Build returns a .docx payload containing one paragraph followed by each
// table in order. Cell text containing "\n" becomes separate paragraphs.
func Build(tables ...[][]string) []byte {
	var b strings.Builder
	b.WriteString(`<w:p><w:r><w:t>Index II</w:t></w:r></w:p>`)
	for _, t := range tables {
		b.WriteString(Table(t))
	}
	return Package(b.String())
}

// Table renders rows as a w:tbl fragment.
func Table(rows [][]string) string {
	var b strings.Builder
	b.WriteString(`<w:tbl><w:tblPr/>`)
	for _, row := range rows {
		b.WriteString(`<w:tr>`)
		for _, cell := range row {
			b.WriteString(Cell(cell))
		}
		b.WriteString(`</w:tr>`)
	}
	b.WriteString(`</w:tbl>`)
	return b.String()
}

// Cell renders a plain w:tc fragment.
func Cell(text string) string {
	var b strings.Builder
	b.WriteString(`<w:tc><w:tcPr/>`)
	for _, para := range strings.Split(text, "\n") {
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		_ = xml.EscapeText(&b, []byte(para))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:tc>`)
	return b.String()
}

// Package wraps a w:body fragment into a zip package.
func Package(body string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   header + body + footer,
	}
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
