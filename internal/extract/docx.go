package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperifyio/gorate/internal/table"
)

const documentPart = "word/document.xml"

// docxTables lists the top-level tables of a WordprocessingML package in
// document order. Tables nested inside a cell contribute their text to that
// cell and are not reported separately.
func docxTables(doc []byte) ([]table.Raw, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, errors.New("docx: missing " + documentPart)
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", documentPart, err)
	}
	defer rc.Close()
	return scanTables(rc)
}

// cellState accumulates one w:tc at the outermost table level.
type cellState struct {
	text      strings.Builder
	paras     int
	span      int
	vContinue bool
}

func scanTables(r io.Reader) ([]table.Raw, error) {
	dec := xml.NewDecoder(r)
	var (
		tables  []table.Raw
		cur     *table.Raw
		row     []string
		prevRow []string
		cell    *cellState
		depth   int // w:tbl nesting
		inText  bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tbl":
				depth++
				if depth == 1 {
					cur = &table.Raw{}
					prevRow = nil
				}
			case "tr":
				if depth == 1 {
					row = []string{}
				}
			case "tc":
				if depth == 1 {
					cell = &cellState{span: 1}
				}
			case "gridSpan":
				if depth == 1 && cell != nil {
					if n, err := strconv.Atoi(attr(el, "val")); err == nil && n > 1 {
						cell.span = n
					}
				}
			case "vMerge":
				if depth == 1 && cell != nil {
					v := attr(el, "val")
					cell.vContinue = v == "" || v == "continue"
				}
			case "p":
				if cell != nil {
					if cell.paras > 0 {
						cell.text.WriteByte('\n')
					}
					cell.paras++
				}
			case "t":
				inText = cell != nil
			case "tab":
				if cell != nil {
					cell.text.WriteByte('\t')
				}
			case "br", "cr":
				if cell != nil {
					cell.text.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText && cell != nil {
				cell.text.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "tc":
				if depth == 1 && cell != nil {
					row = appendCell(row, prevRow, cell)
					cell = nil
				}
			case "tr":
				if depth == 1 && cur != nil {
					cur.Rows = append(cur.Rows, row)
					prevRow = row
					row = nil
				}
			case "tbl":
				if depth == 1 && cur != nil {
					tables = append(tables, *cur)
					cur = nil
				}
				if depth > 0 {
					depth--
				}
			}
		}
	}
	return tables, nil
}

// appendCell adds a finished cell once per grid column it spans. A vertical
// merge continuation repeats the text of the cell above it.
func appendCell(row, prevRow []string, c *cellState) []string {
	text := c.text.String()
	for k := 0; k < c.span; k++ {
		v := text
		if c.vContinue {
			if pos := len(row); pos < len(prevRow) {
				v = prevRow[pos]
			}
		}
		row = append(row, v)
	}
	return row
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
