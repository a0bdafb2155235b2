// Package filter applies the eligibility rules that decide which registered
// transactions count towards the valuation.
package filter

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/gorate/internal/table"
)

// Field is a column the filter stages and the aggregator depend on.
type Field int

const (
	Date Field = iota
	Price
	PerUnit
	DeedType
	Survey
	numFields
)

// Fields lists every Field in resolution order.
var Fields = []Field{Date, Price, PerUnit, DeedType, Survey}

func (f Field) String() string {
	switch f {
	case Date:
		return "date"
	case Price:
		return "price"
	case PerUnit:
		return "per_unit"
	case DeedType:
		return "deed_type"
	case Survey:
		return "survey"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Names holds the expected header text of each Field after translation.
type Names struct {
	Date     string `yaml:"date" json:"date"`
	Price    string `yaml:"price" json:"price"`
	PerUnit  string `yaml:"per_unit" json:"per_unit"`
	DeedType string `yaml:"deed_type" json:"deed_type"`
	Survey   string `yaml:"survey" json:"survey"`
}

// DefaultNames are the English headers Google Translate produces for an
// index-II extract.
func DefaultNames() Names {
	return Names{
		Date:     "Date",
		Price:    "Purchase price",
		PerUnit:  "Per sq. M.",
		DeedType: "Type of document",
		Survey:   "Survey No.",
	}
}

// For returns the configured header for f.
func (n Names) For(f Field) string {
	switch f {
	case Date:
		return n.Date
	case Price:
		return n.Price
	case PerUnit:
		return n.PerUnit
	case DeedType:
		return n.DeedType
	case Survey:
		return n.Survey
	}
	return ""
}

// WithDefaults fills blank names from DefaultNames.
func (n Names) WithDefaults() Names {
	d := DefaultNames()
	if strings.TrimSpace(n.Date) == "" {
		n.Date = d.Date
	}
	if strings.TrimSpace(n.Price) == "" {
		n.Price = d.Price
	}
	if strings.TrimSpace(n.PerUnit) == "" {
		n.PerUnit = d.PerUnit
	}
	if strings.TrimSpace(n.DeedType) == "" {
		n.DeedType = d.DeedType
	}
	if strings.TrimSpace(n.Survey) == "" {
		n.Survey = d.Survey
	}
	return n
}

// Schema is the set of column names resolved against one table. A field
// that is absent resolves to "".
type Schema struct {
	cols [numFields]string
}

// Column returns the resolved column name of f, or "".
func (s Schema) Column(f Field) string {
	if f < 0 || f >= numFields {
		return ""
	}
	return s.cols[f]
}

// Has reports whether f was found in the table.
func (s Schema) Has(f Field) bool { return s.Column(f) != "" }

// Missing lists the fields that did not resolve.
func (s Schema) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		if !s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// MissingColumnsError names every expected column absent from a table.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing required columns: " + strings.Join(e.Columns, ", ")
}

// ResolveSchema binds every Field to a column of t and fails with
// *MissingColumnsError listing all absent columns.
func ResolveSchema(t *table.Table, names Names) (Schema, error) {
	s, missing := ResolveSchemaLenient(t, names)
	if len(missing) > 0 {
		return s, &MissingColumnsError{Columns: missing}
	}
	return s, nil
}

// ResolveSchemaLenient binds what it can and returns the names of the
// columns it could not find.
func ResolveSchemaLenient(t *table.Table, names Names) (Schema, []string) {
	names = names.WithDefaults()
	var s Schema
	var missing []string
	for _, f := range Fields {
		name := names.For(f)
		if t.Has(name) {
			s.cols[f] = name
			continue
		}
		missing = append(missing, name)
	}
	return s, missing
}
