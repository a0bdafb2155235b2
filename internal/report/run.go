// Package report renders a valuation run as Markdown, a JSON manifest, an
// XLSX workbook and a PDF.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/gorate/internal/filter"
	"github.com/hyperifyio/gorate/internal/pipeline"
)

// Meta captures how a run was configured, for reproducibility.
type Meta struct {
	RunID           string    `json:"run_id"`
	Input           string    `json:"input"`
	InputSHA256     string    `json:"input_sha256"`
	InputBytes      int       `json:"input_bytes"`
	ExcludedSurveys string    `json:"excluded_surveys"`
	Translator      string    `json:"translator"`
	Cache           string    `json:"cache"`
	Engine          string    `json:"engine"`
	Rounding        string    `json:"rounding"`
	Version         string    `json:"version"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Run bundles a pipeline result with its metadata.
type Run struct {
	Meta     Meta
	Criteria filter.Criteria
	Result   pipeline.Result
}

// NewMeta fills the identity fields of Meta for one input document.
func NewMeta(inputPath string, doc []byte) Meta {
	return Meta{
		RunID:       uuid.NewString(),
		Input:       inputPath,
		InputSHA256: SHA256Hex(doc),
		InputBytes:  len(doc),
		GeneratedAt: time.Now().UTC(),
	}
}

// SHA256Hex returns the lowercase hex digest of b.
func SHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// SidecarPath returns the manifest path next to a Markdown output.
func SidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
