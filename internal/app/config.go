package app

import (
	"time"

	"github.com/hyperifyio/gorate/internal/filter"
)

// DefaultMaxInputBytes caps the document size the CLI accepts.
const DefaultMaxInputBytes int64 = 5 << 20

// Config holds runtime configuration for the application.
type Config struct {
	InputPath  string
	OutputPath string
	OutputXLSX string
	OutputPDF  string

	// ExcludedSurveys is the free-form survey number list.
	ExcludedSurveys string

	// Extraction
	Format          string
	TableIndex      int
	PromoteFirstRow bool
	MaxInputBytes   int64

	// Translation: "google", "llm" or "none"
	Translator       string
	TranslateBaseURL string
	TranslateTimeout time.Duration
	UserAgent        string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Cache: "memory", "disk" or "redis"
	CacheBackend     string
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	RedisURL         string

	// Filter: engine "memory" or "sqlite"; rounding "ceil" or "floor"
	Engine            string
	Lenient           bool
	Rounding          string
	StartDate         string
	EndDate           string
	ExcludedDeedTypes []string
	Columns           filter.Names
	Override          *filter.OverrideRule

	Verbose bool
}

// Flag defaults; file config may replace a field still holding one of these.
const (
	outputDefault     = "valuation.md"
	translatorDefault = "google"
	cacheDefault      = "memory"
	cacheDirDefault   = ".gorate-cache"
	engineDefault     = "memory"
	roundingDefault   = "ceil"
)

// DefaultConfig returns the configuration the CLI starts from.
func DefaultConfig() Config {
	return Config{
		OutputPath:    outputDefault,
		TableIndex:    1,
		MaxInputBytes: DefaultMaxInputBytes,
		Translator:    translatorDefault,
		CacheBackend:  cacheDefault,
		CacheDir:      cacheDirDefault,
		Engine:        engineDefault,
		Rounding:      roundingDefault,
		UserAgent:     "gorate/" + BuildVersion,
	}
}
