package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/gorate/internal/aggregate"
	"github.com/hyperifyio/gorate/internal/dates"
	"github.com/hyperifyio/gorate/internal/extract"
	"github.com/hyperifyio/gorate/internal/filter"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Input           string `yaml:"input" json:"input"`
	Output          string `yaml:"output" json:"output"`
	OutputXLSX      string `yaml:"outputXLSX" json:"outputXLSX"`
	OutputPDF       string `yaml:"outputPDF" json:"outputPDF"`
	ExcludedSurveys string `yaml:"excludedSurveys" json:"excludedSurveys"`
	MaxInputBytes   int64  `yaml:"maxInputBytes" json:"maxInputBytes"`
	Verbose         bool   `yaml:"verbose" json:"verbose"`

	Extract struct {
		Format          string `yaml:"format" json:"format"`
		TableIndex      *int   `yaml:"tableIndex" json:"tableIndex"`
		PromoteFirstRow bool   `yaml:"promoteFirstRow" json:"promoteFirstRow"`
	} `yaml:"extract" json:"extract"`

	Translate struct {
		Backend string        `yaml:"backend" json:"backend"`
		BaseURL string        `yaml:"base" json:"base"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
		UA      string        `yaml:"ua" json:"ua"`
	} `yaml:"translate" json:"translate"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Cache struct {
		Backend     string        `yaml:"backend" json:"backend"`
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		RedisURL    string        `yaml:"redis" json:"redis"`
	} `yaml:"cache" json:"cache"`

	Filter struct {
		Engine            string               `yaml:"engine" json:"engine"`
		Lenient           bool                 `yaml:"lenient" json:"lenient"`
		StartDate         string               `yaml:"startDate" json:"startDate"`
		EndDate           string               `yaml:"endDate" json:"endDate"`
		ExcludedDeedTypes []string             `yaml:"excludedDeedTypes" json:"excludedDeedTypes"`
		Columns           filter.Names         `yaml:"columns" json:"columns"`
		Override          *filter.OverrideRule `yaml:"override" json:"override"`
	} `yaml:"filter" json:"filter"`

	Aggregate struct {
		Rounding string `yaml:"rounding" json:"rounding"`
	} `yaml:"aggregate" json:"aggregate"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for any fields that are
// unset or still hold their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, def, v string) {
		if (*dst == "" || *dst == def) && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	str(&cfg.InputPath, "", fc.Input)
	str(&cfg.OutputPath, outputDefault, fc.Output)
	str(&cfg.OutputXLSX, "", fc.OutputXLSX)
	str(&cfg.OutputPDF, "", fc.OutputPDF)
	str(&cfg.ExcludedSurveys, "", fc.ExcludedSurveys)
	if (cfg.MaxInputBytes == 0 || cfg.MaxInputBytes == DefaultMaxInputBytes) && fc.MaxInputBytes > 0 {
		cfg.MaxInputBytes = fc.MaxInputBytes
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	str(&cfg.Format, "", fc.Extract.Format)
	if fc.Extract.TableIndex != nil && cfg.TableIndex == extract.DefaultTableIndex {
		cfg.TableIndex = *fc.Extract.TableIndex
	}
	if !cfg.PromoteFirstRow && fc.Extract.PromoteFirstRow {
		cfg.PromoteFirstRow = true
	}

	str(&cfg.Translator, translatorDefault, fc.Translate.Backend)
	str(&cfg.TranslateBaseURL, "", fc.Translate.BaseURL)
	str(&cfg.UserAgent, "gorate/"+BuildVersion, fc.Translate.UA)
	if cfg.TranslateTimeout == 0 && fc.Translate.Timeout > 0 {
		cfg.TranslateTimeout = fc.Translate.Timeout
	}

	str(&cfg.LLMBaseURL, "", fc.LLM.BaseURL)
	str(&cfg.LLMModel, "", fc.LLM.Model)
	str(&cfg.LLMAPIKey, "", fc.LLM.APIKey)

	str(&cfg.CacheBackend, cacheDefault, fc.Cache.Backend)
	str(&cfg.CacheDir, cacheDirDefault, fc.Cache.Dir)
	str(&cfg.RedisURL, "", fc.Cache.RedisURL)
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	str(&cfg.Engine, engineDefault, fc.Filter.Engine)
	if !cfg.Lenient && fc.Filter.Lenient {
		cfg.Lenient = true
	}
	str(&cfg.StartDate, "", fc.Filter.StartDate)
	str(&cfg.EndDate, "", fc.Filter.EndDate)
	if len(cfg.ExcludedDeedTypes) == 0 && len(fc.Filter.ExcludedDeedTypes) > 0 {
		cfg.ExcludedDeedTypes = append([]string{}, fc.Filter.ExcludedDeedTypes...)
	}
	if cfg.Columns == (filter.Names{}) {
		cfg.Columns = fc.Filter.Columns
	}
	if cfg.Override == nil && fc.Filter.Override != nil {
		o := *fc.Filter.Override
		cfg.Override = &o
	}

	str(&cfg.Rounding, roundingDefault, fc.Aggregate.Rounding)
}

// ValidateConfig performs schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: input path is required")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	if cfg.TableIndex < 0 {
		return errors.New("config: table index must not be negative")
	}
	if cfg.MaxInputBytes < 0 {
		return errors.New("config: max input bytes must not be negative")
	}
	if _, err := extract.ParseFormat(cfg.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch cfg.Translator {
	case "", "google", "none":
	case "llm":
		if strings.TrimSpace(cfg.LLMModel) == "" {
			return errors.New("config: llm.model is required for the llm translator (or set LLM_MODEL)")
		}
	default:
		return fmt.Errorf("config: unknown translator %q (want google, llm or none)", cfg.Translator)
	}
	switch cfg.CacheBackend {
	case "", "memory":
	case "disk":
		if strings.TrimSpace(cfg.CacheDir) == "" {
			return errors.New("config: cache.dir is required for the disk cache")
		}
	case "redis":
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return errors.New("config: cache.redis is required for the redis cache (or set REDIS_URL)")
		}
	default:
		return fmt.Errorf("config: unknown cache backend %q (want memory, disk or redis)", cfg.CacheBackend)
	}
	switch cfg.Engine {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("config: unknown filter engine %q (want memory or sqlite)", cfg.Engine)
	}
	if _, err := aggregate.ParseRounding(cfg.Rounding); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := criteriaFromConfig(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// criteriaFromConfig builds filter criteria from the defaults and any
// configured window, deed types and override rule.
func criteriaFromConfig(cfg Config) (filter.Criteria, error) {
	c := filter.DefaultCriteria()
	if s := strings.TrimSpace(cfg.StartDate); s != "" {
		t, ok := dates.ParseISO(s)
		if !ok {
			return c, fmt.Errorf("start date %q is not YYYY-MM-DD", s)
		}
		c.StartDate = t
	}
	if s := strings.TrimSpace(cfg.EndDate); s != "" {
		t, ok := dates.ParseISO(s)
		if !ok {
			return c, fmt.Errorf("end date %q is not YYYY-MM-DD", s)
		}
		c.EndDate = t
	}
	if len(cfg.ExcludedDeedTypes) > 0 {
		c.ExcludedDeedTypes = append([]string(nil), cfg.ExcludedDeedTypes...)
	}
	if cfg.Override != nil {
		o := *cfg.Override
		c.Override = &o
	}
	return c, c.Validate()
}
