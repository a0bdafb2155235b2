package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.InputPath, "GORATE_INPUT")
	setString(&cfg.OutputPath, "GORATE_OUTPUT")
	setString(&cfg.ExcludedSurveys, "GORATE_EXCLUDED_SURVEYS")
	setString(&cfg.Translator, "TRANSLATE_BACKEND")
	setString(&cfg.TranslateBaseURL, "TRANSLATE_BASE_URL")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	setString(&cfg.CacheBackend, "CACHE_BACKEND")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.Engine, "GORATE_ENGINE")
	setString(&cfg.Rounding, "GORATE_ROUNDING")

	if cfg.CacheMaxAge == 0 {
		if d, ok := envDuration("CACHE_MAX_AGE"); ok {
			cfg.CacheMaxAge = d
		}
	}
	if cfg.MaxInputBytes == 0 {
		if n, ok := envInt64("GORATE_MAX_INPUT_BYTES"); ok {
			cfg.MaxInputBytes = n
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if v, ok := envBool(envKey); ok && v {
			*dst = true
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.Lenient, "GORATE_LENIENT")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment
// variables that are set. It lets env win over a config file while flags
// stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	str := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str(&cfg.InputPath, "GORATE_INPUT")
	str(&cfg.OutputPath, "GORATE_OUTPUT")
	str(&cfg.OutputXLSX, "GORATE_XLSX")
	str(&cfg.OutputPDF, "GORATE_PDF")
	str(&cfg.ExcludedSurveys, "GORATE_EXCLUDED_SURVEYS")
	str(&cfg.Format, "GORATE_FORMAT")
	str(&cfg.Engine, "GORATE_ENGINE")
	str(&cfg.Rounding, "GORATE_ROUNDING")
	str(&cfg.StartDate, "GORATE_START_DATE")
	str(&cfg.EndDate, "GORATE_END_DATE")
	str(&cfg.Translator, "TRANSLATE_BACKEND")
	str(&cfg.TranslateBaseURL, "TRANSLATE_BASE_URL")
	str(&cfg.LLMBaseURL, "LLM_BASE_URL")
	str(&cfg.LLMModel, "LLM_MODEL")
	str(&cfg.LLMAPIKey, "LLM_API_KEY")
	str(&cfg.CacheBackend, "CACHE_BACKEND")
	str(&cfg.CacheDir, "CACHE_DIR")
	str(&cfg.RedisURL, "REDIS_URL")

	if n, ok := envInt64("GORATE_TABLE_INDEX"); ok {
		cfg.TableIndex = int(n)
	}
	if n, ok := envInt64("GORATE_MAX_INPUT_BYTES"); ok {
		cfg.MaxInputBytes = n
	}
	if d, ok := envDuration("TRANSLATE_TIMEOUT"); ok {
		cfg.TranslateTimeout = d
	}
	if d, ok := envDuration("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}

	for key, dst := range map[string]*bool{
		"VERBOSE":            &cfg.Verbose,
		"CACHE_CLEAR":        &cfg.CacheClear,
		"CACHE_STRICT_PERMS": &cfg.CacheStrictPerms,
		"GORATE_LENIENT":     &cfg.Lenient,
		"GORATE_PROMOTE_ROW": &cfg.PromoteFirstRow,
	} {
		if v, ok := envBool(key); ok {
			*dst = v
		}
	}
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

func envInt64(key string) (int64, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	return d, err == nil
}
