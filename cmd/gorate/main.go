// Command gorate computes the ready-reckoner valuation line from an index-II
// registration extract.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorate/internal/app"
	"github.com/hyperifyio/gorate/internal/filter"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if opts.showVersion {
		fmt.Println("gorate " + app.Version())
		return
	}

	if err := app.LoadEnvFiles(opts.envFiles...); err != nil {
		log.Fatal().Err(err).Msg("load env files")
	}
	cfg, err := resolveConfig(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps run errors: 2 when the document yielded no valuation,
// 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoResult):
		return 2
	}
	return 1
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

type options struct {
	flags       app.Config
	set         map[string]bool
	envFiles    []string
	configPath  string
	showVersion bool

	deedTypes        string
	overrideDeedType string
	overridePrice    float64
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	o := options{flags: app.DefaultConfig(), set: map[string]bool{}}
	c := &o.flags

	fs := flag.NewFlagSet("gorate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: gorate [flags] [index2.docx]")
		fs.PrintDefaults()
	}

	var envFiles string
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading the environment")
	fs.StringVar(&o.configPath, "config", "", "Path to YAML or JSON config file")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")

	fs.StringVar(&c.InputPath, "input", c.InputPath, "Path to the registration document (DOCX or HTML)")
	fs.StringVar(&c.OutputPath, "output", c.OutputPath, "Path to write the Markdown report")
	fs.StringVar(&c.OutputXLSX, "xlsx", c.OutputXLSX, "Optional path to write an XLSX workbook")
	fs.StringVar(&c.OutputPDF, "pdf", c.OutputPDF, "Optional path to write a PDF summary")
	fs.StringVar(&c.ExcludedSurveys, "surveys", c.ExcludedSurveys, "Survey numbers to exclude, separated by spaces or commas")
	fs.StringVar(&c.Format, "format", c.Format, "Document format: auto, docx or html")
	fs.IntVar(&c.TableIndex, "table", c.TableIndex, "Zero-based position of the transaction table")
	fs.BoolVar(&c.PromoteFirstRow, "promote-row", c.PromoteFirstRow, "Use the first data row as the header")
	fs.Int64Var(&c.MaxInputBytes, "max-bytes", c.MaxInputBytes, "Reject documents larger than this many bytes")

	fs.StringVar(&c.Translator, "translator", c.Translator, "Translation backend: google, llm or none")
	fs.StringVar(&c.TranslateBaseURL, "translate.base", c.TranslateBaseURL, "Base URL of the Google-compatible translate endpoint")
	fs.DurationVar(&c.TranslateTimeout, "translate.timeout", c.TranslateTimeout, "Per-request translation timeout")
	fs.StringVar(&c.UserAgent, "translate.ua", c.UserAgent, "User-Agent for translation requests")
	fs.StringVar(&c.LLMBaseURL, "llm.base", c.LLMBaseURL, "OpenAI-compatible base URL")
	fs.StringVar(&c.LLMModel, "llm.model", c.LLMModel, "Model name")
	fs.StringVar(&c.LLMAPIKey, "llm.key", c.LLMAPIKey, "API key for OpenAI-compatible server")

	fs.StringVar(&c.CacheBackend, "cache", c.CacheBackend, "Translation cache: memory, disk or redis")
	fs.StringVar(&c.CacheDir, "cache.dir", c.CacheDir, "Disk cache directory")
	fs.DurationVar(&c.CacheMaxAge, "cache.maxAge", c.CacheMaxAge, "Purge disk cache entries older than this; 0 disables")
	fs.BoolVar(&c.CacheClear, "cache.clear", c.CacheClear, "Clear the translation cache before the run")
	fs.BoolVar(&c.CacheStrictPerms, "cache.strictPerms", c.CacheStrictPerms, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Redis URL for the shared cache")

	fs.StringVar(&c.Engine, "engine", c.Engine, "Filter engine: memory or sqlite")
	fs.BoolVar(&c.Lenient, "lenient", c.Lenient, "Skip filter stages whose column is missing instead of failing")
	fs.StringVar(&c.Rounding, "rounding", c.Rounding, "Top-half selection rounding: ceil or floor")
	fs.StringVar(&c.StartDate, "start", c.StartDate, "First day of the date window (YYYY-MM-DD)")
	fs.StringVar(&c.EndDate, "end", c.EndDate, "Last day of the date window (YYYY-MM-DD)")
	fs.StringVar(&o.deedTypes, "deed-types", "", "Comma-separated deed types to exclude (replaces the defaults)")
	fs.StringVar(&o.overrideDeedType, "override.deedType", "", "Deed type excluded unless its price equals -override.price")
	fs.Float64Var(&o.overridePrice, "override.price", 0, "Price that keeps -override.deedType rows")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if rest := fs.Args(); len(rest) > 0 {
		if len(rest) > 1 || o.set["input"] {
			err := errors.New("expected at most one input document")
			fmt.Fprintln(stderr, err)
			return o, err
		}
		c.InputPath = rest[0]
		o.set["input"] = true
	}
	if s := strings.TrimSpace(o.deedTypes); s != "" {
		c.ExcludedDeedTypes = splitList(s)
	}
	if s := strings.TrimSpace(o.overrideDeedType); s != "" {
		c.Override = &filter.OverrideRule{DeedType: s, Price: o.overridePrice}
	}
	o.envFiles = splitList(envFiles)
	return o, nil
}

// resolveConfig layers defaults, the config file, the environment and
// explicitly set flags, in increasing precedence.
func resolveConfig(o options) (app.Config, error) {
	cfg := app.DefaultConfig()
	if p := strings.TrimSpace(o.configPath); p != "" {
		fc, err := app.LoadConfigFile(p)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", p, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	f := o.flags
	for name, apply := range flagFields {
		if o.set[name] {
			apply(&cfg, f)
		}
	}
	if o.set["deed-types"] {
		cfg.ExcludedDeedTypes = f.ExcludedDeedTypes
	}
	if o.set["override.deedType"] {
		cfg.Override = f.Override
	}
	return cfg, nil
}

var flagFields = map[string]func(dst *app.Config, src app.Config){
	"input":             func(d *app.Config, s app.Config) { d.InputPath = s.InputPath },
	"output":            func(d *app.Config, s app.Config) { d.OutputPath = s.OutputPath },
	"xlsx":              func(d *app.Config, s app.Config) { d.OutputXLSX = s.OutputXLSX },
	"pdf":               func(d *app.Config, s app.Config) { d.OutputPDF = s.OutputPDF },
	"surveys":           func(d *app.Config, s app.Config) { d.ExcludedSurveys = s.ExcludedSurveys },
	"format":            func(d *app.Config, s app.Config) { d.Format = s.Format },
	"table":             func(d *app.Config, s app.Config) { d.TableIndex = s.TableIndex },
	"promote-row":       func(d *app.Config, s app.Config) { d.PromoteFirstRow = s.PromoteFirstRow },
	"max-bytes":         func(d *app.Config, s app.Config) { d.MaxInputBytes = s.MaxInputBytes },
	"translator":        func(d *app.Config, s app.Config) { d.Translator = s.Translator },
	"translate.base":    func(d *app.Config, s app.Config) { d.TranslateBaseURL = s.TranslateBaseURL },
	"translate.timeout": func(d *app.Config, s app.Config) { d.TranslateTimeout = s.TranslateTimeout },
	"translate.ua":      func(d *app.Config, s app.Config) { d.UserAgent = s.UserAgent },
	"llm.base":          func(d *app.Config, s app.Config) { d.LLMBaseURL = s.LLMBaseURL },
	"llm.model":         func(d *app.Config, s app.Config) { d.LLMModel = s.LLMModel },
	"llm.key":           func(d *app.Config, s app.Config) { d.LLMAPIKey = s.LLMAPIKey },
	"cache":             func(d *app.Config, s app.Config) { d.CacheBackend = s.CacheBackend },
	"cache.dir":         func(d *app.Config, s app.Config) { d.CacheDir = s.CacheDir },
	"cache.maxAge":      func(d *app.Config, s app.Config) { d.CacheMaxAge = s.CacheMaxAge },
	"cache.clear":       func(d *app.Config, s app.Config) { d.CacheClear = s.CacheClear },
	"cache.strictPerms": func(d *app.Config, s app.Config) { d.CacheStrictPerms = s.CacheStrictPerms },
	"redis":             func(d *app.Config, s app.Config) { d.RedisURL = s.RedisURL },
	"engine":            func(d *app.Config, s app.Config) { d.Engine = s.Engine },
	"lenient":           func(d *app.Config, s app.Config) { d.Lenient = s.Lenient },
	"rounding":          func(d *app.Config, s app.Config) { d.Rounding = s.Rounding },
	"start":             func(d *app.Config, s app.Config) { d.StartDate = s.StartDate },
	"end":               func(d *app.Config, s app.Config) { d.EndDate = s.EndDate },
	"v":                 func(d *app.Config, s app.Config) { d.Verbose = s.Verbose },
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
