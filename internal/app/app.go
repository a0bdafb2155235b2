package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorate/internal/aggregate"
	"github.com/hyperifyio/gorate/internal/cache"
	"github.com/hyperifyio/gorate/internal/extract"
	"github.com/hyperifyio/gorate/internal/filter"
	"github.com/hyperifyio/gorate/internal/llm"
	"github.com/hyperifyio/gorate/internal/pipeline"
	"github.com/hyperifyio/gorate/internal/report"
	"github.com/hyperifyio/gorate/internal/stage"
	"github.com/hyperifyio/gorate/internal/translate"
)

// ErrNoResult is returned when the run produced no valuation: extraction or
// column resolution failed, or nothing numeric was left to average.
var ErrNoResult = errors.New("no valuation produced")

// ErrInputTooLarge is returned before processing when the document exceeds
// MaxInputBytes.
var ErrInputTooLarge = errors.New("input exceeds size limit")

type App struct {
	cfg      Config
	criteria filter.Criteria
	pipe     *pipeline.Pipeline
	// cacheName describes the effective cache after fallbacks.
	cacheName string
	closers   []func() error

	// Out receives the two summary lines; nil discards them.
	Out io.Writer
}

func New(ctx context.Context, cfg Config) (*App, error) {
	ApplyEnvToConfig(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	criteria, err := criteriaFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	format, _ := extract.ParseFormat(cfg.Format)
	rounding, _ := aggregate.ParseRounding(cfg.Rounding)

	a := &App{cfg: cfg, criteria: criteria, Out: os.Stdout}

	tc := a.openCache(ctx)
	tr := a.newTranslator(ctx)

	var engine filter.Engine = filter.Pipeline{}
	if cfg.Engine == "sqlite" {
		engine = stage.Engine{}
	}

	a.pipe = &pipeline.Pipeline{
		Extractor:       extract.Positional{TableIndex: cfg.TableIndex, Format: format},
		Normalizer:      translate.NewNormalizer(tr, tc),
		Names:           cfg.Columns,
		Criteria:        &a.criteria,
		Rounding:        rounding,
		Engine:          engine,
		Lenient:         cfg.Lenient,
		PromoteFirstRow: cfg.PromoteFirstRow,
	}
	return a, nil
}

// openCache builds the translation cache. Shared backends sit behind an
// in-memory front; when one is unreachable the run continues on memory only.
func (a *App) openCache(ctx context.Context) cache.TranslationCache {
	mem := cache.NewMemory()
	a.cacheName = "memory"
	switch a.cfg.CacheBackend {
	case "disk":
		if a.cfg.CacheClear {
			if err := cache.ClearDir(a.cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", a.cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if a.cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(a.cfg.CacheDir, a.cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", a.cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("removed", n).Msg("purged stale translations")
			}
		}
		a.cacheName = "disk"
		return cache.Layered{Front: mem, Back: &cache.Disk{Dir: a.cfg.CacheDir, StrictPerms: a.cfg.CacheStrictPerms}}
	case "redis":
		r, err := cache.NewRedis(a.cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis url invalid; using memory cache")
			return mem
		}
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := r.Ping(pctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable; using memory cache")
			_ = r.Close()
			return mem
		}
		if a.cfg.CacheClear {
			if err := r.Clear(ctx); err != nil {
				log.Warn().Err(err).Msg("redis cache clear failed")
			}
		}
		a.closers = append(a.closers, r.Close)
		a.cacheName = "redis"
		return cache.Layered{Front: mem, Back: r}
	}
	return mem
}

func (a *App) newTranslator(ctx context.Context) translate.Translator {
	switch a.cfg.Translator {
	case "none":
		return nil
	case "llm":
		provider := llm.NewOpenAI(a.cfg.LLMBaseURL, a.cfg.LLMAPIKey, newTranslationHTTPClient(a.cfg.TranslateTimeout))
		// Preflight is best-effort; failures surface per call and fall back
		// to the original text.
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if models, err := provider.ListModels(pctx); err != nil {
			log.Warn().Err(err).Msg("LLM model list failed; continuing")
		} else {
			log.Debug().Int("count", len(models.Models)).Msg("LLM models available")
		}
		return &translate.LLMTranslator{Client: provider, Model: a.cfg.LLMModel}
	}
	return &translate.GoogleTranslator{
		BaseURL:    a.cfg.TranslateBaseURL,
		HTTPClient: newTranslationHTTPClient(a.cfg.TranslateTimeout),
		UserAgent:  a.cfg.UserAgent,
	}
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Debug().Err(err).Msg("close")
		}
	}
	a.closers = nil
}

// readInput loads the document, refusing anything above MaxInputBytes.
func (a *App) readInput() ([]byte, error) {
	limit := a.cfg.MaxInputBytes
	if limit == 0 {
		limit = DefaultMaxInputBytes
	}
	f, err := os.Open(a.cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	defer f.Close()
	doc, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if int64(len(doc)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrInputTooLarge, a.cfg.InputPath, limit)
	}
	return doc, nil
}

func (a *App) Run(ctx context.Context) error {
	doc, err := a.readInput()
	if err != nil {
		return err
	}

	res := a.pipe.Process(ctx, doc, a.cfg.ExcludedSurveys)

	meta := report.NewMeta(a.cfg.InputPath, doc)
	meta.ExcludedSurveys = a.cfg.ExcludedSurveys
	meta.Translator = pickNonEmpty(a.cfg.Translator, translatorDefault)
	meta.Cache = a.cacheName
	meta.Engine = pickNonEmpty(a.cfg.Engine, engineDefault)
	meta.Rounding = a.pipe.Rounding.String()
	meta.Version = Version()
	run := report.Run{Meta: meta, Criteria: a.criteria.WithSurveys(a.cfg.ExcludedSurveys), Result: res}

	if err := a.writeOutputs(run); err != nil {
		return err
	}

	if a.Out != nil {
		fmt.Fprintln(a.Out, res.English)
		if res.Marathi != "" {
			fmt.Fprintln(a.Out, res.Marathi)
		}
	}
	log.Info().
		Str("run", meta.RunID).
		Dur("took", res.Duration).
		Int("translations", res.Translation.Calls).
		Int("cache_hits", res.Translation.Hits).
		Int("translation_failures", res.Translation.Failures).
		Msg("run complete")

	if res.Failed() {
		return fmt.Errorf("%w: %s", ErrNoResult, res.English)
	}
	if !res.Summary.OK {
		return fmt.Errorf("%w: %s", ErrNoResult, res.English)
	}
	return nil
}

func (a *App) writeOutputs(run report.Run) error {
	md := report.Markdown(run)
	if err := os.WriteFile(a.cfg.OutputPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")

	if data, err := report.ManifestJSON(run); err != nil {
		log.Warn().Err(err).Msg("manifest encode failed")
	} else if err := os.WriteFile(report.SidecarPath(a.cfg.OutputPath), data, 0o644); err != nil {
		log.Warn().Err(err).Msg("manifest write failed")
	}

	if p := strings.TrimSpace(a.cfg.OutputXLSX); p != "" {
		if err := report.WriteXLSX(run, p); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		log.Info().Str("out", p).Msg("wrote workbook")
	}
	if p := strings.TrimSpace(a.cfg.OutputPDF); p != "" {
		if err := report.WritePDF(run, p); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", p).Msg("wrote pdf")
	}
	return nil
}

func pickNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
