package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/ai"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/config"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/convert"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/extract"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/logging"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

// errReported means the user already saw the failure on stderr.
var errReported = errors.New("conversion failed")

type app struct {
	configPath string
	logLevel   string
	logFormat  string
	engine     string

	newLogger    func(logging.Config) (*zap.Logger, error)
	newExtractor func(context.Context, config.Config, *zap.Logger) (extract.Extractor, error)
}

func defaultApp() *app {
	return &app{newLogger: logging.New, newExtractor: newExtractor}
}

// setup loads the config, applies the global flags and builds the
// converter shared by both commands.
func (a *app) setup(ctx context.Context, override func(*config.Config)) (config.Config, *convert.Converter, *zap.Logger, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return cfg, nil, nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.engine != "" {
		cfg.Extraction.Engine = a.engine
	}
	if override != nil {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, err
	}

	logger, err := a.newLogger(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return cfg, nil, nil, err
	}
	ex, err := a.newExtractor(ctx, cfg, logger)
	if err != nil {
		return cfg, nil, nil, err
	}
	conv := convert.New(ex,
		convert.WithLogger(logger),
		convert.WithMergeOptions(tables.MergeOptions{PadMismatched: cfg.Merge.PadMismatched}),
		convert.WithTempDir(cfg.Server.TempDir),
	)
	return cfg, conv, logger, nil
}

func newExtractor(ctx context.Context, cfg config.Config, logger *zap.Logger) (extract.Extractor, error) {
	switch cfg.Extraction.Engine {
	case config.EngineGemini:
		key := cfg.Gemini.APIKey()
		if key == "" {
			return nil, fmt.Errorf("gemini engine needs an API key in $%s", cfg.Gemini.APIKeyEnv)
		}
		return ai.NewGemini(ctx, ai.GeminiConfig{
			APIKey:      key,
			Model:       cfg.Gemini.Model,
			MaxFailures: cfg.Gemini.MaxFailures,
			OpenTimeout: cfg.Gemini.OpenTimeout,
		}, logger.Named("gemini"))
	default:
		return extract.NewEngine(cfg.Extraction.Settings(), logger.Named("extract")), nil
	}
}
