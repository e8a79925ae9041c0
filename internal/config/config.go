// Package config loads pdf2xlsx settings from defaults, an optional YAML
// file and PDF2XLSX_* environment variables. Command line flags are applied
// on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/convert"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/extract"
)

const (
	EngineNative = "native"
	EngineGemini = "gemini"

	envPrefix = "PDF2XLSX_"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Merge      MergeConfig      `yaml:"merge"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadMB     int64         `yaml:"max_upload_mb"`
	RateLimit       float64       `yaml:"rate_limit"`
	RateBurst       int           `yaml:"rate_burst"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TempDir         string        `yaml:"temp_dir"`
}

type ExtractionConfig struct {
	Engine        string  `yaml:"engine"`
	Mode          string  `yaml:"mode"`
	Pages         string  `yaml:"pages"`
	RowTolerance  float64 `yaml:"row_tolerance"`
	WordGap       float64 `yaml:"word_gap"`
	SnapTolerance float64 `yaml:"snap_tolerance"`
	LineWidth     float64 `yaml:"line_width"`
	ColumnShare   float64 `yaml:"column_share"`
	MinRows       int     `yaml:"min_rows"`
	MinCols       int     `yaml:"min_cols"`
}

type GeminiConfig struct {
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

type MergeConfig struct {
	PadMismatched bool `yaml:"pad_mismatched"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	s := extract.DefaultSettings()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadMB:     50,
			RateLimit:       2,
			RateBurst:       5,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
		},
		Extraction: ExtractionConfig{
			Engine:        EngineNative,
			Mode:          string(convert.ModeBordered),
			Pages:         extract.AllPages,
			RowTolerance:  s.RowTolerance,
			WordGap:       s.WordGap,
			SnapTolerance: s.SnapTolerance,
			LineWidth:     s.LineWidth,
			ColumnShare:   s.ColumnShare,
			MinRows:       s.MinRows,
			MinCols:       s.MinCols,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			APIKeyEnv:   "GOOGLE_API_KEY",
			MaxFailures: 3,
			OpenTimeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if any)
// and the environment. A missing file is an error only when path is set.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Server.Addr)
	str("TEMP_DIR", &c.Server.TempDir)
	str("ENGINE", &c.Extraction.Engine)
	str("MODE", &c.Extraction.Mode)
	str("PAGES", &c.Extraction.Pages)
	str("GEMINI_MODEL", &c.Gemini.Model)
	str("GEMINI_API_KEY_ENV", &c.Gemini.APIKeyEnv)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(envPrefix + "MAX_UPLOAD_MB"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_MB: %w", envPrefix, err)
		}
		c.Server.MaxUploadMB = n
	}
	if v, ok := lookup(envPrefix + "RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", envPrefix, err)
		}
		c.Server.RateLimit = f
	}
	if v, ok := lookup(envPrefix + "PAD_MISMATCHED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPAD_MISMATCHED: %w", envPrefix, err)
		}
		c.Merge.PadMismatched = b
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Extraction.Engine {
	case EngineNative, EngineGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown extraction engine %q (want %s or %s)", c.Extraction.Engine, EngineNative, EngineGemini))
	}
	if _, err := convert.ParseMode(c.Extraction.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Extraction.MinRows < 1 || c.Extraction.MinCols < 1 {
		errs = append(errs, errors.New("extraction min_rows and min_cols must be at least 1"))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"row_tolerance", c.Extraction.RowTolerance},
		{"word_gap", c.Extraction.WordGap},
		{"snap_tolerance", c.Extraction.SnapTolerance},
		{"line_width", c.Extraction.LineWidth},
	} {
		if f.v <= 0 {
			errs = append(errs, fmt.Errorf("extraction %s must be positive, got %v", f.name, f.v))
		}
	}
	if c.Extraction.ColumnShare <= 0 || c.Extraction.ColumnShare > 1 {
		errs = append(errs, fmt.Errorf("extraction column_share %v outside (0,1]", c.Extraction.ColumnShare))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("server max_upload_mb must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Settings maps the extraction section onto the native engine settings.
func (e ExtractionConfig) Settings() extract.Settings {
	return extract.Settings{
		RowTolerance:  e.RowTolerance,
		WordGap:       e.WordGap,
		SnapTolerance: e.SnapTolerance,
		LineWidth:     e.LineWidth,
		ColumnShare:   e.ColumnShare,
		MinRows:       e.MinRows,
		MinCols:       e.MinCols,
	}
}

// APIKey reads the Gemini key from the configured environment variable.
func (g GeminiConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}
