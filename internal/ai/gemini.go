package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/extract"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

const DefaultModel = "gemini-2.5-flash"

// generator is the part of the genai client the extractor calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini extracts tables by sending the PDF to a Gemini model and asking
// for the grids as JSON. It satisfies extract.Extractor.
type Gemini struct {
	gen     generator
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	pages   func(path, selection string) ([]int, error)
}

type GeminiConfig struct {
	APIKey string
	Model  string
	// Failures in a row that open the breaker.
	MaxFailures uint32
	// How long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

func NewGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return newGemini(c.Models, cfg, logger), nil
}

func newGemini(gen generator, cfg GeminiConfig, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gemini",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Gemini{gen: gen, model: cfg.Model, breaker: breaker, logger: logger, pages: extract.ResolvePages}
}

func (g *Gemini) Extract(ctx context.Context, path string, opts extract.Options) ([]tables.RawTable, error) {
	pages, err := g.pages(path, opts.Pages)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	content := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{Text: tablePrompt(opts.Flavor, pages)},
				{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: b}},
			},
		},
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.gen.GenerateContent(ctx, g.model, content, config)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	js := res.(*genai.GenerateContentResponse).Text()
	g.logger.Debug("gemini response", zap.Int("bytes", len(js)))

	doc, err := parseExtractedDoc(js)
	if err != nil {
		return nil, err
	}
	out := doc.RawTables(opts.Flavor)
	g.logger.Info("gemini extraction finished", zap.Int("tables", len(out)), zap.String("model", g.model))
	return filterPages(out, pages), nil
}

func tablePrompt(flavor string, pages []int) string {
	hint := "Tables are drawn with ruling lines around the cells."
	if flavor == extract.FlavorStream {
		hint = "Tables have no ruling lines; columns are separated by whitespace."
	}
	nums := make([]string, len(pages))
	for i, p := range pages {
		nums[i] = strconv.Itoa(p)
	}
	return `You are a table extractor. Return ONLY valid JSON - no markdown code blocks, no explanations.

Extract every table from the attached PDF, restricted to pages: ` + strings.Join(nums, ", ") + `.
` + hint + `
Output ONLY this JSON structure:
{
  "tables": [
    {"page": 1, "confidence": 92.5, "rows": [["cell", "cell"], ["cell", "cell"]]}
  ]
}

RULES:
- page: 1-based page number the table is on
- confidence: your certainty that the grid is correct, 0 to 100
- rows: every row of the table top to bottom, including title and header rows, as strings exactly as printed
- every row of one table has the same number of cells; use "" for empty cells
- keep numbers as printed, do not reformat decimal commas
- list tables in reading order
`
}

// parseExtractedDoc reads the model output, tolerating code fences or
// chatter around the JSON object.
func parseExtractedDoc(js string) (ExtractedDoc, error) {
	var out ExtractedDoc
	js = stripCodeFences(js)
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		s := findFirstJSON(js)
		if s == "" {
			return out, fmt.Errorf("failed to parse Gemini response - no JSON found: %w", err)
		}
		if err2 := json.Unmarshal([]byte(s), &out); err2 != nil {
			return out, fmt.Errorf("failed to parse Gemini response as JSON: %w (original error: %v)", err2, err)
		}
	}
	return out, nil
}

func filterPages(ts []tables.RawTable, pages []int) []tables.RawTable {
	want := make(map[int]bool, len(pages))
	for _, p := range pages {
		want[p] = true
	}
	out := ts[:0]
	for _, t := range ts {
		if t.Page == 0 || want[t.Page] {
			out = append(out, t)
		}
	}
	return out
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func findFirstJSON(s string) string {
	// naive scan for the first balanced {...}
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
