package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/extract"
)

type fakeGenerator struct {
	reply string
	err   error
	calls int

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model, f.contents, f.config = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func newTestGemini(t *testing.T, gen generator, cfg GeminiConfig) (*Gemini, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600))

	g := newGemini(gen, cfg, nil)
	g.pages = func(_, selection string) ([]int, error) {
		if selection == "9" {
			return nil, errors.New("page selection \"9\" matches none of the 3 pages")
		}
		return []int{1, 2, 3}, nil
	}
	return g, path
}

func TestGeminiExtract(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" + `{"tables":[
		{"page":1,"confidence":91.5,"rows":[["t",""],["A","B"],["1","2"]]},
		{"page":2,"confidence":140,"rows":[]},
		{"page":3,"confidence":-4,"rows":[["x","y"],["C","D"]]},
		{"page":8,"confidence":80,"rows":[["out","of"],["range","!"]]}
	]}` + "\n```"}
	g, path := newTestGemini(t, gen, GeminiConfig{})

	got, err := g.Extract(context.Background(), path, extract.Options{Pages: "all", Flavor: extract.FlavorStream})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, extract.FlavorStream, got[0].Flavor)
	assert.InDelta(t, 91.5, got[0].Confidence, 0.001)
	assert.Equal(t, [][]string{{"t", ""}, {"A", "B"}, {"1", "2"}}, got[0].Rows)
	assert.Equal(t, 3, got[1].Page)
	assert.Zero(t, got[1].Confidence)

	assert.Equal(t, DefaultModel, gen.model)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "pages: 1, 2, 3")
	assert.Contains(t, parts[0].Text, "whitespace")
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "application/pdf", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), parts[1].InlineData.Data)
}

func TestGeminiExtractBadSelectionSkipsCall(t *testing.T) {
	gen := &fakeGenerator{}
	g, path := newTestGemini(t, gen, GeminiConfig{})

	_, err := g.Extract(context.Background(), path, extract.Options{Pages: "9", Flavor: extract.FlavorLattice})
	require.Error(t, err)
	assert.Zero(t, gen.calls)
}

func TestGeminiExtractUnparseableReply(t *testing.T) {
	gen := &fakeGenerator{reply: "I could not find any tables."}
	g, path := newTestGemini(t, gen, GeminiConfig{})

	_, err := g.Extract(context.Background(), path, extract.Options{Pages: "all", Flavor: extract.FlavorLattice})
	assert.ErrorContains(t, err, "no JSON found")
}

func TestGeminiBreakerOpensAfterFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	g, path := newTestGemini(t, gen, GeminiConfig{MaxFailures: 2})
	opts := extract.Options{Pages: "all", Flavor: extract.FlavorLattice}

	for i := 0; i < 4; i++ {
		_, err := g.Extract(context.Background(), path, opts)
		require.Error(t, err)
	}
	assert.Equal(t, 2, gen.calls)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{}, nil)
	assert.Error(t, err)
}

func TestParseExtractedDocWithChatter(t *testing.T) {
	doc, err := parseExtractedDoc(`Here you go: {"tables":[{"page":2,"confidence":50,"rows":[["a"]]}]} hope it helps`)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, 2, doc.Tables[0].Page)
}

func TestTablePromptMentionsRulingsForLattice(t *testing.T) {
	p := tablePrompt(extract.FlavorLattice, []int{4})
	assert.Contains(t, p, "ruling lines around the cells")
	assert.Contains(t, p, "pages: 4.")
}
