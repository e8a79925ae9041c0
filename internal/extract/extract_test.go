package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

// word lays out s as one glyph per rune starting at x on baseline y.
func word(s string, x, y float64) []glyph {
	const size, adv = 10.0, 5.0
	var out []glyph
	for i, r := range s {
		out = append(out, glyph{S: string(r), X: x + float64(i)*adv, Y: y, W: adv, Size: size})
	}
	return out
}

func fragmentsOf(glyphs []glyph) []fragment {
	return buildFragments(glyphs, DefaultSettings())
}

func TestBuildFragmentsSplitsOnWideGaps(t *testing.T) {
	var gl []glyph
	gl = append(gl, word("Total", 10, 700)...)
	gl = append(gl, word("1,5", 100, 700)...)
	gl = append(gl, word("next", 10, 680)...)

	frags := fragmentsOf(gl)
	require.Len(t, frags, 3)
	assert.Equal(t, "Total", frags[0].Text)
	assert.Equal(t, "1,5", frags[1].Text)
	assert.Equal(t, "next", frags[2].Text)
	assert.InDelta(t, 100, frags[1].X0, 0.001)
}

func TestBuildFragmentsKeepsWordsTogether(t *testing.T) {
	var gl []glyph
	gl = append(gl, word("Jasa", 10, 700)...)
	// one space advance past the end of "Jasa"
	gl = append(gl, word("Raharja", 33, 700)...)

	frags := fragmentsOf(gl)
	require.Len(t, frags, 1)
	assert.Equal(t, "Jasa Raharja", frags[0].Text)
}

func TestCleanTextFoldsLigatures(t *testing.T) {
	assert.Equal(t, "office 12", cleanText("oﬃce  １２"))
}

func TestSnap(t *testing.T) {
	assert.Equal(t, []float64{10, 50.5}, snap([]float64{50, 10, 51, 10}, 3))
	assert.Nil(t, snap(nil, 3))
}

func TestRulingsFromRects(t *testing.T) {
	rs := rulings([]box{
		{X0: 0, Y0: 100, X1: 200, Y1: 100.5}, // horizontal line
		{X0: 50, Y0: 0, X1: 50.5, Y1: 100},   // vertical line
		{X0: 0, Y0: 0, X1: 10, Y1: 20},       // box: four edges
		{X0: 5, Y0: 5, X1: 5.5, Y1: 5.5},     // dot
	}, DefaultSettings())
	require.Len(t, rs, 6)
	assert.True(t, rs[0].Horizontal)
	assert.InDelta(t, 100.25, rs[0].Pos, 0.001)
	assert.False(t, rs[1].Horizontal)
}

// gridRects draws a ruled table with the given column and row edges.
func gridRects(cols, rows []float64) []box {
	var out []box
	for _, y := range rows {
		out = append(out, box{X0: cols[0], X1: cols[len(cols)-1], Y0: y - 0.25, Y1: y + 0.25})
	}
	for _, x := range cols {
		out = append(out, box{X0: x - 0.25, X1: x + 0.25, Y0: rows[len(rows)-1], Y1: rows[0]})
	}
	return out
}

func TestLatticeBuildsGrid(t *testing.T) {
	cols := []float64{50, 150, 250}
	rows := []float64{700, 680, 660, 640}

	var gl []glyph
	gl = append(gl, word("Report", 55, 685)...)
	gl = append(gl, word("Name", 55, 665)...)
	gl = append(gl, word("Amount", 155, 665)...)
	gl = append(gl, word("Ana", 55, 645)...)
	gl = append(gl, word("1,5", 155, 645)...)

	pc := pageContent{Glyphs: gl, Rects: gridRects(cols, rows)}
	pc.Fragments = fragmentsOf(gl)

	e := NewEngine(DefaultSettings(), nil)
	found := e.lattice(pc)
	require.Len(t, found, 1)
	assert.Equal(t, [][]string{
		{"Report", ""},
		{"Name", "Amount"},
		{"Ana", "1,5"},
	}, found[0].Rows)
	assert.InDelta(t, 100, found[0].Confidence, 0.001)
}

func TestLatticeIgnoresSeparateNetworksWithoutText(t *testing.T) {
	rects := append(gridRects([]float64{50, 150, 250}, []float64{700, 680, 660}),
		gridRects([]float64{50, 150, 250}, []float64{400, 380, 360})...)
	gl := word("only", 55, 685)

	e := NewEngine(DefaultSettings(), nil)
	found := e.lattice(pageContent{Glyphs: gl, Rects: rects, Fragments: fragmentsOf(gl)})
	require.Len(t, found, 1)
	assert.Equal(t, "only", found[0].Rows[0][0])
}

func TestLatticeOrdersTablesTopDown(t *testing.T) {
	rects := append(gridRects([]float64{50, 150, 250}, []float64{400, 380, 360}),
		gridRects([]float64{50, 150, 250}, []float64{700, 680, 660})...)
	var gl []glyph
	gl = append(gl, word("low", 55, 385)...)
	gl = append(gl, word("high", 55, 685)...)

	e := NewEngine(DefaultSettings(), nil)
	found := e.lattice(pageContent{Glyphs: gl, Rects: rects, Fragments: fragmentsOf(gl)})
	require.Len(t, found, 2)
	assert.Equal(t, "high", found[0].Rows[0][0])
	assert.Equal(t, "low", found[1].Rows[0][0])
}

func TestStreamFindsAlignedColumns(t *testing.T) {
	var gl []glyph
	gl = append(gl, word("Monthly claims", 50, 760)...)
	for i, row := range [][]string{
		{"No", "Name", "Total"},
		{"1", "Ana", "1,5"},
		{"2", "Budi", "2,0"},
		{"3", "Citra", "7"},
	} {
		y := 700 - float64(i)*15
		gl = append(gl, word(row[0], 50, y)...)
		gl = append(gl, word(row[1], 120, y)...)
		gl = append(gl, word(row[2], 220, y)...)
	}

	e := NewEngine(DefaultSettings(), nil)
	found := e.stream(pageContent{Glyphs: gl, Fragments: fragmentsOf(gl)})
	require.Len(t, found, 1)
	assert.Equal(t, [][]string{
		{"No", "Name", "Total"},
		{"1", "Ana", "1,5"},
		{"2", "Budi", "2,0"},
		{"3", "Citra", "7"},
	}, found[0].Rows)
	assert.InDelta(t, 100, found[0].Confidence, 0.001)
}

func TestStreamKeepsSparseRowsInsideRun(t *testing.T) {
	var gl []glyph
	gl = append(gl, word("A", 50, 700)...)
	gl = append(gl, word("B", 150, 700)...)
	gl = append(gl, word("x", 50, 685)...)
	gl = append(gl, word("C", 50, 670)...)
	gl = append(gl, word("D", 150, 670)...)

	e := NewEngine(DefaultSettings(), nil)
	found := e.stream(pageContent{Fragments: fragmentsOf(gl)})
	require.Len(t, found, 1)
	assert.Equal(t, [][]string{{"A", "B"}, {"x", ""}, {"C", "D"}}, found[0].Rows)
}

func TestStreamNoTables(t *testing.T) {
	gl := word("just a paragraph", 50, 700)
	e := NewEngine(DefaultSettings(), nil)
	assert.Empty(t, e.stream(pageContent{Fragments: fragmentsOf(gl)}))
	assert.Empty(t, e.stream(pageContent{}))
}

func TestExtractRejectsUnknownFlavor(t *testing.T) {
	e := NewEngine(DefaultSettings(), nil)
	_, err := e.Extract(context.Background(), "unused.pdf", Options{Flavor: "grid"})
	assert.Error(t, err)
}

func TestExtractMissingFile(t *testing.T) {
	e := NewEngine(DefaultSettings(), nil)
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), Options{Flavor: FlavorLattice, Pages: AllPages})
	assert.Error(t, err)
}

var reportRows = [][]string{
	{"Report", ""},
	{"Name", "Amount"},
	{"Ana", "1,5"},
}

func extractFile(t *testing.T, name string, opts Options) []tables.RawTable {
	t.Helper()
	e := NewEngine(DefaultSettings(), nil)
	found, err := e.Extract(context.Background(), filepath.Join("testdata", name), opts)
	require.NoError(t, err)
	return found
}

func TestExtractRuledTables(t *testing.T) {
	for _, name := range []string{
		"ruled.pdf",    // thin filled rectangles
		"ruled_cm.pdf", // the same page drawn under a translate cm
		"stroked.pdf",  // borders stroked as line segments
	} {
		t.Run(name, func(t *testing.T) {
			found := extractFile(t, name, Options{Pages: AllPages, Flavor: FlavorLattice})
			require.Len(t, found, 1)
			assert.Equal(t, reportRows, found[0].Rows)
			assert.Equal(t, 1, found[0].Page)
			assert.Equal(t, FlavorLattice, found[0].Flavor)
			assert.InDelta(t, 100, found[0].Confidence, 0.001)
		})
	}
}

func TestExtractBorderlessTable(t *testing.T) {
	found := extractFile(t, "borderless.pdf", Options{Pages: AllPages, Flavor: FlavorStream})
	require.Len(t, found, 1)
	assert.Equal(t, [][]string{
		{"No", "Name", "Total"},
		{"1", "Ana", "1,5"},
		{"2", "Budi", "2,0"},
		{"3", "Citra", "7"},
	}, found[0].Rows)
	assert.Equal(t, 1, found[0].Page)

	assert.Empty(t, extractFile(t, "borderless.pdf", Options{Pages: AllPages, Flavor: FlavorLattice}))
}

func TestExtractSelectsPages(t *testing.T) {
	first := func(found []tables.RawTable) []string {
		var out []string
		for _, f := range found {
			out = append(out, f.Rows[0][0])
		}
		return out
	}
	pages := func(found []tables.RawTable) []int {
		var out []int
		for _, f := range found {
			out = append(out, f.Page)
		}
		return out
	}

	all := extractFile(t, "two_pages.pdf", Options{Pages: AllPages, Flavor: FlavorLattice})
	assert.Equal(t, []int{1, 2}, pages(all))
	assert.Equal(t, []string{"First", "Second"}, first(all))

	second := extractFile(t, "two_pages.pdf", Options{Pages: "2", Flavor: FlavorLattice})
	assert.Equal(t, []int{2}, pages(second))
	assert.Equal(t, []string{"Second"}, first(second))
	assert.Equal(t, reportRows[1:], second[0].Rows[1:])

	tail := extractFile(t, "two_pages.pdf", Options{Pages: "2-end", Flavor: FlavorLattice})
	assert.Equal(t, []int{2}, pages(tail))

	e := NewEngine(DefaultSettings(), nil)
	_, err := e.Extract(context.Background(), filepath.Join("testdata", "two_pages.pdf"), Options{Pages: "3", Flavor: FlavorLattice})
	assert.Error(t, err)
}
