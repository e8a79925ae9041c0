package extract

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// box is an axis-aligned rectangle in PDF space: Y grows upwards, so Y1 is
// the top edge.
type box struct {
	X0, Y0, X1, Y1 float64
}

func (b box) canon() box {
	if b.X0 > b.X1 {
		b.X0, b.X1 = b.X1, b.X0
	}
	if b.Y0 > b.Y1 {
		b.Y0, b.Y1 = b.Y1, b.Y0
	}
	return b
}

func (b box) width() float64  { return b.X1 - b.X0 }
func (b box) height() float64 { return b.Y1 - b.Y0 }

func (b box) center() (float64, float64) {
	return (b.X0 + b.X1) / 2, (b.Y0 + b.Y1) / 2
}

func (b box) contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// inside reports whether b lies within o grown by tol on every side.
func (b box) inside(o box, tol float64) bool {
	return b.X0 >= o.X0-tol && b.X1 <= o.X1+tol && b.Y0 >= o.Y0-tol && b.Y1 <= o.Y1+tol
}

func (b box) union(o box) box {
	return box{
		X0: math.Min(b.X0, o.X0),
		Y0: math.Min(b.Y0, o.Y0),
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
	}
}

// glyph is one shown character. X,Y is the baseline origin.
type glyph struct {
	S    string
	X, Y float64
	W    float64
	Size float64
}

func (g glyph) bounds() box {
	size := g.Size
	if size <= 0 {
		size = 1
	}
	return box{X0: g.X, Y0: g.Y - size*0.2, X1: g.X + g.W, Y1: g.Y + size*0.8}
}

func (g glyph) blank() bool { return strings.TrimSpace(g.S) == "" }

// fragment is a run of glyphs on one baseline without a wide gap.
type fragment struct {
	Text string
	box
}

type pageContent struct {
	Number    int
	Glyphs    []glyph
	Rects     []box
	Fragments []fragment
}

// groupLines buckets glyphs by baseline, top line first, each line sorted
// left to right.
func groupLines(glyphs []glyph, tol float64) [][]glyph {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines [][]glyph
	cur := []glyph{sorted[0]}
	y := sorted[0].Y
	for _, g := range sorted[1:] {
		if math.Abs(g.Y-y) <= tol {
			cur = append(cur, g)
			continue
		}
		lines = append(lines, cur)
		cur = []glyph{g}
		y = g.Y
	}
	lines = append(lines, cur)

	for _, ln := range lines {
		sort.SliceStable(ln, func(i, j int) bool { return ln[i].X < ln[j].X })
	}
	return lines
}

// buildFragments joins glyphs into text fragments. A gap wider than
// WordGap times the font size starts a new fragment.
func buildFragments(glyphs []glyph, s Settings) []fragment {
	var out []fragment
	for _, line := range groupLines(glyphs, s.RowTolerance) {
		var cur []glyph
		flush := func() {
			if f, ok := makeFragment(cur); ok {
				out = append(out, f)
			}
			cur = nil
		}
		var end float64
		for _, g := range line {
			if len(cur) > 0 && g.X-end > s.WordGap*math.Max(g.Size, 1) {
				flush()
			}
			cur = append(cur, g)
			if e := g.X + g.W; e > end || len(cur) == 1 {
				end = e
			}
		}
		flush()
	}
	return out
}

func makeFragment(glyphs []glyph) (fragment, bool) {
	text := joinGlyphs(glyphs)
	if text == "" {
		return fragment{}, false
	}
	var b box
	first := true
	for _, g := range glyphs {
		if g.blank() {
			continue
		}
		if first {
			b = g.bounds()
			first = false
			continue
		}
		b = b.union(g.bounds())
	}
	return fragment{Text: text, box: b}, true
}

// joinGlyphs concatenates one line of glyphs, adding a space where the
// layout leaves one but the content stream does not.
func joinGlyphs(line []glyph) string {
	var b strings.Builder
	var end float64
	for i, g := range line {
		if i > 0 && g.X-end > 0.15*math.Max(g.Size, 1) {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		end = g.X + g.W
	}
	return cleanText(b.String())
}

// cleanText applies compatibility normalization, which folds ligatures and
// full-width digits, and collapses runs of spaces.
func cleanText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
