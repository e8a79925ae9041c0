package extract

import (
	"sort"
	"strings"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

// ruling is a horizontal or vertical table border. For a horizontal ruling
// Pos is its y and From/To its x extent; for a vertical one the reverse.
type ruling struct {
	Horizontal bool
	Pos        float64
	From, To   float64
}

// rulings turns painted boxes into border lines. Thin boxes and stroked
// segments are lines themselves, larger filled rectangles contribute their
// four edges.
func rulings(rects []box, s Settings) []ruling {
	var out []ruling
	for _, r := range rects {
		w, h := r.width(), r.height()
		switch {
		case w < s.SnapTolerance && h < s.SnapTolerance:
			// dot or empty path, no direction
		case h <= s.LineWidth:
			out = append(out, ruling{Horizontal: true, Pos: (r.Y0 + r.Y1) / 2, From: r.X0, To: r.X1})
		case w <= s.LineWidth:
			out = append(out, ruling{Pos: (r.X0 + r.X1) / 2, From: r.Y0, To: r.Y1})
		default:
			out = append(out,
				ruling{Horizontal: true, Pos: r.Y0, From: r.X0, To: r.X1},
				ruling{Horizontal: true, Pos: r.Y1, From: r.X0, To: r.X1},
				ruling{Pos: r.X0, From: r.Y0, To: r.Y1},
				ruling{Pos: r.X1, From: r.Y0, To: r.Y1},
			)
		}
	}
	return out
}

func crosses(h, v ruling, tol float64) bool {
	return v.Pos >= h.From-tol && v.Pos <= h.To+tol &&
		h.Pos >= v.From-tol && h.Pos <= v.To+tol
}

// groupRulings splits rulings into connected networks: two rulings belong
// together when a chain of crossings links them.
func groupRulings(rs []ruling, tol float64) [][]ruling {
	parent := make([]int, len(rs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range rs {
		for j := i + 1; j < len(rs); j++ {
			a, b := rs[i], rs[j]
			if a.Horizontal == b.Horizontal {
				continue
			}
			if !a.Horizontal {
				a, b = b, a
			}
			if crosses(a, b, tol) {
				parent[find(i)] = find(j)
			}
		}
	}
	groups := map[int][]ruling{}
	var order []int
	for i, r := range rs {
		root := find(i)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], r)
	}
	out := make([][]ruling, 0, len(order))
	for _, root := range order {
		out = append(out, groups[root])
	}
	return out
}

// snap sorts positions and merges those closer than tol into their mean.
func snap(pos []float64, tol float64) []float64 {
	if len(pos) == 0 {
		return nil
	}
	sorted := append([]float64(nil), pos...)
	sort.Float64s(sorted)
	var out []float64
	sum, n := sorted[0], 1.0
	for _, p := range sorted[1:] {
		if p-sum/n <= tol {
			sum += p
			n++
			continue
		}
		out = append(out, sum/n)
		sum, n = p, 1
	}
	return append(out, sum/n)
}

// grid is a table skeleton: column edges left to right, row edges top to
// bottom.
type grid struct {
	Cols []float64
	Rows []float64
}

func (g grid) bounds() box {
	return box{X0: g.Cols[0], X1: g.Cols[len(g.Cols)-1], Y0: g.Rows[len(g.Rows)-1], Y1: g.Rows[0]}
}

func (g grid) cell(r, c int) box {
	return box{X0: g.Cols[c], X1: g.Cols[c+1], Y0: g.Rows[r+1], Y1: g.Rows[r]}
}

// locate returns the cell holding point x,y.
func (g grid) locate(x, y float64) (int, int, bool) {
	col := sort.SearchFloat64s(g.Cols, x) - 1
	if col < 0 || col >= len(g.Cols)-1 {
		if x == g.Cols[0] {
			col = 0
		} else {
			return 0, 0, false
		}
	}
	row := -1
	for i := 0; i < len(g.Rows)-1; i++ {
		if y <= g.Rows[i] && y >= g.Rows[i+1] {
			row = i
			break
		}
	}
	if row < 0 {
		return 0, 0, false
	}
	return row, col, true
}

func buildGrid(rs []ruling, tol float64) (grid, bool) {
	var hs, vs []float64
	for _, r := range rs {
		if r.Horizontal {
			hs = append(hs, r.Pos)
		} else {
			vs = append(vs, r.Pos)
		}
	}
	g := grid{Cols: snap(vs, tol), Rows: snap(hs, tol)}
	if len(g.Cols) < 2 || len(g.Rows) < 2 {
		return grid{}, false
	}
	// rows run top to bottom
	for i, j := 0, len(g.Rows)-1; i < j; i, j = i+1, j-1 {
		g.Rows[i], g.Rows[j] = g.Rows[j], g.Rows[i]
	}
	return g, true
}

// lattice finds tables outlined by ruling lines. Glyphs are placed in the
// cell holding their centre. Confidence is the share of text fragments that
// fit entirely inside one cell.
func (e *Engine) lattice(pc pageContent) []tables.RawTable {
	s := e.settings
	var found []tables.RawTable
	var bounds []box
	for _, network := range groupRulings(rulings(pc.Rects, s), s.SnapTolerance) {
		g, ok := buildGrid(network, s.SnapTolerance)
		if !ok {
			continue
		}
		nRows, nCols := len(g.Rows)-1, len(g.Cols)-1
		if nRows < s.MinRows || nCols < s.MinCols {
			continue
		}

		cells := make([][][]glyph, nRows)
		for i := range cells {
			cells[i] = make([][]glyph, nCols)
		}
		hasText := false
		for _, gl := range pc.Glyphs {
			if gl.blank() {
				continue
			}
			x, y := gl.bounds().center()
			r, c, ok := g.locate(x, y)
			if !ok {
				continue
			}
			cells[r][c] = append(cells[r][c], gl)
			hasText = true
		}
		if !hasText {
			continue
		}

		rows := make([][]string, nRows)
		for r := range rows {
			rows[r] = make([]string, nCols)
			for c := range rows[r] {
				rows[r][c] = cellText(cells[r][c], s)
			}
		}
		found = append(found, tables.RawTable{
			Rows:       rows,
			Confidence: latticeConfidence(g, pc.Fragments, s.SnapTolerance),
		})
		bounds = append(bounds, g.bounds())
	}
	byPosition(found, bounds)
	return found
}

// cellText joins the glyphs of one cell line by line.
func cellText(glyphs []glyph, s Settings) string {
	var lines []string
	for _, ln := range groupLines(glyphs, s.RowTolerance) {
		if t := joinGlyphs(ln); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

func latticeConfidence(g grid, frags []fragment, tol float64) float64 {
	area := g.bounds()
	total, clean := 0, 0
	for _, f := range frags {
		x, y := f.center()
		if !area.contains(x, y) {
			continue
		}
		total++
		r, c, ok := g.locate(x, y)
		if ok && f.inside(g.cell(r, c), tol) {
			clean++
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * float64(clean) / float64(total)
}
