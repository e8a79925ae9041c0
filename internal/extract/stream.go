package extract

import (
	"math"
	"sort"
	"strings"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

type textLine struct {
	Frags []fragment
	Y     float64
}

// fragmentLines groups fragments by vertical centre, top line first.
func fragmentLines(frags []fragment, tol float64) []textLine {
	if len(frags) == 0 {
		return nil
	}
	sorted := append([]fragment(nil), frags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		_, yi := sorted[i].center()
		_, yj := sorted[j].center()
		return yi > yj
	})
	var lines []textLine
	for _, f := range sorted {
		_, y := f.center()
		if n := len(lines); n > 0 && math.Abs(lines[n-1].Y-y) <= tol {
			lines[n-1].Frags = append(lines[n-1].Frags, f)
			continue
		}
		lines = append(lines, textLine{Frags: []fragment{f}, Y: y})
	}
	for _, ln := range lines {
		sort.SliceStable(ln.Frags, func(i, j int) bool { return ln.Frags[i].X0 < ln.Frags[j].X0 })
	}
	return lines
}

// columnAnchors returns the x positions where enough lines start a
// fragment to call it a column.
func columnAnchors(lines []textLine, s Settings) []float64 {
	counts := map[float64]int{}
	for _, ln := range lines {
		seen := map[float64]bool{}
		for _, f := range ln.Frags {
			x := math.Round(f.X0/s.SnapTolerance) * s.SnapTolerance
			if !seen[x] {
				seen[x] = true
				counts[x]++
			}
		}
	}
	need := math.Max(2, math.Floor(float64(len(lines))*s.ColumnShare))
	var xs []float64
	for x, n := range counts {
		if float64(n) >= need {
			xs = append(xs, x)
		}
	}
	return snap(xs, s.SnapTolerance)
}

// column picks the rightmost anchor at or left of x.
func column(anchors []float64, x, tol float64) int {
	col := 0
	for i, a := range anchors {
		if x+tol >= a {
			col = i
		}
	}
	return col
}

func aligned(anchors []float64, x, tol float64) bool {
	for _, a := range anchors {
		if math.Abs(x-a) <= tol {
			return true
		}
	}
	return false
}

// stream finds tables from whitespace alignment. Runs of consecutive lines
// that split into several fragments become one table each; single-fragment
// lines inside a run are kept as rows with one filled cell. Confidence is
// the share of fragments that start on a column anchor.
func (e *Engine) stream(pc pageContent) []tables.RawTable {
	s := e.settings
	lines := fragmentLines(pc.Fragments, s.RowTolerance)
	if len(lines) == 0 {
		return nil
	}
	pageAnchors := columnAnchors(lines, s)

	var runs [][]textLine
	var cur []textLine
	closeRun := func() {
		// trim single-fragment lines off both ends
		for len(cur) > 0 && len(cur[0].Frags) < 2 {
			cur = cur[1:]
		}
		for len(cur) > 0 && len(cur[len(cur)-1].Frags) < 2 {
			cur = cur[:len(cur)-1]
		}
		if len(cur) > 0 {
			runs = append(runs, cur)
		}
		cur = nil
	}
	for _, ln := range lines {
		multi := len(ln.Frags) >= 2
		if multi || (len(cur) > 0 && aligned(pageAnchors, ln.Frags[0].X0, 2*s.SnapTolerance)) {
			cur = append(cur, ln)
			continue
		}
		closeRun()
	}
	closeRun()

	var found []tables.RawTable
	var bounds []box
	for _, run := range runs {
		if len(run) < s.MinRows {
			continue
		}
		anchors := columnAnchors(run, s)
		if len(anchors) < s.MinCols {
			continue
		}
		tol := 2 * s.SnapTolerance
		rows := make([][]string, len(run))
		total, clean := 0, 0
		area := run[0].Frags[0].box
		for i, ln := range run {
			cells := make([][]string, len(anchors))
			for _, f := range ln.Frags {
				c := column(anchors, f.X0, tol)
				cells[c] = append(cells[c], f.Text)
				total++
				if aligned(anchors, f.X0, tol) {
					clean++
				}
				area = area.union(f.box)
			}
			rows[i] = make([]string, len(anchors))
			for c, parts := range cells {
				rows[i][c] = strings.Join(parts, " ")
			}
		}
		found = append(found, tables.RawTable{
			Rows:       rows,
			Confidence: 100 * float64(clean) / float64(total),
		})
		bounds = append(bounds, area)
	}
	byPosition(found, bounds)
	return found
}
