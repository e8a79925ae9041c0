package extract

import (
	"math"

	lpdf "github.com/ledongthuc/pdf"
)

// matrix is a PDF affine transform [a b c d e f]: x' = a*x + c*y + e,
// y' = b*x + d*y + f.
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns the transform applying m first, then n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

type point struct{ X, Y float64 }

// subpath is one m/l/h sequence or one re rectangle, already in page space.
type subpath struct {
	Points []point
	Closed bool
}

// pathCollector follows the graphics state of a content stream and keeps
// the painted straight edges. Curves are dropped since they never form
// table borders.
type pathCollector struct {
	ctm   matrix
	stack []matrix
	path  []subpath
	boxes []box
}

func newPathCollector() *pathCollector {
	return &pathCollector{ctm: identity}
}

// collectPaths walks the page content and returns every painted straight
// edge and filled rectangle as a box in page space.
func collectPaths(contents lpdf.Value) []box {
	pc := newPathCollector()
	lpdf.Interpret(contents, func(stk *lpdf.Stack, op string) {
		n := stk.Len()
		args := make([]float64, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop().Float64()
		}
		pc.op(op, args)
	})
	return pc.boxes
}

func (pc *pathCollector) op(op string, args []float64) {
	switch op {
	case "q":
		pc.stack = append(pc.stack, pc.ctm)
	case "Q":
		if n := len(pc.stack); n > 0 {
			pc.ctm = pc.stack[n-1]
			pc.stack = pc.stack[:n-1]
		}
	case "cm":
		if len(args) == 6 {
			pc.ctm = matrix{args[0], args[1], args[2], args[3], args[4], args[5]}.mul(pc.ctm)
		}
	case "m":
		if len(args) == 2 {
			pc.path = append(pc.path, subpath{Points: []point{pc.point(args[0], args[1])}})
		}
	case "l":
		if len(args) == 2 && len(pc.path) > 0 {
			last := &pc.path[len(pc.path)-1]
			last.Points = append(last.Points, pc.point(args[0], args[1]))
		}
	case "c", "v", "y":
		// a curve breaks the straight run; continue from its end point
		if len(args) >= 4 {
			pc.path = append(pc.path, subpath{Points: []point{pc.point(args[len(args)-2], args[len(args)-1])}})
		}
	case "h":
		if len(pc.path) > 0 {
			pc.path[len(pc.path)-1].Closed = true
		}
	case "re":
		if len(args) == 4 {
			x, y, w, h := args[0], args[1], args[2], args[3]
			pc.path = append(pc.path, subpath{
				Points: []point{pc.point(x, y), pc.point(x+w, y), pc.point(x+w, y+h), pc.point(x, y+h)},
				Closed: true,
			})
		}
	case "S", "s":
		pc.stroke(op == "s")
		pc.path = nil
	case "f", "F", "f*":
		pc.fill()
		pc.path = nil
	case "B", "B*", "b", "b*":
		pc.fill()
		pc.stroke(op == "b" || op == "b*")
		pc.path = nil
	case "n":
		pc.path = nil
	}
}

func (pc *pathCollector) point(x, y float64) point {
	x, y = pc.ctm.apply(x, y)
	return point{x, y}
}

// stroke keeps every axis-aligned segment as a zero-width box.
func (pc *pathCollector) stroke(closeAll bool) {
	for _, sp := range pc.path {
		pts := sp.Points
		if (sp.Closed || closeAll) && len(pts) > 2 {
			pts = append(append([]point(nil), pts...), pts[0])
		}
		for i := 1; i < len(pts); i++ {
			if b, ok := segment(pts[i-1], pts[i]); ok {
				pc.boxes = append(pc.boxes, b)
			}
		}
	}
}

// fill keeps subpaths that are axis-aligned rectangles.
func (pc *pathCollector) fill() {
	for _, sp := range pc.path {
		if b, ok := rectangle(sp.Points); ok {
			pc.boxes = append(pc.boxes, b)
		}
	}
}

const axisTolerance = 0.5

func segment(a, b point) (box, bool) {
	if math.Abs(a.X-b.X) > axisTolerance && math.Abs(a.Y-b.Y) > axisTolerance {
		return box{}, false
	}
	return box{X0: a.X, Y0: a.Y, X1: b.X, Y1: b.Y}.canon(), true
}

func rectangle(pts []point) (box, bool) {
	if len(pts) == 5 && pts[4] == pts[0] {
		pts = pts[:4]
	}
	if len(pts) != 4 {
		return box{}, false
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%4]
		if math.Abs(a.X-b.X) > axisTolerance && math.Abs(a.Y-b.Y) > axisTolerance {
			return box{}, false
		}
	}
	out := box{X0: pts[0].X, Y0: pts[0].Y, X1: pts[0].X, Y1: pts[0].Y}
	for _, p := range pts[1:] {
		out = out.union(box{X0: p.X, Y0: p.Y, X1: p.X, Y1: p.Y})
	}
	return out, true
}
