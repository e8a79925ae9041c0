package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pathOp struct {
	name string
	args []float64
}

func op(name string, args ...float64) pathOp { return pathOp{name, args} }

func paint(ops ...pathOp) []box {
	pc := newPathCollector()
	for _, o := range ops {
		pc.op(o.name, o.args)
	}
	return pc.boxes
}

func TestMatrixMulAppliesLeftFirst(t *testing.T) {
	scale := matrix{2, 0, 0, 2, 0, 0}
	shift := matrix{1, 0, 0, 1, 10, 20}
	x, y := scale.mul(shift).apply(1, 1)
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 22.0, y)

	x, y = shift.mul(scale).apply(1, 1)
	assert.Equal(t, 22.0, x)
	assert.Equal(t, 42.0, y)
}

func TestPathCollectorAppliesTransform(t *testing.T) {
	boxes := paint(
		op("q"),
		op("cm", 1, 0, 0, 1, 0, -100),
		op("re", 50, 699.75, 200, 0.5),
		op("f"),
		op("Q"),
		op("re", 0, 0, 10, 10),
		op("f"),
	)
	require.Len(t, boxes, 2)
	assert.Equal(t, box{X0: 50, Y0: 599.75, X1: 250, Y1: 600.25}, boxes[0])
	assert.Equal(t, box{X0: 0, Y0: 0, X1: 10, Y1: 10}, boxes[1])
}

func TestPathCollectorNestedTransforms(t *testing.T) {
	boxes := paint(
		op("cm", 2, 0, 0, 2, 0, 0),
		op("q"),
		op("cm", 1, 0, 0, 1, 5, 5),
		op("re", 0, 0, 1, 1),
		op("f"),
		op("Q"),
		op("Q"), // unbalanced restore is ignored
		op("re", 0, 0, 1, 1),
		op("f"),
	)
	require.Len(t, boxes, 2)
	assert.Equal(t, box{X0: 10, Y0: 10, X1: 12, Y1: 12}, boxes[0])
	assert.Equal(t, box{X0: 0, Y0: 0, X1: 2, Y1: 2}, boxes[1])
}

func TestPathCollectorKeepsStrokedSegments(t *testing.T) {
	boxes := paint(
		op("w", 0.5),
		op("m", 50, 700), op("l", 250, 700), op("S"),
		op("m", 50, 700), op("l", 50, 640), op("S"),
		op("m", 0, 0), op("l", 30, 40), op("S"), // diagonal
	)
	require.Len(t, boxes, 2)
	assert.Equal(t, box{X0: 50, Y0: 700, X1: 250, Y1: 700}, boxes[0])
	assert.Equal(t, box{X0: 50, Y0: 640, X1: 50, Y1: 700}, boxes[1])

	rs := rulings(boxes, DefaultSettings())
	require.Len(t, rs, 2)
	assert.True(t, rs[0].Horizontal)
	assert.False(t, rs[1].Horizontal)
}

func TestPathCollectorStrokesClosedShapes(t *testing.T) {
	assert.Len(t, paint(op("re", 0, 0, 100, 50), op("S")), 4)
	// the closing diagonal is not a ruling
	assert.Len(t, paint(op("m", 0, 0), op("l", 100, 0), op("l", 100, 50), op("s")), 2)
	assert.Len(t, paint(op("re", 0, 0, 100, 50), op("B")), 5)
}

func TestPathCollectorDiscardsUnpaintedPaths(t *testing.T) {
	assert.Empty(t, paint(op("re", 0, 0, 100, 50), op("W"), op("n")))
	assert.Empty(t, paint(op("re", 0, 0, 100, 50)))
}

func TestPathCollectorFillsOnlyRectangles(t *testing.T) {
	boxes := paint(
		op("m", 0, 0), op("l", 100, 0), op("l", 50, 80), op("h"), op("f"), // triangle
		op("m", 0, 0), op("l", 100, 0), op("l", 100, 50), op("l", 0, 50), op("h"), op("f"),
	)
	require.Len(t, boxes, 1)
	assert.Equal(t, box{X0: 0, Y0: 0, X1: 100, Y1: 50}, boxes[0])
}
