package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEmpty(t *testing.T) {
	_, err := Merge(nil, MergeOptions{})
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = Merge([]*NormalizedTable{}, MergeOptions{PadMismatched: true})
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestMergeConcatenatesInOrder(t *testing.T) {
	t1 := &NormalizedTable{
		Header: []string{"No", "Name", "Total"},
		Rows: [][]Value{
			{Text("1"), Text("a"), Number(1.5)},
			{Text("2"), Text("b"), Number(2)},
		},
	}
	t2 := &NormalizedTable{
		Header: []string{"No", "Name", "Total"},
		Rows: [][]Value{
			{Text("3"), Text("c"), Number(3)},
		},
	}

	got, err := Merge([]*NormalizedTable{t1, t2}, MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, t1.Header, got.Header)
	require.Len(t, got.Rows, len(t1.Rows)+len(t2.Rows))
	assert.Equal(t, Text("1"), got.Rows[0][0])
	assert.Equal(t, Text("3"), got.Rows[2][0])
}

func TestMergeFirstHeaderIsAuthoritative(t *testing.T) {
	t1 := &NormalizedTable{Header: []string{"A", "B"}, Rows: [][]Value{{Text("1"), Number(1)}}}
	t2 := &NormalizedTable{Header: []string{"x", "y"}, Rows: [][]Value{{Text("2"), Number(2)}}}

	got, err := Merge([]*NormalizedTable{t1, t2}, MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Header)
	assert.Len(t, got.Rows, 2)
}

func TestMergeSchemaMismatch(t *testing.T) {
	t1 := &NormalizedTable{Header: []string{"A", "B", "C"}}
	t2 := &NormalizedTable{Header: []string{"A", "B"}}

	_, err := Merge([]*NormalizedTable{t1, t2}, MergeOptions{})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestMergeZeroColumnFirstTable(t *testing.T) {
	t1 := &NormalizedTable{Header: []string{}, Rows: [][]Value{{}, {}}}
	_, err := Merge([]*NormalizedTable{t1}, MergeOptions{})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestMergePadMismatched(t *testing.T) {
	t1 := &NormalizedTable{
		Header: []string{"A", "B"},
		Rows:   [][]Value{{Text("1"), Number(10)}},
	}
	t2 := &NormalizedTable{
		Header: []string{"B", "C"},
		Rows:   [][]Value{{Number(20), Text("z")}},
	}

	got, err := Merge([]*NormalizedTable{t1, t2}, MergeOptions{PadMismatched: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, got.Header)
	assert.Equal(t, [][]Value{
		{Text("1"), Number(10), Null()},
		{Null(), Number(20), Text("z")},
	}, got.Rows)
}

func TestNormalizeThenMerge(t *testing.T) {
	var norm []*NormalizedTable
	for i := 0; i < 2; i++ {
		n, err := Normalize(sample(), i)
		require.NoError(t, err)
		norm = append(norm, n)
	}
	got, err := Merge(norm, MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, got.Header)
	assert.Len(t, got.Rows, 5)
	assert.Equal(t, []Value{Text("2,0"), Text("y")}, got.Rows[4])
}
