package tetris

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMatrix(rows ...string) Matrix {
	m := make(Matrix, len(rows))
	for y, row := range rows {
		m[y] = make([]int, len(row))
		for x, ch := range row {
			if ch != '.' {
				m[y][x] = int(ch - '0')
			}
		}
	}
	return m
}

func outside(field, shape Matrix, x, y int) bool {
	for i, row := range shape {
		for j, v := range row {
			if v == 0 {
				continue
			}
			if x+j < 0 || x+j >= field.Width() || y+i < 0 || y+i >= field.Height() {
				return true
			}
		}
	}
	return false
}

func TestIntersectsOutOfBounds(t *testing.T) {
	field := NewMatrix(8, 6)
	for p := PieceI; p <= PieceBomb; p++ {
		for idx, shape := range p.States() {
			for y := -5; y <= field.Height()+1; y++ {
				for x := -5; x <= field.Width()+1; x++ {
					if outside(field, shape, x, y) {
						assert.True(t, Intersects(field, shape, x, y), "%s state %d at (%d, %d)", p, idx, x, y)
					} else {
						assert.False(t, Intersects(field, shape, x, y), "%s state %d at (%d, %d)", p, idx, x, y)
					}
				}
			}
		}
	}
}

func TestIntersectsOccupied(t *testing.T) {
	field := parseMatrix(
		"....",
		"....",
		"..1.",
		"....",
	)
	o := PieceO.State(0)
	assert.True(t, Intersects(field, o, 0, 0))
	assert.True(t, Intersects(field, o, 1, 1))
	assert.False(t, Intersects(field, o, -1, 0))
	assert.False(t, Intersects(field, o, 1, -1))
}

func TestMerge(t *testing.T) {
	field := parseMatrix(
		"......",
		"......",
		"......",
		"33....",
	)
	before := field.Clone()

	merged := Merge(field, PieceT.State(0), 2, 1)

	want := parseMatrix(
		"......",
		"......",
		"..666.",
		"33.6..",
	)
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merged field mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, field); diff != "" {
		t.Errorf("input field was modified (-want +got):\n%s", diff)
	}
	assert.GreaterOrEqual(t, merged.Count(), field.Count())
}

func TestMergeOutOfBoundsPanics(t *testing.T) {
	field := NewMatrix(4, 4)
	assert.Panics(t, func() {
		Merge(field, PieceI.State(0), 1, 0)
	})
}

func TestClearFullRows(t *testing.T) {
	field := NewMatrix(25, 10)
	for x := 0; x < 10; x++ {
		field[24][x] = 1
		field[20][x] = 2
	}
	field[23][0] = 3
	field[21][9] = 4
	field[5][5] = 5

	result := ClearFullRows(field)

	require.Equal(t, 2, result.Lines)
	assert.Equal(t, 200, result.Bonus)
	require.Equal(t, 25, result.Field.Height())
	require.Equal(t, 10, result.Field.Width())
	assert.Equal(t, 3, result.Field[24][0])
	assert.Equal(t, 4, result.Field[22][9])
	assert.Equal(t, 5, result.Field[7][5])
	assert.Equal(t, 3, result.Field.Count())
	for y := 0; y < 25; y++ {
		assert.False(t, result.Field.IsRowFull(y), "row %d", y)
	}
	assert.Equal(t, 1, field[24][0], "input must not change")
}

func TestClearFullRowsKeepsOrder(t *testing.T) {
	field := parseMatrix(
		"1...",
		"2222",
		".3..",
		"4444",
		"..5.",
	)
	result := ClearFullRows(field)
	want := parseMatrix(
		"....",
		"....",
		"1...",
		".3..",
		"..5.",
	)
	if diff := cmp.Diff(want, result.Field); diff != "" {
		t.Errorf("cleared field mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, result.Lines)
}

func TestLineBonus(t *testing.T) {
	for lines, bonus := range []int{0, 50, 200, 450, 800} {
		assert.Equal(t, bonus, LineBonus(lines))
	}
	assert.Equal(t, 0, ClearFullRows(NewMatrix(5, 5)).Bonus)
}

func TestColumnGravity(t *testing.T) {
	field := parseMatrix(
		"1..2",
		".3..",
		"4...",
		"...5",
		".6..",
	)
	want := parseMatrix(
		"....",
		"....",
		"....",
		"13.2",
		"46.5",
	)
	if diff := cmp.Diff(want, ColumnGravity(field)); diff != "" {
		t.Errorf("gravity mismatch (-want +got):\n%s", diff)
	}
}

func TestBlastRadius(t *testing.T) {
	field := parseMatrix(
		"1111",
		"1.11",
		"1111",
		"1111",
	)
	destroyed, after := BlastRadius(field, 1, 1)
	assert.Equal(t, []Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {2, 1}, {0, 2}, {1, 2}, {2, 2}}, destroyed)
	want := parseMatrix(
		"...1",
		"...1",
		"...1",
		"1111",
	)
	if diff := cmp.Diff(want, after); diff != "" {
		t.Errorf("blast mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 15, field.Count(), "input must not change")
}

func TestBlastRadiusClipsAtCorner(t *testing.T) {
	field := parseMatrix(
		"11..",
		"11..",
		"....",
	)
	destroyed, after := BlastRadius(field, 0, 0)
	assert.Len(t, destroyed, 4)
	assert.Equal(t, 0, after.Count())
}
