package tetris

import (
	"fmt"
	"strings"
)

const (
	CellEmpty = 0
	BombCell  = 8
)

// Matrix is a row-major grid of cell values. Row 0 is the top.
type Matrix [][]int

type Point struct {
	X, Y int
}

func NewMatrix(height, width int) Matrix {
	m := make(Matrix, height)
	for y := range m {
		m[y] = make([]int, width)
	}
	return m
}

func (m Matrix) Height() int {
	return len(m)
}

func (m Matrix) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	c := make(Matrix, len(m))
	for y, row := range m {
		c[y] = make([]int, len(row))
		copy(c[y], row)
	}
	return c
}

// Count returns the number of nonzero cells.
func (m Matrix) Count() int {
	n := 0
	for _, row := range m {
		for _, v := range row {
			if v != CellEmpty {
				n++
			}
		}
	}
	return n
}

func (m Matrix) IsRowFull(y int) bool {
	for _, v := range m[y] {
		if v == CellEmpty {
			return false
		}
	}
	return true
}

func (m Matrix) inside(x, y int) bool {
	return y >= 0 && y < len(m) && x >= 0 && x < len(m[y])
}

func (m Matrix) String() string {
	sb := strings.Builder{}
	for _, row := range m {
		for _, v := range row {
			if v == CellEmpty {
				sb.WriteByte('.')
			} else {
				fmt.Fprintf(&sb, "%d", v)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Intersects reports whether shape placed with its top-left corner at (x, y)
// leaves the field or overlaps a nonzero field cell.
func Intersects(field, shape Matrix, x, y int) bool {
	for i, row := range shape {
		for j, v := range row {
			if v == CellEmpty {
				continue
			}
			tx, ty := x+j, y+i
			if !field.inside(tx, ty) || field[ty][tx] != CellEmpty {
				return true
			}
		}
	}
	return false
}

// Merge returns a copy of field with the nonzero cells of shape written at (x, y).
func Merge(field, shape Matrix, x, y int) Matrix {
	merged := field.Clone()
	for i, row := range shape {
		for j, v := range row {
			if v == CellEmpty {
				continue
			}
			tx, ty := x+j, y+i
			if !merged.inside(tx, ty) {
				panic(fmt.Errorf("%w: merge target (%d, %d)", ErrOutOfBounds, tx, ty))
			}
			merged[ty][tx] = v
		}
	}
	return merged
}

// ClearFullRows drops every full row and pads the top with empty rows so the
// height is unchanged.
func ClearFullRows(field Matrix) ClearResult {
	height, width := field.Height(), field.Width()
	kept := make(Matrix, 0, height)
	for y := range field {
		if !field.IsRowFull(y) {
			row := make([]int, width)
			copy(row, field[y])
			kept = append(kept, row)
		}
	}

	cleared := height - len(kept)
	result := make(Matrix, 0, height)
	for i := 0; i < cleared; i++ {
		result = append(result, make([]int, width))
	}
	result = append(result, kept...)

	return ClearResult{
		Lines: cleared,
		Field: result,
		Bonus: LineBonus(cleared),
	}
}

func LineBonus(lines int) int {
	return 50 * lines * lines
}

// ColumnGravity pulls the nonzero cells of every column down to the floor,
// keeping their vertical order.
func ColumnGravity(field Matrix) Matrix {
	height, width := field.Height(), field.Width()
	result := NewMatrix(height, width)
	for x := 0; x < width; x++ {
		dst := height - 1
		for y := height - 1; y >= 0; y-- {
			if field[y][x] != CellEmpty {
				result[dst][x] = field[y][x]
				dst--
			}
		}
	}
	return result
}

// BlastRadius empties the 3x3 neighbourhood around (cx, cy), clipped to the
// field, and returns the cells that were occupied in row-major order.
func BlastRadius(field Matrix, cx, cy int) ([]Point, Matrix) {
	result := field.Clone()
	destroyed := make([]Point, 0, 9)
	for y := cy - 1; y <= cy+1; y++ {
		for x := cx - 1; x <= cx+1; x++ {
			if !result.inside(x, y) {
				continue
			}
			if result[y][x] != CellEmpty {
				destroyed = append(destroyed, Point{X: x, Y: y})
				result[y][x] = CellEmpty
			}
		}
	}
	return destroyed, result
}
