package gf2

import (
	"github.com/pkg/errors"
)

var (
	// ErrDimension is returned when a row does not match the column count.
	ErrDimension = errors.New("gf2: dimension mismatch")
	// ErrNoPivot is returned by Reduce when a row has no admissible pivot column.
	ErrNoPivot = errors.New("gf2: no admissible pivot column")
)

// Matrix is a list of rows of equal length.
type Matrix struct {
	cols int
	rows []Vector
}

// NewMatrix builds a matrix from rows that must all have length cols.
func NewMatrix(cols int, rows ...Vector) (*Matrix, error) {
	m := &Matrix{cols: cols, rows: make([]Vector, 0, len(rows))}
	for i, r := range rows {
		if r.Len() != cols {
			return nil, errors.Wrapf(ErrDimension, "row %d has length %d, want %d", i, r.Len(), cols)
		}
		m.rows = append(m.rows, r.Clone())
	}
	return m, nil
}

// FromSupports builds a matrix whose rows have the given supports.
func FromSupports(cols int, supports [][]int) *Matrix {
	m := &Matrix{cols: cols, rows: make([]Vector, len(supports))}
	for i, s := range supports {
		m.rows[i] = FromSupport(cols, s)
	}
	return m
}

// Stack returns a new matrix holding the rows of every argument. All
// matrices must share the column count.
func Stack(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return &Matrix{}, nil
	}
	out := &Matrix{cols: ms[0].cols}
	for _, m := range ms {
		if m.cols != out.cols {
			return nil, errors.Wrapf(ErrDimension, "cannot stack %d columns onto %d", m.cols, out.cols)
		}
		for _, r := range m.rows {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out, nil
}

func (m *Matrix) Cols() int    { return m.cols }
func (m *Matrix) NumRows() int { return len(m.rows) }

// Row returns a copy of row i.
func (m *Matrix) Row(i int) Vector { return m.rows[i].Clone() }

// Rows returns copies of all rows.
func (m *Matrix) Rows() []Vector {
	out := make([]Vector, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Clone()
	}
	return out
}

// Reduced is a reduced row echelon form: Rows[i] has a one in column
// Pivots[i] and a zero in every other pivot column.
type Reduced struct {
	Pivots []int
	Rows   []Vector
}

// Reduce computes a reduced row echelon form, taking pivot columns from
// order in the given preference. A nil order admits every column in
// ascending order. Linearly dependent rows are dropped. If some independent
// row has no admissible pivot, ErrNoPivot is returned.
func (m *Matrix) Reduce(order []int) (Reduced, error) {
	if order == nil {
		order = make([]int, m.cols)
		for i := range order {
			order[i] = i
		}
	}

	rows := make([]Vector, 0, len(m.rows))
	for _, r := range m.rows {
		if !r.IsZero() {
			rows = append(rows, r.Clone())
		}
	}
	assigned := make([]bool, len(rows))
	pivotOf := make([]int, len(rows))

	var red Reduced
	for _, c := range order {
		pick := -1
		for i, r := range rows {
			if !assigned[i] && r.Get(c) {
				pick = i
				break
			}
		}
		if pick < 0 {
			continue
		}
		assigned[pick] = true
		pivotOf[pick] = c
		for i, r := range rows {
			if i != pick && r.Get(c) {
				r.AddInPlace(rows[pick])
			}
		}
		red.Pivots = append(red.Pivots, c)
		red.Rows = append(red.Rows, rows[pick])
	}

	for i, r := range rows {
		if !assigned[i] && !r.IsZero() {
			return Reduced{}, errors.Wrapf(ErrNoPivot, "row %s", r)
		}
	}
	return red, nil
}

// Rank is the dimension of the row space.
func (m *Matrix) Rank() int {
	red, _ := m.Reduce(nil)
	return len(red.Pivots)
}

// Basis returns an independent set of rows spanning the row space.
func (m *Matrix) Basis() []Vector {
	red, _ := m.Reduce(nil)
	return red.Rows
}

// InSpan reports whether v is a combination of the rows.
func (m *Matrix) InSpan(v Vector) bool {
	red, _ := m.Reduce(nil)
	w := v.Clone()
	for i, p := range red.Pivots {
		if w.Get(p) {
			w.AddInPlace(red.Rows[i])
		}
	}
	return w.IsZero()
}

// Nullspace returns a basis of {x : row . x = 0 for every row}.
func (m *Matrix) Nullspace() []Vector {
	red, _ := m.Reduce(nil)
	isPivot := make(map[int]int, len(red.Pivots))
	for i, p := range red.Pivots {
		isPivot[p] = i
	}

	var out []Vector
	for f := range m.cols {
		if _, ok := isPivot[f]; ok {
			continue
		}
		x := NewVector(m.cols)
		x.Set(f)
		for i, p := range red.Pivots {
			if red.Rows[i].Get(f) {
				x.Set(p)
			}
		}
		out = append(out, x)
	}
	return out
}

// Orthogonal reports whether every row of m has even overlap with every row
// of o, and returns the first offending pair otherwise.
func (m *Matrix) Orthogonal(o *Matrix) (bool, int, int) {
	for i, a := range m.rows {
		for j, b := range o.rows {
			if a.Dot(b) {
				return false, i, j
			}
		}
	}
	return true, -1, -1
}
