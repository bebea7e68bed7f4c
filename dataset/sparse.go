// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dataset

import (
	"sort"

	"github.com/gorse-io/cinema/common/parallel"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SparseMatrix is a matrix in compressed sparse row format. Absent cells are zero.
type SparseMatrix struct {
	rows    int
	cols    int
	indptr  []int
	indices []int
	values  []float64
}

type entry struct {
	col   int
	value float64
}

// NewSparseMatrix builds a CSR matrix from coordinates. Values at the same
// coordinate are summed.
func NewSparseMatrix(rows, cols int, rowIndices, colIndices []int, values []float64) *SparseMatrix {
	if len(rowIndices) != len(colIndices) || len(rowIndices) != len(values) {
		panic(mat.ErrShape)
	}
	buckets := make([][]entry, rows)
	for k := range rowIndices {
		i, j := rowIndices[k], colIndices[k]
		if i < 0 || i >= rows || j < 0 || j >= cols {
			panic(mat.ErrIndexOutOfRange)
		}
		buckets[i] = append(buckets[i], entry{col: j, value: values[k]})
	}
	m := &SparseMatrix{
		rows:    rows,
		cols:    cols,
		indptr:  make([]int, rows+1),
		indices: make([]int, 0, len(values)),
		values:  make([]float64, 0, len(values)),
	}
	for i, bucket := range buckets {
		sort.SliceStable(bucket, func(a, b int) bool { return bucket[a].col < bucket[b].col })
		for k, e := range bucket {
			if k > 0 && bucket[k-1].col == e.col {
				m.values[len(m.values)-1] += e.value
				continue
			}
			m.indices = append(m.indices, e.col)
			m.values = append(m.values, e.value)
		}
		m.indptr[i+1] = len(m.indices)
	}
	return m
}

// Dims returns the shape of the matrix.
func (m *SparseMatrix) Dims() (int, int) {
	return m.rows, m.cols
}

// At returns the value at (i, j).
func (m *SparseMatrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	begin, end := m.indptr[i], m.indptr[i+1]
	p := sort.SearchInts(m.indices[begin:end], j) + begin
	if p < end && m.indices[p] == j {
		return m.values[p]
	}
	return 0
}

// T implements mat.Matrix.
func (m *SparseMatrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// NNZ returns the number of stored cells.
func (m *SparseMatrix) NNZ() int {
	return len(m.values)
}

// Density returns the ratio of stored cells to all cells.
func (m *SparseMatrix) Density() float64 {
	if m.rows == 0 || m.cols == 0 {
		return 0
	}
	return float64(len(m.values)) / (float64(m.rows) * float64(m.cols))
}

// Row returns the column indices and values stored in row i. The slices must not be modified.
func (m *SparseMatrix) Row(i int) ([]int, []float64) {
	begin, end := m.indptr[i], m.indptr[i+1]
	return m.indices[begin:end], m.values[begin:end]
}

// Transpose returns a new CSR matrix holding the transpose.
func (m *SparseMatrix) Transpose() *SparseMatrix {
	t := &SparseMatrix{
		rows:    m.cols,
		cols:    m.rows,
		indptr:  make([]int, m.cols+1),
		indices: make([]int, len(m.indices)),
		values:  make([]float64, len(m.values)),
	}
	for _, j := range m.indices {
		t.indptr[j+1]++
	}
	for j := 0; j < m.cols; j++ {
		t.indptr[j+1] += t.indptr[j]
	}
	next := make([]int, m.cols)
	copy(next, t.indptr[:m.cols])
	for i := 0; i < m.rows; i++ {
		for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
			j := m.indices[p]
			t.indices[next[j]] = i
			t.values[next[j]] = m.values[p]
			next[j]++
		}
	}
	return t
}

// MulDense returns m × b, computing rows with nJobs workers.
func (m *SparseMatrix) MulDense(b *mat.Dense, nJobs int) *mat.Dense {
	r, c := b.Dims()
	if r != m.cols {
		panic(mat.ErrShape)
	}
	dst := mat.NewDense(m.rows, c, nil)
	parallel.For(m.rows, nJobs, func(i int) {
		row := dst.RawRowView(i)
		for p := m.indptr[i]; p < m.indptr[i+1]; p++ {
			floats.AddScaled(row, m.values[p], b.RawRowView(m.indices[p]))
		}
	})
	return dst
}
