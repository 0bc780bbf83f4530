package store

import (
	"context"
	"sync"

	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/errors"
)

// Memory is a Store over row-major values held in memory.
type Memory struct {
	catalog *dataset.Catalog
	values  map[string][]float64

	mu     sync.Mutex
	reads  map[string]int
	closed bool
}

// NewMemory builds a store from metadata and the full values of each
// dataset. Datasets without values read as zeros.
func NewMemory(metas []dataset.Meta, values map[string][]float64) *Memory {
	for i := range metas {
		if metas[i].Type == "" {
			metas[i].Type = "float64"
		}
	}
	return &Memory{
		catalog: dataset.NewCatalog(metas),
		values:  values,
		reads:   make(map[string]int),
	}
}

// Catalog returns the datasets.
func (m *Memory) Catalog() *dataset.Catalog {
	return m.catalog
}

// ReadSlice copies the window w out of the values of path.
func (m *Memory) ReadSlice(ctx context.Context, path string, w dataset.Window) (*dataset.Slice, error) {
	meta, err := checkRead(m.catalog, path, w)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errors.Newf(errors.IOFailure, path, "store is closed")
	}
	m.reads[path]++
	m.mu.Unlock()

	return &dataset.Slice{
		Key:    dataset.Key{Path: path, Window: w.Clone()},
		Shape:  w.Shape(),
		Values: extract(meta.Shape, m.values[path], w),
	}, nil
}

// Reads returns how many slices of path were read.
func (m *Memory) Reads(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[path]
}

// Close marks the store closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// extract copies the elements of full (row-major over shape) selected by w.
func extract(shape []int, full []float64, w dataset.Window) []float64 {
	out := make([]float64, 0, w.Size())
	if w.Size() == 0 {
		return out
	}
	idx := make([]int, len(w))
	for d := range w {
		idx[d] = w[d].Start
	}
	for {
		off := 0
		for d := range shape {
			off = off*shape[d] + idx[d]
		}
		var v float64
		if off < len(full) {
			v = full[off]
		}
		out = append(out, v)

		d := len(w) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < w[d].End {
				break
			}
			idx[d] = w[d].Start
		}
		if d < 0 {
			return out
		}
	}
}
