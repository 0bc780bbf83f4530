// Package store reads datasets out of the container file. HDF5 is the
// production implementation; Memory serves the same contract from values
// held in memory.
package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/errors"
)

// Store is the Dataset Store consumed by the cache.
type Store interface {
	// Catalog returns the datasets found when the file was opened.
	Catalog() *dataset.Catalog
	// ReadSlice reads the elements of path selected by w.
	ReadSlice(ctx context.Context, path string, w dataset.Window) (*dataset.Slice, error)
	Close() error
}

var numericTypes = map[string]bool{
	"int8": true, "int16": true, "int32": true, "int64": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "bool": true,
}

// IsNumeric reports whether elements of the Go type name can be viewed.
func IsNumeric(goType string) bool {
	return numericTypes[goType]
}

// checkRead validates a read request against the catalog.
func checkRead(c *dataset.Catalog, path string, w dataset.Window) (dataset.Meta, error) {
	meta, ok := c.Get(path)
	if !ok {
		return dataset.Meta{}, errors.New(errors.DatasetNotFound, path, nil)
	}
	if err := w.Validate(meta.Shape); err != nil {
		return dataset.Meta{}, errors.New(errors.SliceOutOfBounds, path, err)
	}
	if !IsNumeric(meta.Type) {
		return dataset.Meta{}, errors.Newf(errors.UnsupportedFormat, path, "element type %q is not numeric", meta.Type)
	}
	return meta, nil
}

// flatten walks nested slices of numbers and appends the elements selected
// by w, row-major, to out.
func flatten(v reflect.Value, w dataset.Window, d int, out []float64) ([]float64, error) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return out, fmt.Errorf("nil value at dimension %d", d)
		}
		v = v.Elem()
	}
	if d == len(w) {
		f, err := toFloat(v)
		if err != nil {
			return out, err
		}
		return append(out, f), nil
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return out, fmt.Errorf("expected %d nested dimensions, found %s at dimension %d", len(w), v.Kind(), d)
	}
	r := w[d]
	if r.End > v.Len() {
		return out, fmt.Errorf("dimension %d has %d elements, need %d", d, v.Len(), r.End)
	}
	var err error
	for i := r.Start; i < r.End; i++ {
		if out, err = flatten(v.Index(i), w, d+1, out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func toFloat(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("element of kind %s is not numeric", v.Kind())
	}
}

// nestedShape returns the lengths of nested slices, outermost first.
func nestedShape(v interface{}) []int {
	var shape []int
	rv := reflect.ValueOf(v)
	for rv.IsValid() {
		for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return shape
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return shape
		}
		shape = append(shape, rv.Len())
		if rv.Len() == 0 {
			return shape
		}
		rv = rv.Index(0)
	}
	return shape
}
