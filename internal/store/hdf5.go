package store

import (
	"context"
	"os"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/errors"
	"github.com/yildizm/h5view/internal/logger"
)

// Attribute names read from every dataset.
const (
	attrUnits = "units"
	attrDoc   = "doc"
	attrType  = "type"
	attrDims  = "dims"
)

// HDF5 is a Store over an HDF5 (netCDF4) file. The decoder is not safe for
// concurrent use, so reads are serialized.
type HDF5 struct {
	file    string
	log     *logger.Logger
	mu      sync.Mutex
	root    api.Group
	groups  map[string]api.Group
	catalog *dataset.Catalog
}

// Open opens file and scans every group into the catalog.
func Open(ctx context.Context, file string, log *logger.Logger) (*HDF5, error) {
	if log == nil {
		log = logger.Nop()
	}
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.FileNotFound, file, nil)
		}
		return nil, errors.New(errors.IOFailure, file, err)
	}
	if info.IsDir() {
		return nil, errors.Newf(errors.UnsupportedFormat, file, "is a directory")
	}

	root, err := netcdf.Open(file)
	if err != nil {
		return nil, errors.New(errors.UnsupportedFormat, file, err)
	}

	h := &HDF5{
		file:   file,
		log:    log.WithComponent("store"),
		root:   root,
		groups: map[string]api.Group{"": root},
	}
	labels := make(map[string][]string)
	var metas []dataset.Meta
	if err := h.scan(ctx, root, "", labels, &metas); err != nil {
		h.Close()
		return nil, err
	}
	h.catalog = dataset.NewCatalog(metas)
	h.log.InfoWithFields("opened %s", []logger.Field{logger.Count(h.catalog.Len())}, file)
	return h, nil
}

// Catalog returns the datasets of the file.
func (h *HDF5) Catalog() *dataset.Catalog {
	return h.catalog
}

// Close releases the file. Subgroups share the root's reader.
func (h *HDF5) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.root != nil {
		h.root.Close()
		h.root = nil
	}
	h.groups = nil
	return nil
}

func (h *HDF5) scan(ctx context.Context, g api.Group, prefix string, labels map[string][]string, metas *[]dataset.Meta) error {
	for _, name := range g.ListVariables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		meta, err := h.describe(g, prefix, name, labels)
		if err != nil {
			h.log.WarnWithFields("skipping dataset", []logger.Field{logger.F("path", path.Join(prefix, name)), logger.Error(err)})
			continue
		}
		*metas = append(*metas, meta)
	}
	for _, sub := range g.ListSubgroups() {
		sg, err := g.GetGroup(sub)
		if err != nil {
			h.log.WarnWithFields("skipping group", []logger.Field{logger.F("group", path.Join(prefix, sub)), logger.Error(err)})
			continue
		}
		full := path.Join(prefix, sub)
		h.groups[full] = sg
		if err := h.scan(ctx, sg, full, labels, metas); err != nil {
			return err
		}
	}
	return nil
}

func (h *HDF5) describe(g api.Group, prefix, name string, labels map[string][]string) (dataset.Meta, error) {
	vg, err := g.GetVarGetter(name)
	if err != nil {
		return dataset.Meta{}, err
	}

	meta := dataset.Meta{
		Path:     path.Join(prefix, name),
		Type:     vg.GoType(),
		DimNames: vg.Dimensions(),
	}

	ndims := len(meta.DimNames)
	outer := int(vg.Len())
	var inner []int
	if outer > 0 && (ndims > 1 || (ndims == 0 && outer > 1)) {
		sample, err := vg.GetSlice(0, 1)
		if err != nil {
			return dataset.Meta{}, err
		}
		inner = nestedShape(sample)
		if ndims == 0 {
			ndims = len(inner)
		}
	}
	if ndims > 0 {
		meta.Shape = make([]int, ndims)
		meta.Shape[0] = outer
		for d := 1; d < ndims && d < len(inner); d++ {
			meta.Shape[d] = inner[d]
		}
	}

	attrs := vg.Attributes()
	if attrs != nil {
		meta.Units = attrString(attrs, attrUnits)
		meta.Doc = attrString(attrs, attrDoc)
		meta.Class = attrString(attrs, attrType)
		if dims := attrStrings(attrs, attrDims); len(dims) == ndims && ndims > 0 {
			meta.DimNames = dims
			meta.Labels = h.dimLabels(g, prefix, dims, meta.Shape, labels)
		}
	}
	return meta, nil
}

// dimLabels resolves each named dimension to the string dataset of the same
// name in the same group.
func (h *HDF5) dimLabels(g api.Group, prefix string, dims []string, shape []int, cache map[string][]string) [][]string {
	out := make([][]string, len(dims))
	found := false
	for d, dim := range dims {
		key := path.Join(prefix, dim)
		vals, ok := cache[key]
		if !ok {
			vals = readLabels(g, dim)
			cache[key] = vals
		}
		if len(vals) == shape[d] && len(vals) > 0 {
			out[d] = vals
			found = true
		}
	}
	if !found {
		return nil
	}
	return out
}

func readLabels(g api.Group, name string) []string {
	v, err := g.GetVariable(name)
	if err != nil || v == nil {
		return nil
	}
	return toStrings(v.Values)
}

func attrString(attrs api.AttributeMap, key string) string {
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	if s := toStrings(v); len(s) > 0 {
		return strings.TrimSpace(strings.Join(s, " "))
	}
	return ""
}

func attrStrings(attrs api.AttributeMap, key string) []string {
	v, ok := attrs.Get(key)
	if !ok {
		return nil
	}
	vals := toStrings(v)
	if len(vals) == 1 && strings.ContainsAny(vals[0], ", ") {
		return strings.FieldsFunc(vals[0], func(r rune) bool { return r == ',' || r == ' ' })
	}
	return vals
}

func toStrings(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []byte:
		return []string{strings.TrimRight(string(t), "\x00")}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, ok := rv.Index(i).Interface().(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}

// ReadSlice reads the window w of path. Dimension 0 is read through the
// decoder's slice API; inner ranges are applied while flattening.
func (h *HDF5) ReadSlice(ctx context.Context, p string, w dataset.Window) (*dataset.Slice, error) {
	meta, err := checkRead(h.catalog, p, w)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups == nil {
		return nil, errors.Newf(errors.IOFailure, p, "store is closed")
	}

	dir, name := path.Split(p)
	g, ok := h.groups[strings.TrimSuffix(dir, "/")]
	if !ok {
		return nil, errors.New(errors.DatasetNotFound, p, nil)
	}
	vg, err := g.GetVarGetter(name)
	if err != nil {
		return nil, errors.New(errors.IOFailure, p, err)
	}

	var raw interface{}
	local := w.Clone()
	if len(w) == 0 {
		raw, err = vg.Values()
	} else {
		raw, err = vg.GetSlice(int64(w[0].Start), int64(w[0].End))
		local[0] = dataset.Range{Start: 0, End: w[0].Len()}
	}
	if err != nil {
		return nil, errors.New(errors.IOFailure, p, err)
	}

	values, err := flatten(reflect.ValueOf(raw), local, 0, make([]float64, 0, w.Size()))
	if err != nil {
		return nil, errors.New(errors.IOFailure, p, err)
	}
	h.log.DebugWithFields("read slice", []logger.Field{logger.F("key", dataset.Key{Path: meta.Path, Window: w}), logger.Count(len(values))})
	return &dataset.Slice{
		Key:    dataset.Key{Path: p, Window: w.Clone()},
		Shape:  w.Shape(),
		Values: values,
	}, nil
}
