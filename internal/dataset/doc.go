// Package dataset holds the data model shared by the store, the cache, the
// session and the renderer: dataset metadata, the read-only catalog, slice
// windows and the slices read through them.
package dataset
