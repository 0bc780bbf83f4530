// Package formatter renders a dataset listing for non-interactive output.
package formatter

import (
	"fmt"

	"github.com/yildizm/h5view/internal/dataset"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(listing *Listing) ([]byte, error)
}

// Listing is the result of listing a file.
type Listing struct {
	File     string
	Total    int // datasets in the catalog before filtering
	Datasets []dataset.Meta
	// Width bounds the text table; 0 means unbounded.
	Width int
}

// Formats lists the names accepted by New.
var Formats = []string{"text", "json", "csv", "markdown", "tree"}

// New returns the formatter for format.
func New(format string) (Formatter, error) {
	switch format {
	case "text", "":
		return NewTerminal(), nil
	case "json":
		return NewJSON(), nil
	case "csv":
		return NewCSV(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "tree":
		return NewTree(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (use text, json, csv, markdown or tree)", format)
	}
}
