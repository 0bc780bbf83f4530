package formatter

import (
	"encoding/json"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// JSONOutput is the document written by the JSON formatter
type JSONOutput struct {
	File     string          `json:"file"`
	Total    int             `json:"total"`
	Datasets []DatasetOutput `json:"datasets"`
}

// DatasetOutput describes one dataset
type DatasetOutput struct {
	Path     string   `json:"path"`
	Shape    []int    `json:"shape"`
	Dims     []string `json:"dims"`
	Type     string   `json:"type"`
	Class    string   `json:"class,omitempty"`
	Units    string   `json:"units,omitempty"`
	Doc      string   `json:"doc,omitempty"`
	Elements int      `json:"elements"`
}

func (f *jsonFormatter) Format(l *Listing) ([]byte, error) {
	output := &JSONOutput{
		File:     l.File,
		Total:    l.Total,
		Datasets: make([]DatasetOutput, 0, len(l.Datasets)),
	}
	for _, m := range l.Datasets {
		dims := make([]string, m.NDims())
		for d := range dims {
			dims[d] = m.DimName(d)
		}
		output.Datasets = append(output.Datasets, DatasetOutput{
			Path:     m.Path,
			Shape:    append([]int{}, m.Shape...),
			Dims:     dims,
			Type:     m.Type,
			Class:    m.Class,
			Units:    m.Units,
			Doc:      m.Doc,
			Elements: m.Size(),
		})
	}
	return json.MarshalIndent(output, "", "  ")
}
