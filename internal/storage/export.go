package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/gravsim/internal/body"
)

type ExportData struct {
	Run    *RunMetadata `json:"run"`
	Bodies []body.Body  `json:"bodies,omitempty"`
}

// ExportJSON writes a run and, if given, its bodies as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, bodies *body.Store) error {
	data := ExportData{Run: meta}
	if bodies != nil {
		data.Bodies = make([]body.Body, bodies.N())
		for i := range data.Bodies {
			data.Bodies[i] = bodies.Get(i)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
