// Package report renders an inferred schema for people and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/docschema/internal/schema"
)

// Format selects a renderer.
type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatJSONSchema Format = "jsonschema"
)

// ParseFormat parses a format name; empty means FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML, FormatJSONSchema:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Options controls rendering.
type Options struct {
	Format     Format
	Color      bool   // text only
	Job        string // optional, shown in headers
	Collection string
}

// Document is the machine-readable report.
type Document struct {
	Job            string              `json:"job,omitempty" yaml:"job,omitempty"`
	Collection     string              `json:"collection,omitempty" yaml:"collection,omitempty"`
	Mode           string              `json:"mode" yaml:"mode"`
	EstimatedCount int64               `json:"estimated_count" yaml:"estimated_count"`
	SampleSize     int64               `json:"sample_size" yaml:"sample_size"`
	Sampled        int                 `json:"sampled,omitempty" yaml:"sampled,omitempty"`
	Malformed      int                 `json:"malformed,omitempty" yaml:"malformed,omitempty"`
	Schema         []schema.FieldTypes `json:"schema" yaml:"schema"`
}

// NewDocument builds the report document for res, one record per field in
// field order.
func NewDocument(res *schema.Result, opts Options) Document {
	return Document{
		Job:            opts.Job,
		Collection:     opts.Collection,
		Mode:           string(res.Mode),
		EstimatedCount: res.EstimatedCount,
		SampleSize:     res.SampleSize,
		Sampled:        res.Sampled,
		Malformed:      res.Malformed,
		Schema:         Records(res.Aggregate),
	}
}

// Records lists the aggregate as field/type records sorted by field.
func Records(agg schema.Aggregate) []schema.FieldTypes {
	return agg.Batches(schema.GroupingSingle)[0].Schema
}

// Render writes res to w in the requested format.
func Render(w io.Writer, res *schema.Result, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return renderText(w, res, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(res, opts))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(res, opts)); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSONSchema:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(JSONSchema(res.Aggregate, title(opts)))
	}
	return fmt.Errorf("unknown output format %q", opts.Format)
}

func title(opts Options) string {
	if opts.Collection != "" {
		return opts.Collection
	}
	return opts.Job
}
