package output

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// TableFormatter renders views as an ASCII table, or as a markdown table when
// Markdown is set.
type TableFormatter struct {
	Markdown bool
}

// Format renders view's table projection.
func (f *TableFormatter) Format(view View) (string, error) {
	projection := view.Table()

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if projection.Title != "" {
		t.SetTitle(projection.Title)
	}
	if len(projection.Header) > 0 {
		t.AppendHeader(table.Row(projection.Header))
	}
	for _, row := range projection.Rows {
		t.AppendRow(table.Row(row))
	}
	if len(projection.Footer) > 0 {
		t.AppendFooter(table.Row(projection.Footer))
	}

	if f.Markdown {
		return t.RenderMarkdown(), nil
	}
	return t.Render(), nil
}

// JSONFormatter renders views as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format renders view's data as JSON.
func (f *JSONFormatter) Format(view View) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(view.Data(), "", "  ")
	} else {
		data, err = json.Marshal(view.Data())
	}
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data), nil
}

// YAMLFormatter renders views as YAML.
type YAMLFormatter struct{}

// Format renders view's data as YAML.
func (f *YAMLFormatter) Format(view View) (string, error) {
	data, err := yaml.Marshal(view.Data())
	if err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return string(data), nil
}
