package output

import (
	"fmt"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// View is something the CLI can print. Data is what the structured formats
// encode; Table is the tabular projection used by table and markdown output.
type View interface {
	Data() any
	Table() Table
}

// Table is a format-neutral tabular projection of a view.
type Table struct {
	Title  string
	Header []any
	Rows   [][]any
	Footer []any
}

// Formatter renders views.
type Formatter interface {
	Format(view View) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &TableFormatter{Markdown: true}
	default:
		return &TableFormatter{}
	}
}

// Render formats view and guarantees a trailing newline.
func Render(format Format, view View) (string, error) {
	if view == nil {
		return "", nil
	}
	rendered, err := NewFormatter(format).Format(view)
	if err != nil {
		return "", err
	}
	if rendered != "" && !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	return rendered, nil
}
