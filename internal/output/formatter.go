// Package output renders lookup results as tables, JSON or plain text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// Format is the output format requested by the user.
type Format string

// Output format constants supported by the --output flag.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatText  Format = "text"
)

// Formats lists every supported format in completion order.
func Formats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatText)}
}

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be \"table\", \"json\", or \"text\"", s)
	}
}

// TableFormattable results know how to render themselves as an ASCII table.
type TableFormattable interface {
	WriteTable(w io.Writer) error
}

// TextFormattable results know how to render themselves as plain text (one record per line).
// Used for piping output to other tools.
type TextFormattable interface {
	WriteText(w io.Writer) error
}

// Write dispatches a result to the appropriate formatter.
// JSON uses json.Encoder with indentation. Table requires the result to implement TableFormattable.
// Text requires the result to implement TextFormattable.
func Write(w io.Writer, format Format, result any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatTable:
		tf, ok := result.(TableFormattable)
		if !ok {
			return fmt.Errorf("result type %T does not support table output", result)
		}
		return tf.WriteTable(w)
	case FormatText:
		pf, ok := result.(TextFormattable)
		if !ok {
			return fmt.Errorf("result type %T does not support text output", result)
		}
		return pf.WriteText(w)
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}
