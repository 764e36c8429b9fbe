package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is human-readable output (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format. Empty means FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatNDJSON, FormatTable, FormatYAML:
		return f, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|ndjson|table|yaml)")
	}
}

// IsStructured reports whether the format is machine-readable structured output.
func IsStructured(format Format) bool {
	return format == FormatJSON || format == FormatNDJSON || format == FormatYAML
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Print outputs data in the configured format. A --query in ctx filters
// JSON, NDJSON and YAML output.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}
	data = ApplyAgentOptions(ctx, data)

	switch p.format {
	case FormatJSON:
		return p.printJSON(ctx, data, true)
	case FormatNDJSON:
		return p.printJSON(ctx, data, false)
	case FormatYAML:
		return p.printYAML(ctx, data)
	case FormatTable:
		return p.printTable(data)
	case FormatText:
		return p.printText(data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func (p *Printer) encoder() *json.Encoder {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	return enc
}

// writeIndented encodes data compactly and re-indents it. The encoder's own
// indent mode pads recursive types such as tree nodes with runaway whitespace.
func (p *Printer) writeIndented(data interface{}) error {
	var compact bytes.Buffer
	enc := json.NewEncoder(&compact)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(compact.Bytes()), "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := p.w.Write(out.Bytes())
	return err
}

// printJSON writes data as one indented document, or as one line per
// slice element when indent is false.
func (p *Printer) printJSON(ctx context.Context, data interface{}, indent bool) error {
	if query := QueryFromContext(ctx); query != "" {
		results, err := runQuery(query, data)
		if err != nil {
			return err
		}
		enc := p.encoder()
		for _, v := range results {
			if err := enc.Encode(v); err != nil {
				return err
			}
		}
		return nil
	}

	if indent {
		return p.writeIndented(data)
	}

	enc := p.encoder()
	v := reflect.Indirect(reflect.ValueOf(data))
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if err := enc.Encode(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(data)
}

func (p *Printer) printYAML(ctx context.Context, data interface{}) error {
	if query := QueryFromContext(ctx); query != "" {
		results, err := runQuery(query, data)
		if err != nil {
			return err
		}
		if len(results) == 1 {
			data = results[0]
		} else {
			data = results
		}
	}
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// runQuery evaluates a jq expression. gojq only walks plain JSON values,
// so data is round-tripped through JSON first.
func runQuery(query string, data interface{}) ([]interface{}, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid --query: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid --query: %w", err)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode for query: %w", err)
	}
	var plain interface{}
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("decode for query: %w", err)
	}

	var out []interface{}
	iter := code.Run(plain)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query error: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// printText writes Texter values as they render themselves, maps and
// structs as key-value pairs, slices one item per line.
func (p *Printer) printText(data interface{}) error {
	if t, ok := data.(Texter); ok {
		text := t.Text()
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		_, err := io.WriteString(p.w, text)
		return err
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, key := range keys {
			if _, err := fmt.Fprintf(p.w, "%v: %s\n", key.Interface(), textValue(v.MapIndex(key))); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		if tm, ok := v.Interface().(time.Time); ok {
			_, err := fmt.Fprintln(p.w, tm.Format(time.RFC3339))
			return err
		}
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			fv := v.Field(i)
			if strings.Contains(f.Tag.Get("json"), "omitempty") && fv.IsZero() {
				continue
			}
			if _, err := fmt.Fprintf(p.w, "%s: %s\n", fieldLabel(f), textValue(fv)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if _, err := fmt.Fprintln(p.w, textValue(v.Index(i))); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(p.w, v.Interface())
		return err
	}
}

func textValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	switch x := v.Interface().(type) {
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case []string:
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v.Interface())
}

func fieldLabel(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name := strings.Split(tag, ",")[0]; name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func (p *Printer) printTable(data interface{}) error {
	if t, ok := data.(Tabular); ok {
		td := t.TableData()
		return p.printTableData(td.Headers, td.Rows)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("table format requires a list of items")
	}
	if v.Len() == 0 {
		return nil
	}
	headers, rows := buildTable(v)
	return p.printTableData(headers, rows)
}

func (p *Printer) printTableData(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

// buildTable uses the exported fields of the first struct element as
// columns. Nested slices and structs are skipped.
func buildTable(v reflect.Value) ([]string, [][]string) {
	first := reflect.Indirect(v.Index(0))
	if first.Kind() != reflect.Struct {
		rows := make([][]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			rows = append(rows, []string{textValue(v.Index(i))})
		}
		return []string{"value"}, rows
	}

	var (
		headers []string
		cols    []int
	)
	t := first.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || !scalarColumn(f.Type) {
			continue
		}
		headers = append(headers, fieldLabel(f))
		cols = append(cols, i)
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := reflect.Indirect(v.Index(i))
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, textValue(item.Field(c)))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func scalarColumn(t reflect.Type) bool {
	if t == reflect.TypeOf(time.Time{}) || t == reflect.TypeOf([]string{}) {
		return true
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Ptr, reflect.Interface:
		return false
	}
	return true
}
