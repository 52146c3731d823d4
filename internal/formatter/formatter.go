// package formatter renders lists of read DTOs as tables, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/summarybot/internal/models"
	"github.com/desertthunder/summarybot/internal/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format names an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatCSV, FormatJSON}

// ParseFormat resolves a format name. The empty string is a table.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, name)
	}
}

var (
	titler      = cases.Title(language.English)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

type column struct {
	name  string
	index []int
}

// Columns returns the column names of T: json names of its scalar fields, embedded structs flattened.
func Columns[T any]() []string {
	cols := columnsOf(reflect.TypeFor[T]())
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// Headers returns title-cased column names, e.g. "full_name" becomes "Full Name".
func Headers[T any]() []string {
	names := Columns[T]()
	for i, name := range names {
		names[i] = titler.String(strings.ReplaceAll(name, "_", " "))
	}
	return names
}

// Rows renders every item as a list of cell strings.
func Rows[T any](items []T) [][]string {
	cols := columnsOf(reflect.TypeFor[T]())
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rv := reflect.Indirect(reflect.ValueOf(item))
		row := make([]string, len(cols))
		for i, c := range cols {
			f, err := rv.FieldByIndexErr(c.index)
			if err != nil {
				continue
			}
			row[i] = cell(f)
		}
		rows = append(rows, row)
	}
	return rows
}

// ExportToTable renders items as a bordered table.
func ExportToTable[T any](items []T) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Headers[T]()...).
		Rows(Rows(items)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// ExportToCSV renders items as CSV with a header line of column names.
func ExportToCSV[T any](items []T) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(Columns[T]()); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range Rows(items) {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToJSON renders items as an indented JSON array. A nil list is [].
func ExportToJSON[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Write renders items to w in format f.
func Write[T any](w io.Writer, f Format, items []T) error {
	var data []byte
	var err error

	switch f {
	case FormatTable, "":
		if len(items) == 0 {
			_, err = io.WriteString(w, "No results.\n")
			return err
		}
		data = []byte(ExportToTable(items) + "\n")
	case FormatCSV:
		data, err = ExportToCSV(items)
	case FormatJSON:
		data, err = ExportToJSON(items)
	default:
		return fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, f)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// WriteExport writes items to path in format f.
func WriteExport[T any](path string, f Format, items []T) error {
	var buf bytes.Buffer
	if err := Write(&buf, f, items); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var (
	timeType     = reflect.TypeFor[time.Time]()
	unixTimeType = reflect.TypeFor[models.UnixTime]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
)

func columnsOf(t reflect.Type) []column {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []column
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, skip := jsonName(f)
		if skip || !scalar(f.Type) {
			continue
		}
		cols = append(cols, column{name: name, index: f.Index})
	}
	return cols
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, false
	}
	return f.Name, false
}

// scalar reports whether a field renders as a single cell. Nested DTOs do not.
func scalar(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType, t == unixTimeType:
		return true
	case t.Implements(stringerType):
		return true
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return false
	}
	return true
}

func cell(v reflect.Value) string {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch x := v.Interface().(type) {
	case models.UnixTime:
		if x.IsZero() {
			return ""
		}
		return x.Time.Format(time.RFC3339)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v.Interface())
}
