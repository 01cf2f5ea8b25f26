package renderer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"querydesk-api/pkg/dbmanager"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatXML    Format = "xml"
	FormatXLSX   Format = "xlsx"
	FormatInsert Format = "insert-sql"
	FormatUpdate Format = "update-sql"
)

var (
	ErrUnknownFormat  = errors.New("unknown export format")
	ErrMissingTable   = errors.New("a table name is required for SQL output")
	ErrInvalidKeySize = errors.New("key columns must leave at least one column to set")
)

// SQLDialect is the part of a database driver the SQL renderers need.
type SQLDialect interface {
	QuoteIdentifier(name string) string
	BoolLiteral(b bool) string
}

// Options tunes the individual renderers. Zero values pick the defaults.
type Options struct {
	// Table is the target of generated INSERT/UPDATE statements
	Table string
	// Dialect quotes identifiers and booleans in generated SQL
	Dialect SQLDialect
	// BatchSize is the number of rows per INSERT statement
	BatchSize int
	// KeyColumns is the number of leading columns used in the UPDATE WHERE clause
	KeyColumns int
	// GroupColumns is the number of leading XLSX columns collapsed when repeated
	GroupColumns int
	// Multiline spreads generated SQL statements over several lines
	Multiline bool
	// SheetName names the XLSX worksheet
	SheetName string
}

const (
	defaultBatchSize = 100
	defaultSheetName = "Result"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatCSV, FormatXML, FormatXLSX, FormatInsert, FormatUpdate:
		return f, nil
	case "insert", "sql":
		return FormatInsert, nil
	case "update":
		return FormatUpdate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// IsSQL reports whether the format generates SQL statements.
func (f Format) IsSQL() bool { return f == FormatInsert || f == FormatUpdate }

// ContentType returns the MIME type of the rendered payload.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXML:
		return "application/xml"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/sql; charset=utf-8"
	}
}

// Extension returns the file extension used for downloads.
func (f Format) Extension() string {
	switch f {
	case FormatInsert, FormatUpdate:
		return "sql"
	default:
		return string(f)
	}
}

// Render drains rows into w using format. The iterator is always closed.
func Render(w io.Writer, rows dbmanager.RowIterator, format Format, opts Options) error {
	defer rows.Close()

	var err error
	switch format {
	case FormatJSON:
		err = JSON(w, rows)
	case FormatCSV:
		err = CSV(w, rows)
	case FormatXML:
		err = XML(w, rows)
	case FormatXLSX:
		err = XLSX(w, rows, opts)
	case FormatInsert:
		err = Insert(w, rows, opts)
	case FormatUpdate:
		err = Update(w, rows, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", format, err)
	}
	return nil
}

func columnNames(columns []dbmanager.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
