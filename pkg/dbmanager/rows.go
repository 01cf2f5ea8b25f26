package dbmanager

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TypeTag is the dialect-independent category of a column.
type TypeTag int

const (
	TypeText TypeTag = iota
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeDecimal
	TypeBool
	TypeDate
	TypeTime
	TypeTimestamp
	TypeBytes
)

var typeTagNames = map[TypeTag]string{
	TypeText:      "text",
	TypeInt16:     "int16",
	TypeInt32:     "int32",
	TypeInt64:     "int64",
	TypeFloat32:   "float32",
	TypeFloat64:   "float64",
	TypeDecimal:   "decimal",
	TypeBool:      "bool",
	TypeDate:      "date",
	TypeTime:      "time",
	TypeTimestamp: "timestamp",
	TypeBytes:     "bytes",
}

func (t TypeTag) String() string {
	if name, ok := typeTagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypeTag(%d)", int(t))
}

// IsInteger reports whether the tag is one of the integer widths.
func (t TypeTag) IsInteger() bool {
	return t == TypeInt16 || t == TypeInt32 || t == TypeInt64
}

// IsFloat reports whether the tag is a binary floating point type.
func (t TypeTag) IsFloat() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// Row is a dialect-agnostic view over one result row.
type Row interface {
	Len() int
	ColumnName(i int) string
	ColumnTypeTag(i int) TypeTag
	IsNull(i int) bool
	GetAsString(i int) string
	GetAsInt(i int) (int64, error)
	GetAsFloat(i int) (float64, error)
	GetAsBool(i int) (bool, error)
	GetAsDecimal(i int) (decimal.Decimal, error)
}

// RowIterator streams rows. The Row returned by Row() stays valid after Next.
type RowIterator interface {
	Columns() []Column
	Next() bool
	Row() Row
	Err() error
	Close() error
}

// valueRow backs every Row implementation with the values a driver scanned.
type valueRow struct {
	columns []Column
	values  []any
}

func (r *valueRow) Len() int { return len(r.columns) }

func (r *valueRow) ColumnName(i int) string { return r.columns[i].Name }

func (r *valueRow) ColumnTypeTag(i int) TypeTag { return r.columns[i].Tag }

func (r *valueRow) IsNull(i int) bool { return r.values[i] == nil }

// GetAsString returns the textual form of a value; NULL becomes "".
// Date and time values are formatted, never re-parsed from text.
func (r *valueRow) GetAsString(i int) string {
	switch v := r.values[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return formatTime(v, r.columns[i].Tag)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case decimal.Decimal:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (r *valueRow) GetAsInt(i int) (int64, error) {
	switch v := r.values[i].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("column %s: %d overflows int64", r.columns[i].Name, v)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("column %s: %v is not an integer", r.columns[i].Name, v)
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case nil:
		return 0, fmt.Errorf("column %s is null", r.columns[i].Name)
	default:
		return 0, fmt.Errorf("column %s: cannot read %T as integer", r.columns[i].Name, v)
	}
}

func (r *valueRow) GetAsFloat(i int) (float64, error) {
	switch v := r.values[i].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, nil
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case nil:
		return 0, fmt.Errorf("column %s is null", r.columns[i].Name)
	default:
		return 0, fmt.Errorf("column %s: cannot read %T as float", r.columns[i].Name, v)
	}
}

func (r *valueRow) GetAsBool(i int) (bool, error) {
	switch v := r.values[i].(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(v)))
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case nil:
		return false, fmt.Errorf("column %s is null", r.columns[i].Name)
	default:
		return false, fmt.Errorf("column %s: cannot read %T as bool", r.columns[i].Name, v)
	}
}

func (r *valueRow) GetAsDecimal(i int) (decimal.Decimal, error) {
	switch v := r.values[i].(type) {
	case decimal.Decimal:
		return v, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(v)))
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case nil:
		return decimal.Zero, fmt.Errorf("column %s is null", r.columns[i].Name)
	default:
		return decimal.Zero, fmt.Errorf("column %s: cannot read %T as decimal", r.columns[i].Name, v)
	}
}

func formatTime(t time.Time, tag TypeTag) string {
	switch tag {
	case TypeDate:
		return t.Format(time.DateOnly)
	case TypeTime:
		return t.Format("15:04:05.999999")
	default:
		return t.Format("2006-01-02 15:04:05.999999Z07:00")
	}
}

// TagForTypeName maps a driver reported column type name to a TypeTag. It
// understands the names lib/pq, go-sql-driver/mysql and sqlite report.
func TagForTypeName(name string) TypeTag {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "UNSIGNED ")
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	switch name {
	case "INT2", "SMALLINT", "TINYINT", "YEAR":
		return TypeInt16
	case "INT4", "INT", "INTEGER", "MEDIUMINT", "SERIAL":
		return TypeInt32
	case "INT8", "BIGINT", "BIGSERIAL", "OID":
		return TypeInt64
	case "FLOAT4", "FLOAT":
		return TypeFloat32
	case "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "REAL":
		return TypeFloat64
	case "NUMERIC", "DECIMAL", "MONEY":
		return TypeDecimal
	case "BOOL", "BOOLEAN", "BIT":
		return TypeBool
	case "DATE":
		return TypeDate
	case "TIME", "TIMETZ":
		return TypeTime
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME":
		return TypeTimestamp
	case "BYTEA", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY":
		return TypeBytes
	default:
		return TypeText
	}
}

// sqlRowIterator adapts *sql.Rows to RowIterator.
type sqlRowIterator struct {
	rows    *sql.Rows
	columns []Column
	current *valueRow
	err     error
}

func newSQLRowIterator(rows *sql.Rows, driver DatabaseDriver) (*sqlRowIterator, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}
	columns := make([]Column, len(types))
	for i, ct := range types {
		columns[i] = Column{
			Name: ct.Name(),
			Type: ct.DatabaseTypeName(),
			Tag:  driver.TypeTag(ct.DatabaseTypeName()),
		}
	}
	return &sqlRowIterator{rows: rows, columns: columns}, nil
}

func (it *sqlRowIterator) Columns() []Column { return it.columns }

func (it *sqlRowIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	values := make([]any, len(it.columns))
	dest := make([]any, len(it.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := it.rows.Scan(dest...); err != nil {
		it.err = fmt.Errorf("failed to scan row: %w", err)
		return false
	}
	// drivers may reuse byte buffers between rows
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = append([]byte(nil), b...)
		}
	}
	it.current = &valueRow{columns: it.columns, values: values}
	return true
}

func (it *sqlRowIterator) Row() Row { return it.current }

func (it *sqlRowIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *sqlRowIterator) Close() error { return it.rows.Close() }

// MemoryRows is a RowIterator over values already held in memory.
type MemoryRows struct {
	columns []Column
	values  [][]any
	pos     int
}

// NewMemoryRows builds an iterator over values. Each inner slice is one row
// laid out in column order.
func NewMemoryRows(columns []Column, values [][]any) *MemoryRows {
	return &MemoryRows{columns: columns, values: values, pos: -1}
}

func (m *MemoryRows) Columns() []Column { return m.columns }

func (m *MemoryRows) Next() bool {
	if m.pos+1 >= len(m.values) {
		return false
	}
	m.pos++
	return true
}

func (m *MemoryRows) Row() Row {
	return &valueRow{columns: m.columns, values: m.values[m.pos]}
}

func (m *MemoryRows) Err() error { return nil }

func (m *MemoryRows) Close() error { return nil }

// CollectRows drains an iterator and closes it.
func CollectRows(it RowIterator) ([]Row, error) {
	defer it.Close()
	var rows []Row
	for it.Next() {
		rows = append(rows, it.Row())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
