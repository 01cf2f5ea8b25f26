package renderer

import (
	"math"
	"strconv"
	"strings"

	"querydesk-api/pkg/dbmanager"
)

type cellKind int

const (
	kindNull cellKind = iota
	kindInt
	kindFloat
	kindDecimal
	kindBool
	kindText
)

// cell is one coerced value. text holds the canonical textual form for every
// kind except null.
type cell struct {
	kind    cellKind
	text    string
	boolean bool
	integer int64
	float   float64
}

// coerce applies the per-type rules shared by every format. Values a column
// tag promises but the driver cannot deliver fall back to text.
func coerce(row dbmanager.Row, i int) cell {
	if row.IsNull(i) {
		return cell{kind: kindNull}
	}

	tag := row.ColumnTypeTag(i)
	switch {
	case tag.IsInteger():
		if n, err := row.GetAsInt(i); err == nil {
			return cell{kind: kindInt, integer: n, text: strconv.FormatInt(n, 10)}
		}
	case tag.IsFloat():
		if f, err := row.GetAsFloat(i); err == nil {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return cell{kind: kindNull}
			}
			return cell{kind: kindFloat, float: f, text: strconv.FormatFloat(f, 'f', -1, 64)}
		}
	case tag == dbmanager.TypeDecimal:
		if d, err := row.GetAsDecimal(i); err == nil {
			return cell{kind: kindDecimal, text: d.String()}
		}
	case tag == dbmanager.TypeBool:
		if b, err := row.GetAsBool(i); err == nil {
			return cell{kind: kindBool, boolean: b, text: strconv.FormatBool(b)}
		}
	}

	return cell{kind: kindText, text: row.GetAsString(i)}
}

// sqlLiteral renders a cell as a SQL literal for dialect.
func sqlLiteral(c cell, dialect SQLDialect) string {
	switch c.kind {
	case kindNull:
		return "NULL"
	case kindInt, kindFloat:
		return c.text
	case kindBool:
		return dialect.BoolLiteral(c.boolean)
	default:
		return "'" + strings.ReplaceAll(c.text, "'", "''") + "'"
	}
}
