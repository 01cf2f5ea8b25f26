package renderer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"querydesk-api/pkg/dbmanager"
)

// Insert writes INSERT statements holding up to opts.BatchSize rows each.
func Insert(w io.Writer, rows dbmanager.RowIterator, opts Options) error {
	if opts.Table == "" {
		return ErrMissingTable
	}
	dialect := dialectOrDefault(opts.Dialect)
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	quoted := quoteAll(dialect, columnNames(rows.Columns()))
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES", dialect.QuoteIdentifier(opts.Table), strings.Join(quoted, ", "))

	bw := bufio.NewWriter(w)
	batch := make([]string, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		bw.WriteString(head)
		if opts.Multiline {
			bw.WriteString("\n  ")
			bw.WriteString(strings.Join(batch, ",\n  "))
		} else {
			bw.WriteByte(' ')
			bw.WriteString(strings.Join(batch, ", "))
		}
		bw.WriteString(";\n")
		batch = batch[:0]
	}

	for rows.Next() {
		row := rows.Row()
		values := make([]string, row.Len())
		for i := range values {
			values[i] = sqlLiteral(coerce(row, i), dialect)
		}
		batch = append(batch, "("+strings.Join(values, ", ")+")")
		if len(batch) == batchSize {
			flush()
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	flush()
	return bw.Flush()
}

// Update writes one UPDATE per row. The first opts.KeyColumns columns form the
// WHERE clause, the remaining columns the SET list.
func Update(w io.Writer, rows dbmanager.RowIterator, opts Options) error {
	if opts.Table == "" {
		return ErrMissingTable
	}
	columns := rows.Columns()
	keys := opts.KeyColumns
	if keys < 1 || keys >= len(columns) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidKeySize, keys, len(columns))
	}
	dialect := dialectOrDefault(opts.Dialect)
	quoted := quoteAll(dialect, columnNames(columns))
	table := dialect.QuoteIdentifier(opts.Table)

	setSep, whereSep := ", ", " AND "
	if opts.Multiline {
		setSep, whereSep = ",\n    ", "\n  AND "
	}

	bw := bufio.NewWriter(w)
	for rows.Next() {
		row := rows.Row()

		sets := make([]string, 0, len(columns)-keys)
		for i := keys; i < len(columns); i++ {
			sets = append(sets, quoted[i]+" = "+sqlLiteral(coerce(row, i), dialect))
		}
		conds := make([]string, 0, keys)
		for i := 0; i < keys; i++ {
			c := coerce(row, i)
			if c.kind == kindNull {
				conds = append(conds, quoted[i]+" IS NULL")
				continue
			}
			conds = append(conds, quoted[i]+" = "+sqlLiteral(c, dialect))
		}

		if opts.Multiline {
			fmt.Fprintf(bw, "UPDATE %s\nSET %s\nWHERE %s;\n", table, strings.Join(sets, setSep), strings.Join(conds, whereSep))
		} else {
			fmt.Fprintf(bw, "UPDATE %s SET %s WHERE %s;\n", table, strings.Join(sets, setSep), strings.Join(conds, whereSep))
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return bw.Flush()
}

func quoteAll(dialect SQLDialect, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = dialect.QuoteIdentifier(n)
	}
	return out
}

// ansiDialect is used when no driver dialect is supplied.
type ansiDialect struct{}

func (ansiDialect) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func (ansiDialect) BoolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func dialectOrDefault(d SQLDialect) SQLDialect {
	if d == nil {
		return ansiDialect{}
	}
	return d
}
