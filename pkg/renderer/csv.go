package renderer

import (
	"encoding/csv"
	"io"

	"querydesk-api/pkg/dbmanager"
)

// CSV writes a header line followed by one record per row. NULL becomes an
// empty field.
func CSV(w io.Writer, rows dbmanager.RowIterator) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columnNames(rows.Columns())); err != nil {
		return err
	}

	record := make([]string, len(rows.Columns()))
	for rows.Next() {
		row := rows.Row()
		for i := range record {
			c := coerce(row, i)
			if c.kind == kindNull {
				record[i] = ""
				continue
			}
			record[i] = c.text
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
