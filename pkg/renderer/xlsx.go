package renderer

import (
	"io"

	"github.com/xuri/excelize/v2"

	"querydesk-api/pkg/dbmanager"
)

// XLSX writes a single worksheet with a styled header row. Leading grouping
// columns are blanked while they repeat the row above, left to right, so a
// column only collapses when every grouping column before it did too.
func XLSX(w io.Writer, rows dbmanager.RowIterator, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.SheetName
	if sheet == "" {
		sheet = defaultSheetName
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"305496"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "1F1F1F", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	names := columnNames(rows.Columns())
	header := make([]any, len(names))
	for i, name := range names {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	groups := opts.GroupColumns
	if groups > len(names) {
		groups = len(names)
	}
	var previous []string

	line := 2
	for rows.Next() {
		row := rows.Row()
		cells := make([]cell, len(names))
		for i := range cells {
			cells[i] = coerce(row, i)
		}

		values := make([]any, len(names))
		collapsing := previous != nil
		for i, c := range cells {
			if i < groups && collapsing && groupKey(c) == previous[i] {
				values[i] = nil
				continue
			}
			if i < groups {
				collapsing = false
			}
			values[i] = xlsxValue(c)
		}

		if groups > 0 {
			previous = make([]string, groups)
			for i := 0; i < groups; i++ {
				previous[i] = groupKey(cells[i])
			}
		}

		axis, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return err
		}
		line++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func xlsxValue(c cell) any {
	switch c.kind {
	case kindNull:
		return nil
	case kindInt:
		return c.integer
	case kindFloat:
		return c.float
	case kindBool:
		return c.boolean
	default:
		return c.text
	}
}

// groupKey distinguishes NULL from the empty string when comparing rows.
func groupKey(c cell) string {
	if c.kind == kindNull {
		return "\x00"
	}
	return c.text
}
