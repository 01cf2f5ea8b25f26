package renderer

import (
	"encoding/xml"
	"io"

	"querydesk-api/pkg/dbmanager"
)

// XML writes <rows><row><field name="col">value</field>...</row>...</rows>.
// NULL fields carry null="true" and no content.
func XML(w io.Writer, rows dbmanager.RowIterator) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	names := columnNames(rows.Columns())

	rowsEl := xml.StartElement{Name: xml.Name{Local: "rows"}}
	rowEl := xml.StartElement{Name: xml.Name{Local: "row"}}

	if err := enc.EncodeToken(rowsEl); err != nil {
		return err
	}
	for rows.Next() {
		row := rows.Row()
		if err := enc.EncodeToken(rowEl); err != nil {
			return err
		}
		for i, name := range names {
			if err := encodeField(enc, name, coerce(row, i)); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(rowEl.End()); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if err := enc.EncodeToken(rowsEl.End()); err != nil {
		return err
	}
	return enc.Flush()
}

func encodeField(enc *xml.Encoder, name string, c cell) error {
	field := xml.StartElement{
		Name: xml.Name{Local: "field"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: name}},
	}
	if c.kind == kindNull {
		field.Attr = append(field.Attr, xml.Attr{Name: xml.Name{Local: "null"}, Value: "true"})
	}
	if err := enc.EncodeToken(field); err != nil {
		return err
	}
	if c.kind != kindNull {
		if err := enc.EncodeToken(xml.CharData(c.text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(field.End())
}
