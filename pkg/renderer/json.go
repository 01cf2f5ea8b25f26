package renderer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"querydesk-api/pkg/dbmanager"
)

// JSON writes rows as an array of objects whose keys keep column order.
func JSON(w io.Writer, rows dbmanager.RowIterator) error {
	bw := bufio.NewWriter(w)
	keys := make([]string, 0, len(rows.Columns()))
	for _, name := range columnNames(rows.Columns()) {
		keys = append(keys, jsonString(name))
	}

	bw.WriteByte('[')
	first := true
	for rows.Next() {
		if !first {
			bw.WriteByte(',')
		}
		first = false
		writeJSONObject(bw, keys, rows.Row())
	}
	if err := rows.Err(); err != nil {
		return err
	}
	bw.WriteByte(']')
	return bw.Flush()
}

func writeJSONObject(bw *bufio.Writer, keys []string, row dbmanager.Row) {
	bw.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteString(key)
		bw.WriteByte(':')
		bw.WriteString(jsonValue(coerce(row, i)))
	}
	bw.WriteByte('}')
}

// JSONRows renders one page as ordered objects for embedding in an API response.
func JSONRows(rows dbmanager.RowIterator) (json.RawMessage, error) {
	defer rows.Close()
	var buf bytes.Buffer
	if err := JSON(&buf, rows); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

func jsonValue(c cell) string {
	switch c.kind {
	case kindNull:
		return "null"
	case kindInt, kindFloat:
		return c.text
	case kindBool:
		return strconv.FormatBool(c.boolean)
	default:
		return jsonString(c.text)
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
