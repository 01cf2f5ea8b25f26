package renderer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/xwb1989/sqlparser"

	"querydesk-api/pkg/dbmanager"
)

func sampleColumns() []dbmanager.Column {
	return []dbmanager.Column{
		{Name: "id", Type: "INT8", Tag: dbmanager.TypeInt64},
		{Name: "name", Type: "TEXT", Tag: dbmanager.TypeText},
		{Name: "price", Type: "NUMERIC", Tag: dbmanager.TypeDecimal},
		{Name: "ratio", Type: "FLOAT8", Tag: dbmanager.TypeFloat64},
		{Name: "active", Type: "BOOL", Tag: dbmanager.TypeBool},
		{Name: "born", Type: "DATE", Tag: dbmanager.TypeDate},
	}
}

func sampleRows() *dbmanager.MemoryRows {
	return dbmanager.NewMemoryRows(sampleColumns(), [][]any{
		{int64(1), "O'Brien, Pat", []byte("10.50"), 0.5, true, []byte("2001-02-03")},
		{int64(2), `say "hi"`, []byte("-3"), math.NaN(), false, nil},
		{int64(3), nil, nil, nil, nil, []byte("1999-12-31")},
	})
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleRows()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `[{"id":1,"name":"O'Brien, Pat","price":"10.5","ratio":0.5,"active":true,"born":"2001-02-03"}`))
	assert.Contains(t, out, `"ratio":null`)
	assert.Contains(t, out, `"name":"say \"hi\""`)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Nil(t, decoded[2]["name"])
	assert.Equal(t, false, decoded[1]["active"])
}

func TestJSONRowsEmpty(t *testing.T) {
	raw, err := JSONRows(dbmanager.NewMemoryRows(sampleColumns(), nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, sampleRows()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,name,price,ratio,active,born", lines[0])
	assert.Equal(t, `1,"O'Brien, Pat",10.5,0.5,true,2001-02-03`, lines[1])
	assert.Equal(t, `2,"say ""hi""",-3,,false,`, lines[2])
	assert.Equal(t, `3,,,,,1999-12-31`, lines[3])
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, sampleRows()))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "O'Brien, Pat", records[1][1])
	assert.Equal(t, `say "hi"`, records[2][1])
}

func TestXML(t *testing.T) {
	rows := dbmanager.NewMemoryRows(
		[]dbmanager.Column{{Name: "expr", Tag: dbmanager.TypeText}, {Name: "n", Tag: dbmanager.TypeInt32}},
		[][]any{{"a < b & c", int64(4)}, {nil, int64(5)}},
	)

	var buf bytes.Buffer
	require.NoError(t, XML(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, `<field name="expr">a &lt; b &amp; c</field>`)
	assert.Contains(t, out, `<field name="n">4</field>`)
	assert.Contains(t, out, `<field name="expr" null="true"></field>`)
	assert.True(t, strings.HasSuffix(out, "</rows>"))
}

func TestInsertRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Insert(&buf, sampleRows(), Options{
		Table:     "people",
		Dialect:   dbmanager.NewPostgresDriver(),
		BatchSize: 2,
	}))

	out := buf.String()
	assert.Contains(t, out, `INSERT INTO "people" ("id", "name", "price", "ratio", "active", "born") VALUES (1, 'O''Brien, Pat', '10.5', 0.5, TRUE, '2001-02-03'), (2, 'say "hi"', '-3', NULL, FALSE, NULL);`)

	stmts := dbmanager.Split(out)
	require.Len(t, stmts, 2)
	for _, s := range stmts {
		c, ok := dbmanager.Classify(s.Text)
		require.True(t, ok, s.Text)
		assert.Equal(t, "insert", c.Action)
		assert.Equal(t, "people", c.Name)
	}
}

func TestInsertMultilineParsesAsMySQL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Insert(&buf, sampleRows(), Options{
		Table:     "shop.people",
		Dialect:   dbmanager.NewMySQLDriver(),
		Multiline: true,
	}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "INSERT INTO `shop`.`people` (`id`, `name`, `price`, `ratio`, `active`, `born`) VALUES\n  (1, "))

	stmts := dbmanager.Split(out)
	require.Len(t, stmts, 1)

	parsed, err := sqlparser.Parse(stmts[0].Text)
	require.NoError(t, err)
	ins, ok := parsed.(*sqlparser.Insert)
	require.True(t, ok)
	assert.Equal(t, "people", ins.Table.Name.String())
	assert.Len(t, ins.Columns, 6)
	values, ok := ins.Rows.(sqlparser.Values)
	require.True(t, ok)
	assert.Len(t, values, 3)
}

func TestInsertRequiresTable(t *testing.T) {
	err := Insert(&bytes.Buffer{}, sampleRows(), Options{})
	assert.ErrorIs(t, err, ErrMissingTable)
}

func TestUpdate(t *testing.T) {
	rows := dbmanager.NewMemoryRows(
		[]dbmanager.Column{
			{Name: "id", Tag: dbmanager.TypeInt32},
			{Name: "region", Tag: dbmanager.TypeText},
			{Name: "total", Tag: dbmanager.TypeDecimal},
			{Name: "closed", Tag: dbmanager.TypeBool},
		},
		[][]any{
			{int64(1), "eu", "12.00", true},
			{int64(2), nil, "0", false},
		},
	)

	var buf bytes.Buffer
	require.NoError(t, Update(&buf, rows, Options{Table: "sales", Dialect: dbmanager.NewMySQLDriver(), KeyColumns: 2}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "UPDATE `sales` SET `total` = '12', `closed` = 1 WHERE `id` = 1 AND `region` = 'eu';", lines[0])
	assert.Equal(t, "UPDATE `sales` SET `total` = '0', `closed` = 0 WHERE `id` = 2 AND `region` IS NULL;", lines[1])

	for _, line := range lines {
		parsed, err := sqlparser.Parse(strings.TrimSuffix(line, ";"))
		require.NoError(t, err, line)
		upd, ok := parsed.(*sqlparser.Update)
		require.True(t, ok)
		assert.Len(t, upd.Exprs, 2)
		c, ok := dbmanager.Classify(line)
		require.True(t, ok)
		assert.Equal(t, dbmanager.Classification{Name: "sales", Action: "update"}, c)
	}
}

func TestUpdateMultiline(t *testing.T) {
	rows := dbmanager.NewMemoryRows(
		[]dbmanager.Column{{Name: "id", Tag: dbmanager.TypeInt32}, {Name: "a", Tag: dbmanager.TypeText}, {Name: "b", Tag: dbmanager.TypeText}},
		[][]any{{int64(9), "x", "y"}},
	)

	var buf bytes.Buffer
	require.NoError(t, Update(&buf, rows, Options{Table: "t", KeyColumns: 1, Multiline: true}))
	assert.Equal(t, "UPDATE \"t\"\nSET \"a\" = 'x',\n    \"b\" = 'y'\nWHERE \"id\" = 9;\n", buf.String())
}

func TestUpdateRejectsKeySplit(t *testing.T) {
	for _, keys := range []int{0, 6, 7} {
		err := Update(&bytes.Buffer{}, sampleRows(), Options{Table: "t", KeyColumns: keys})
		assert.ErrorIs(t, err, ErrInvalidKeySize, keys)
	}
}

func TestXLSX(t *testing.T) {
	rows := dbmanager.NewMemoryRows(
		[]dbmanager.Column{
			{Name: "region", Tag: dbmanager.TypeText},
			{Name: "city", Tag: dbmanager.TypeText},
			{Name: "sales", Tag: dbmanager.TypeInt64},
		},
		[][]any{
			{"eu", "paris", int64(10)},
			{"eu", "paris", int64(11)},
			{"eu", "rome", int64(12)},
			{"us", "rome", int64(13)},
		},
	)

	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, rows, Options{GroupColumns: 2, SheetName: "Sales"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Sales")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"region", "city", "sales"},
		{"eu", "paris", "10"},
		{"", "", "11"},
		{"", "rome", "12"},
		{"us", "rome", "13"},
	}, got)

	styleID, err := f.GetCellStyle("Sales", "A1")
	require.NoError(t, err)
	assert.NotZero(t, styleID)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.True(t, style.Font.Bold)
}

func TestRenderDispatch(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleRows(), Format("yaml"), Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	buf.Reset()
	require.NoError(t, Render(&buf, sampleRows(), FormatCSV, Options{}))
	assert.True(t, strings.HasPrefix(buf.String(), "id,name"))

	err = Render(&buf, sampleRows(), FormatInsert, Options{})
	assert.ErrorIs(t, err, ErrMissingTable)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("insert")
	require.NoError(t, err)
	assert.Equal(t, FormatInsert, f)
	assert.True(t, f.IsSQL())
	assert.Equal(t, "sql", f.Extension())
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
