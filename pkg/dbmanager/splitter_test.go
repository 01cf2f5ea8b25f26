package dbmanager

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(stmts []Statement) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.Text
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "two simple statements",
			in:   "SELECT 1; SELECT 2;",
			want: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name: "trailing statement without terminator",
			in:   "SELECT 1;\n  SELECT 2  ",
			want: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name: "dollar quoted function body",
			in:   "CREATE FUNCTION f() RETURNS int AS $$ BEGIN RETURN 1; END; $$",
			want: []string{"CREATE FUNCTION f() RETURNS int AS $$ BEGIN RETURN 1; END; $$"},
		},
		{
			name: "dollar quote glued to the preceding word",
			in:   "CREATE FUNCTION f() RETURNS int AS$$ BEGIN RETURN 1; END; $$",
			want: []string{"CREATE FUNCTION f() RETURNS int AS$$ BEGIN RETURN 1; END; $$"},
		},
		{
			name: "dollar inside an identifier",
			in:   "SELECT a$b FROM t; SELECT 2",
			want: []string{"SELECT a$b FROM t", "SELECT 2"},
		},
		{
			name: "tagged dollar quote",
			in:   "SELECT $tag$a;b$tag$; SELECT 2",
			want: []string{"SELECT $tag$a;b$tag$", "SELECT 2"},
		},
		{
			name: "semicolons inside quotes",
			in:   `SELECT ';'; SELECT "a;b"; SELECT ` + "`c;d`",
			want: []string{"SELECT ';'", `SELECT "a;b"`, "SELECT `c;d`"},
		},
		{
			name: "backslash escaped quote",
			in:   `SELECT 'it\'s; fine'; SELECT 2`,
			want: []string{`SELECT 'it\'s; fine'`, "SELECT 2"},
		},
		{
			name: "doubled quote",
			in:   "SELECT 'it''s; fine'; SELECT 2",
			want: []string{"SELECT 'it''s; fine'", "SELECT 2"},
		},
		{
			name: "comments keep their semicolons",
			in:   "-- c; d\nSELECT 1; /* x; y */ SELECT 2",
			want: []string{"-- c; d\nSELECT 1", "/* x; y */ SELECT 2"},
		},
		{
			name: "comment only statement is retained",
			in:   "SELECT 1; -- done",
			want: []string{"SELECT 1", "-- done"},
		},
		{
			name: "procedure with nested IF",
			in:   "CREATE PROCEDURE p() BEGIN SELECT 1; IF x THEN SELECT 2; END IF; END; SELECT 3",
			want: []string{
				"CREATE PROCEDURE p() BEGIN SELECT 1; IF x THEN SELECT 2; END IF; END",
				"SELECT 3",
			},
		},
		{
			name: "nested blocks",
			in:   "CREATE PROCEDURE p() BEGIN BEGIN SELECT 1; END; SELECT 2; END; SELECT 3",
			want: []string{
				"CREATE PROCEDURE p() BEGIN BEGIN SELECT 1; END; SELECT 2; END",
				"SELECT 3",
			},
		},
		{
			name: "case expression inside a block",
			in:   "CREATE TRIGGER tr BEFORE INSERT ON t FOR EACH ROW BEGIN SET NEW.x = CASE WHEN NEW.y THEN 1 ELSE 0 END; END; SELECT 1",
			want: []string{
				"CREATE TRIGGER tr BEFORE INSERT ON t FOR EACH ROW BEGIN SET NEW.x = CASE WHEN NEW.y THEN 1 ELSE 0 END; END",
				"SELECT 1",
			},
		},
		{
			name: "case expression outside a block",
			in:   "SELECT CASE WHEN a THEN 1 END FROM t; SELECT 2",
			want: []string{"SELECT CASE WHEN a THEN 1 END FROM t", "SELECT 2"},
		},
		{
			name: "transaction begin does not open a block",
			in:   "BEGIN; INSERT INTO t VALUES (1); COMMIT;",
			want: []string{"BEGIN", "INSERT INTO t VALUES (1)", "COMMIT"},
		},
		{
			name: "begin transaction",
			in:   "begin transaction; delete from t where id = 1; end;",
			want: []string{"begin transaction", "delete from t where id = 1", "end"},
		},
		{
			name: "keyword prefix inside identifier",
			in:   "SELECT begin_date, legend FROM t; SELECT 2",
			want: []string{"SELECT begin_date, legend FROM t", "SELECT 2"},
		},
		{
			name: "unterminated quote runs to the end",
			in:   "SELECT 'abc; SELECT 2",
			want: []string{"SELECT 'abc; SELECT 2"},
		},
		{
			name: "unterminated block comment runs to the end",
			in:   "SELECT 1 /* abc; SELECT 2",
			want: []string{"SELECT 1 /* abc; SELECT 2"},
		},
		{
			name: "empty statements are dropped",
			in:   ";;  ; SELECT 1;;",
			want: []string{"SELECT 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, texts(Split(tt.in)))
		})
	}
}

func TestSplitEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t;"} {
		got := Split(in)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestSplitOrdinalsFollowInputOrder(t *testing.T) {
	in := "INSERT INTO a VALUES (1);\n-- note\nUPDATE a SET x = 2 WHERE id = 1; SELECT 'x' FROM a; DELETE FROM a WHERE id = 3"
	stmts := Split(in)
	require.Len(t, stmts, 4)

	last := -1
	for i, s := range stmts {
		assert.Equal(t, i+1, s.Ordinal)
		pos := strings.Index(in, s.Text)
		require.GreaterOrEqual(t, pos, 0, "statement %q must be a substring of the input", s.Text)
		assert.Greater(t, pos, last)
		last = pos
	}

	var normalized []string
	for _, s := range stmts {
		normalized = append(normalized, strings.Join(strings.Fields(s.Text), " "))
	}
	assert.Equal(t,
		strings.Join(strings.Fields(strings.ReplaceAll(in, ";", " ; ")), " "),
		strings.Join(strings.Fields(strings.Join(normalized, " ; ")), " "),
	)
}

func TestIsOnlyComment(t *testing.T) {
	assert.True(t, IsOnlyComment("-- hello"))
	assert.True(t, IsOnlyComment("/* a */ -- b\n  "))
	assert.True(t, IsOnlyComment("/* unterminated"))
	assert.False(t, IsOnlyComment("-- hello\nSELECT 1"))
	assert.False(t, IsOnlyComment("/* a */ SELECT 1"))
}

func TestVerb(t *testing.T) {
	assert.Equal(t, "SELECT", Verb("  -- c\n(select 1)"))
	assert.Equal(t, "WITH", Verb("with x as (select 1) select * from x"))
	assert.Equal(t, "INSERT", Verb("/* a */ insert into t values (1)"))
	assert.Equal(t, "", Verb("-- only"))
}
