package dbmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPagination(t *testing.T) {
	pg := NewPostgresDriver().DefaultPaginationTemplate()
	my := NewMySQLDriver().DefaultPaginationTemplate()

	tests := []struct {
		name     string
		template string
		stmt     string
		page     PageRequest
		usePage  bool
		want     string
	}{
		{
			name:     "postgres offset",
			template: pg,
			stmt:     "SELECT * FROM orders",
			page:     PageRequest{Page: 3, Size: 10},
			want:     "SELECT * FROM (SELECT * FROM orders) AS t OFFSET 20 LIMIT 10",
		},
		{
			name:     "mysql offset",
			template: my,
			stmt:     "select id from users;  ",
			page:     PageRequest{Page: 1, Size: 50},
			want:     "SELECT * FROM (select id from users) AS t LIMIT 0, 50",
		},
		{
			name:     "page number instead of offset",
			template: "EXEC paged '{0}', {1}, {2}",
			stmt:     "SELECT 1",
			page:     PageRequest{Page: 4, Size: 25},
			usePage:  true,
			want:     "EXEC paged 'SELECT 1', 4, 25",
		},
		{
			name:     "page below one",
			template: pg,
			stmt:     "SELECT 1",
			page:     PageRequest{Page: 0, Size: 5},
			want:     "SELECT * FROM (SELECT 1) AS t OFFSET 0 LIMIT 5",
		},
		{
			name:     "trailing line comment",
			template: pg,
			stmt:     "SELECT x FROM t -- every row",
			page:     PageRequest{Page: 1, Size: 5},
			want:     "SELECT * FROM (SELECT x FROM t) AS t OFFSET 0 LIMIT 5",
		},
		{
			name:     "comments after the terminator",
			template: my,
			stmt:     "SELECT x FROM t -- a\n; /* b */ -- c",
			page:     PageRequest{Page: 2, Size: 5},
			want:     "SELECT * FROM (SELECT x FROM t) AS t LIMIT 5, 5",
		},
		{
			name:     "comment marker inside a literal is kept",
			template: pg,
			stmt:     "SELECT '-- not a comment' AS c",
			page:     PageRequest{Page: 1, Size: 1},
			want:     "SELECT * FROM (SELECT '-- not a comment' AS c) AS t OFFSET 0 LIMIT 1",
		},
		{
			name:     "placeholders inside the statement are left alone",
			template: pg,
			stmt:     "SELECT '{1}' FROM t",
			page:     PageRequest{Page: 2, Size: 1},
			want:     "SELECT * FROM (SELECT '{1}' FROM t) AS t OFFSET 1 LIMIT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyPagination(tt.template, tt.stmt, tt.page, tt.usePage))
		})
	}
}

func TestStripTrailingComments(t *testing.T) {
	assert.Equal(t, "SELECT 1", StripTrailingComments("SELECT 1 -- one\n  /* two */ "))
	assert.Equal(t, "SELECT '/* x */'", StripTrailingComments("SELECT '/* x */'"))
	assert.Equal(t, "", StripTrailingComments("-- only"))
}

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, Size: 20}.Offset())
	assert.Equal(t, 40, PageRequest{Page: 3, Size: 20}.Offset())
	assert.Equal(t, 0, PageRequest{Page: -2, Size: 20}.Offset())
}
