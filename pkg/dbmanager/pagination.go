package dbmanager

import (
	"strconv"
	"strings"
)

// PageRequest selects one page of a read statement. Page is 1-based.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Offset returns the row offset of the first row on the page.
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

// ApplyPagination substitutes the inner statement, the offset (or the page
// number when usePage is set) and the limit into template.
// {0} is the statement, {1} the offset or page and {2} the limit.
func ApplyPagination(template, statement string, page PageRequest, usePage bool) string {
	inner := strings.TrimSpace(statement)
	for {
		trimmed := strings.TrimRight(StripTrailingComments(inner), "; \t\r\n")
		if trimmed == inner {
			break
		}
		inner = trimmed
	}

	second := page.Offset()
	if usePage {
		second = page.Page
		if second < 1 {
			second = 1
		}
	}

	return strings.NewReplacer(
		"{0}", inner,
		"{1}", strconv.Itoa(second),
		"{2}", strconv.Itoa(page.Size),
	).Replace(template)
}
