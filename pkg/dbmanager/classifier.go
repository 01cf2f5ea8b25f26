package dbmanager

import (
	"regexp"
	"slices"
	"strings"
)

// Statement actions reported by Classify
const (
	ActionSelect  = "select"
	ActionInsert  = "insert"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionCreate  = "create"
	ActionReplace = "replace"
	ActionAlter   = "alter"
	ActionDrop    = "drop"
)

// Classification is the target object and verb of a statement.
type Classification struct {
	Name   string `json:"name"`
	Action string `json:"action"`
}

type pattern struct {
	verbs  []string
	re     *regexp.Regexp
	action func(m []string) string
}

const objectName = `([^\s;,()]+)`

var (
	whereClause = regexp.MustCompile(`(?i)\bwhere\b`)

	patterns = []pattern{
		{
			verbs:  []string{"SELECT", "WITH"},
			re:     regexp.MustCompile(`(?is)\bselect\b.*?\bfrom\s+` + objectName),
			action: func([]string) string { return ActionSelect },
		},
		{
			verbs:  []string{"INSERT"},
			re:     regexp.MustCompile(`(?i)\binsert\s+into\s+` + objectName),
			action: func([]string) string { return ActionInsert },
		},
		{
			verbs:  []string{"UPDATE"},
			re:     regexp.MustCompile(`(?i)\bupdate\s+` + objectName + `\s+set\b`),
			action: func([]string) string { return ActionUpdate },
		},
		{
			verbs:  []string{"DELETE"},
			re:     regexp.MustCompile(`(?i)\bdelete\s+from\s+` + objectName),
			action: func([]string) string { return ActionDelete },
		},
		{
			verbs: []string{"CREATE", "REPLACE", "ALTER", "DROP"},
			re: regexp.MustCompile(`(?i)\b(create|replace|alter|drop)\s+` +
				`(?:or\s+replace\s+)?` +
				`(?:(?:temporary|temp|unique)\s+)?` +
				`(?:(?:table|view|index|function|procedure|trigger|database|schema|sequence)\s+)?` +
				`(?:if\s+(?:not\s+)?exists\s+)?` +
				`(?:into\s+)?` + objectName),
			action: func(m []string) string { return strings.ToLower(m[1]) },
		},
	}
)

// Classify extracts the target object and action of a statement.
//
// The alternative belonging to the statement's leading verb is tried first so
// that INSERT ... SELECT ... FROM reports the insert target. Otherwise the
// alternatives are tried in order and the first match wins. Quoting around the
// name is dropped and both fields are lowercased.
func Classify(text string) (Classification, bool) {
	verb := Verb(text)
	for _, p := range patterns {
		if !slices.Contains(p.verbs, verb) {
			continue
		}
		if c, ok := p.match(text); ok {
			return c, true
		}
	}
	for _, p := range patterns {
		if c, ok := p.match(text); ok {
			return c, true
		}
	}
	return Classification{}, false
}

// HasWhere reports whether the statement carries a WHERE keyword outside
// comments and quoted text.
func HasWhere(text string) bool {
	return whereClause.MatchString(MaskLiterals(text))
}

func (p pattern) match(text string) (Classification, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return Classification{}, false
	}
	name := normalizeName(m[len(m)-1])
	if name == "" {
		return Classification{}, false
	}
	return Classification{Name: name, Action: p.action(m)}, true
}

var nameQuotes = strings.NewReplacer("\"", "", "`", "", "[", "", "]", "")

func normalizeName(raw string) string {
	return strings.ToLower(nameQuotes.Replace(raw))
}
