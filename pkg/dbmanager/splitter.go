package dbmanager

import (
	"strings"
)

// Statement is one statement cut out of a raw multi-statement block.
type Statement struct {
	Text    string `json:"text"`
	Ordinal int    `json:"ordinal"` // 1-based position in the block
}

type lexMode int

const (
	modeNormal lexMode = iota
	modeSingleQuote
	modeDoubleQuote
	modeBacktick
	modeDollarQuote
	modeLineComment
	modeBlockComment
)

// Split cuts a raw block of SQL into trimmed statements.
//
// A ';' terminates a statement only outside quotes, comments, dollar-quoted
// bodies and BEGIN...END blocks. Unterminated quotes and comments run to the
// end of the input. A trailing statement without ';' is still emitted.
func Split(raw string) []Statement {
	s := &splitter{src: raw, statements: []Statement{}}
	s.run()
	return s.statements
}

type splitter struct {
	src         string
	buf         strings.Builder
	mode        lexMode
	depth       int
	dollarTag   string
	swallowCase bool
	statements  []Statement
}

func (s *splitter) run() {
	src := s.src
	n := len(src)

	for i := 0; i < n; {
		c := src[i]

		switch s.mode {
		case modeSingleQuote, modeDoubleQuote:
			if c == '\\' && i+1 < n {
				s.buf.WriteByte(c)
				s.buf.WriteByte(src[i+1])
				i += 2
				continue
			}
			s.buf.WriteByte(c)
			i++
			if (s.mode == modeSingleQuote && c == '\'') || (s.mode == modeDoubleQuote && c == '"') {
				s.mode = modeNormal
			}

		case modeBacktick:
			s.buf.WriteByte(c)
			i++
			if c == '`' {
				s.mode = modeNormal
			}

		case modeDollarQuote:
			if strings.HasPrefix(src[i:], s.dollarTag) {
				s.buf.WriteString(s.dollarTag)
				i += len(s.dollarTag)
				s.mode = modeNormal
				s.dollarTag = ""
				continue
			}
			s.buf.WriteByte(c)
			i++

		case modeLineComment:
			s.buf.WriteByte(c)
			i++
			if c == '\n' {
				s.mode = modeNormal
			}

		case modeBlockComment:
			if c == '*' && i+1 < n && src[i+1] == '/' {
				s.buf.WriteString("*/")
				i += 2
				s.mode = modeNormal
				continue
			}
			s.buf.WriteByte(c)
			i++

		default:
			i = s.normal(i)
		}
	}

	s.flush()
}

// normal consumes one token in normal mode and returns the next index.
func (s *splitter) normal(i int) int {
	src := s.src
	n := len(src)
	c := src[i]

	switch {
	case c == '\'':
		s.mode = modeSingleQuote
	case c == '"':
		s.mode = modeDoubleQuote
	case c == '`':
		s.mode = modeBacktick
	case c == '-' && i+1 < n && src[i+1] == '-':
		s.mode = modeLineComment
		s.buf.WriteString("--")
		return i + 2
	case c == '/' && i+1 < n && src[i+1] == '*':
		s.mode = modeBlockComment
		s.buf.WriteString("/*")
		return i + 2
	case c == '$':
		if tag := dollarTagAt(src, i); tag != "" {
			s.mode = modeDollarQuote
			s.dollarTag = tag
			s.buf.WriteString(tag)
			return i + len(tag)
		}
	case c == ';' && s.depth == 0:
		s.flush()
		return i + 1
	case isWordStart(c) && (i == 0 || !isIdentChar(src[i-1])):
		j := i
		for j < n && isIdentChar(src[j]) {
			if src[j] == '$' && dollarOpenerAt(src, j) != "" {
				break
			}
			j++
		}
		s.keyword(src[i:j], j)
		s.buf.WriteString(src[i:j])
		return j
	}

	s.buf.WriteByte(c)
	return i + 1
}

// keyword tracks BEGIN...END nesting. next is the index right after the word.
func (s *splitter) keyword(word string, next int) {
	switch strings.ToUpper(word) {
	case "BEGIN":
		if isTransactionBegin(s.src, next) {
			return
		}
		s.depth++
	case "CASE":
		if s.swallowCase {
			s.swallowCase = false
			return
		}
		if s.depth > 0 {
			s.depth++
		}
	case "END":
		if s.depth == 0 {
			return
		}
		switch strings.ToUpper(wordAt(s.src, next)) {
		case "IF", "LOOP", "WHILE", "REPEAT", "FOR":
			return
		case "CASE":
			s.swallowCase = true
		}
		s.depth--
	}
}

func (s *splitter) flush() {
	text := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	if text == "" {
		return
	}
	s.statements = append(s.statements, Statement{
		Text:    text,
		Ordinal: len(s.statements) + 1,
	})
}

// isTransactionBegin reports whether the BEGIN ending right before i starts a
// transaction instead of a routine body.
func isTransactionBegin(src string, i int) bool {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	if i >= len(src) || src[i] == ';' {
		return true
	}
	switch strings.ToUpper(wordAt(src, i)) {
	case "TRANSACTION", "WORK", "ISOLATION", "READ", "DEFERRED", "IMMEDIATE", "EXCLUSIVE":
		return true
	}
	return false
}

// wordAt returns the identifier starting at the first non-space byte from i.
func wordAt(src string, i int) string {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	j := i
	for j < len(src) && isIdentChar(src[j]) {
		j++
	}
	return src[i:j]
}

// dollarTagAt returns the $tag$ opener starting at i, or "".
func dollarTagAt(src string, i int) string {
	j := i + 1
	if j < len(src) && isWordStart(src[j]) {
		for j < len(src) && isIdentChar(src[j]) && src[j] != '$' {
			j++
		}
	}
	if j < len(src) && src[j] == '$' {
		return src[i : j+1]
	}
	return ""
}

// dollarOpenerAt is dollarTagAt for positions that may follow an identifier
// character. There the tag only opens a body when it is closed later on, so
// identifiers such as a$b$c stay whole.
func dollarOpenerAt(src string, i int) string {
	tag := dollarTagAt(src, i)
	if tag == "" || i == 0 || !isIdentChar(src[i-1]) {
		return tag
	}
	if strings.Contains(src[i+len(tag):], tag) {
		return tag
	}
	return ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9') || c == '$' || c >= 0x80
}

// IsOnlyComment reports whether text holds nothing but comments and whitespace.
func IsOnlyComment(text string) bool {
	return strings.TrimSpace(StripLeadingComments(text)) == ""
}

// StripLeadingComments drops whitespace and comments ahead of the first token.
func StripLeadingComments(text string) string {
	i := 0
	n := len(text)
	for i < n {
		switch {
		case isSpace(text[i]):
			i++
		case text[i] == '-' && i+1 < n && text[i+1] == '-':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				return ""
			}
			i += end + 1
		case text[i] == '/' && i+1 < n && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return ""
			}
			i += end + 4
		default:
			return text[i:]
		}
	}
	return ""
}

type byteClass uint8

const (
	classCode byteClass = iota
	classLiteral
	classComment
)

// byteClasses labels every byte of text as code, quoted literal (including
// quoted identifiers and dollar-quoted bodies) or comment.
func byteClasses(text string) []byteClass {
	n := len(text)
	classes := make([]byteClass, n)
	mark := func(from, count int, class byteClass) {
		for k := from; k < from+count && k < n; k++ {
			classes[k] = class
		}
	}

	mode := modeNormal
	tag := ""
	for i := 0; i < n; {
		c := text[i]
		switch mode {
		case modeSingleQuote, modeDoubleQuote:
			if c == '\\' && i+1 < n {
				mark(i, 2, classLiteral)
				i += 2
				continue
			}
			classes[i] = classLiteral
			if (mode == modeSingleQuote && c == '\'') || (mode == modeDoubleQuote && c == '"') {
				mode = modeNormal
			}
			i++

		case modeBacktick:
			classes[i] = classLiteral
			if c == '`' {
				mode = modeNormal
			}
			i++

		case modeDollarQuote:
			if strings.HasPrefix(text[i:], tag) {
				mark(i, len(tag), classLiteral)
				i += len(tag)
				mode = modeNormal
				continue
			}
			classes[i] = classLiteral
			i++

		case modeLineComment:
			classes[i] = classComment
			if c == '\n' {
				mode = modeNormal
			}
			i++

		case modeBlockComment:
			if c == '*' && i+1 < n && text[i+1] == '/' {
				mark(i, 2, classComment)
				i += 2
				mode = modeNormal
				continue
			}
			classes[i] = classComment
			i++

		default:
			switch {
			case c == '\'':
				mode = modeSingleQuote
			case c == '"':
				mode = modeDoubleQuote
			case c == '`':
				mode = modeBacktick
			case c == '-' && i+1 < n && text[i+1] == '-':
				mark(i, 2, classComment)
				mode = modeLineComment
				i += 2
				continue
			case c == '/' && i+1 < n && text[i+1] == '*':
				mark(i, 2, classComment)
				mode = modeBlockComment
				i += 2
				continue
			case c == '$':
				if t := dollarOpenerAt(text, i); t != "" {
					mark(i, len(t), classLiteral)
					tag = t
					mode = modeDollarQuote
					i += len(t)
					continue
				}
			}
			if mode != modeNormal {
				classes[i] = classLiteral
			}
			i++
		}
	}
	return classes
}

// MaskLiterals blanks comments and the contents of quoted strings,
// identifiers and dollar-quoted bodies so keyword matching only sees code.
// Byte offsets are preserved and newlines inside comments are kept.
func MaskLiterals(text string) string {
	classes := byteClasses(text)
	masked := []byte(text)
	for i, class := range classes {
		if class != classCode && masked[i] != '\n' {
			masked[i] = ' '
		}
	}
	return string(masked)
}

// StripTrailingComments drops comments and whitespace after the last token.
func StripTrailingComments(text string) string {
	classes := byteClasses(text)
	for i := len(text) - 1; i >= 0; i-- {
		if classes[i] != classComment && !isSpace(text[i]) {
			return text[:i+1]
		}
	}
	return ""
}

// Verb returns the upper-cased leading keyword of a statement.
func Verb(text string) string {
	body := strings.TrimLeft(StripLeadingComments(text), "( \t\r\n")
	return strings.ToUpper(wordAt(body, 0))
}
