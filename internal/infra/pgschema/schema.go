// Package pgschema applies the app's table definitions over a direct
// Postgres connection.
package pgschema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Statements returns the embedded DDL split into executable statements.
func Statements() []string {
	return Split(schemaSQL)
}

// Split breaks a script on top-level semicolons. Semicolons inside quotes,
// comments or dollar-quoted bodies do not terminate a statement.
func Split(script string) []string {
	var (
		out    []string
		cur    strings.Builder
		dollar string
		quote  byte
	)

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]

		switch {
		case dollar != "":
			if strings.HasPrefix(script[i:], dollar) {
				cur.WriteString(dollar)
				i += len(dollar) - 1
				dollar = ""
				continue
			}
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '-' && strings.HasPrefix(script[i:], "--"):
			end := strings.IndexByte(script[i:], '\n')
			if end < 0 {
				i = len(script)
			} else {
				i += end
			}
			continue
		case c == '\'' || c == '"':
			quote = c
		case c == '$':
			if tag := dollarTag(script[i:]); tag != "" {
				dollar = tag
				cur.WriteString(tag)
				i += len(tag) - 1
				continue
			}
		case c == ';':
			flush()
			continue
		}

		cur.WriteByte(c)
	}
	flush()
	return out
}

// dollarTag returns "$$" or "$name$" when s starts with one.
func dollarTag(s string) string {
	end := strings.IndexByte(s[1:], '$')
	if end < 0 {
		return ""
	}
	tag := s[:end+2]
	for _, r := range tag[1 : len(tag)-1] {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return tag
}

// RelaxNotNull builds ALTER statements dropping NOT NULL from columns of table.
func RelaxNotNull(table string, columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		out = append(out, fmt.Sprintf("ALTER TABLE public.%s ALTER COLUMN %s DROP NOT NULL",
			pq.QuoteIdentifier(table), pq.QuoteIdentifier(col)))
	}
	return out
}
