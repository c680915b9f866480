// Package classify turns raw statement text into one of the closed set of
// command variants the session runner dispatches on.
package classify

import (
	"regexp"
	"strings"

	"fedsql/internal/domain"
)

// Statement patterns, tried in order. The first match wins; anything left
// unmatched is an unsupported command.
var (
	createEventRe = regexp.MustCompile(`(?is)^\s*CREATE\s+EVENT\s+(?:IF\s+NOT\s+EXISTS\s+)?([\w.]+)\s+ON\s+SCHEDULE\s+AT\s+'([^']+)'\s*(ENABLE|DISABLE)?\s*(?:COMMENT\s+'([^']*)'\s*)?DO\s+CALL\s+([\w.]+)\s*;?\s*$`)

	alterEventRe = regexp.MustCompile(`(?is)^\s*ALTER\s+EVENT\s+([\w.]+)\s+(ENABLE|DISABLE)\s*;?\s*$`)

	tempViewRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(OR\s+REPLACE\s+)?(CACHE\s+)?TEMP(?:ORARY)?\s+VIEW\s+([\w.]+)\s+AS\s+(.+?)\s*;?\s*$`)

	insertRe = regexp.MustCompile(`(?is)^\s*INSERT\s+(INTO|OVERWRITE)\s+(?:TABLE\s+)?([\w.]+)\s+(.+?)\s*;?\s*$`)
)

// Prefixes of self-executing statements that return rows directly.
var runnablePrefixes = []string{"SHOW", "DESC", "DESCRIBE", "EXPLAIN", "SET", "USE"}

// Prefixes of read statements handled by the pushdown executor.
var queryPrefixes = []string{"SELECT", "WITH", "VALUES", "TABLE", "FROM"}

// Classify resolves one statement to exactly one command variant. It has no
// side effects; an unmatched statement fails with UnsupportedCommandError.
func Classify(sql string) (domain.Command, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return nil, &domain.UnsupportedCommandError{SQL: sql}
	}

	if m := createEventRe.FindStringSubmatch(trimmed); m != nil {
		return domain.CreateTimedEvent{
			Name:        m[1],
			Schedule:    m[2],
			Enable:      !strings.EqualFold(m[3], "DISABLE"),
			Description: m[4],
			Procedure:   m[5],
			SQL:         trimmed,
		}, nil
	}

	if m := alterEventRe.FindStringSubmatch(trimmed); m != nil {
		return domain.AlterTimedEventEnable{
			Name:   m[1],
			Enable: strings.EqualFold(m[2], "ENABLE"),
			SQL:    trimmed,
		}, nil
	}

	if m := tempViewRe.FindStringSubmatch(trimmed); m != nil {
		return domain.CreateTempView{
			Replace: m[1] != "",
			Cache:   m[2] != "",
			Name:    m[3],
			Query:   m[4],
			SQL:     trimmed,
		}, nil
	}

	if m := insertRe.FindStringSubmatch(trimmed); m != nil {
		return domain.InsertInto{
			Overwrite: strings.EqualFold(m[1], "OVERWRITE"),
			Table:     m[2],
			Query:     m[3],
			SQL:       trimmed,
		}, nil
	}

	if hasAnyPrefix(trimmed, runnablePrefixes) {
		return domain.RunnableCommand{SQL: trimmed}, nil
	}

	if hasAnyPrefix(trimmed, queryPrefixes) {
		return domain.DataQuery{SQL: trimmed}, nil
	}

	return nil, &domain.UnsupportedCommandError{SQL: trimmed}
}

// hasAnyPrefix reports whether the statement starts with one of the given
// keywords followed by a word boundary.
func hasAnyPrefix(sql string, prefixes []string) bool {
	upper := strings.ToUpper(sql)
	for _, p := range prefixes {
		if upper == p {
			return true
		}
		if strings.HasPrefix(upper, p) {
			rest := upper[len(p):]
			if rest != "" && !isWordChar(rest[0]) {
				return true
			}
		}
	}
	return false
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
