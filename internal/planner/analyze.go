package planner

import (
	"regexp"
	"strings"
)

// The gateway does not own a full SQL analyzer; plan analysis here is the
// lightweight relation/column extraction the pushdown decision needs. The
// referenced sources' own engines parse the delegated text.
var (
	tableRefRe  = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][\w]*(?:\.[A-Za-z_][\w]*)?)`)
	selectColRe = regexp.MustCompile(`(?is)^\s*SELECT\s+(?:DISTINCT\s+)?(.*?)\s+FROM\s`)
)

// ExtractTableNames returns the deduplicated list of table names referenced
// in FROM clauses and JOINs, in order of first appearance. Derived tables
// (subqueries) contribute their inner references, not an outer name.
func ExtractTableNames(sql string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range tableRefRe.FindAllStringSubmatch(sql, -1) {
		name := strings.ToLower(m[1])
		if isReservedRef(name) {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ExtractColumns returns the named columns of a top-level select list, or
// ["*"] when the list cannot be resolved statically.
func ExtractColumns(sql string) []string {
	m := selectColRe.FindStringSubmatch(sql)
	if m == nil {
		return []string{"*"}
	}
	list := m[1]
	if strings.ContainsAny(list, "(*") {
		// Expressions, function calls, or a bare star: resolution needs the
		// source's schema, which the gateway defers to execution time.
		return []string{"*"}
	}

	var cols []string
	for _, part := range strings.Split(list, ",") {
		col := strings.TrimSpace(part)
		if col == "" {
			continue
		}
		// Strip aliases ("col AS alias" or "col alias") and qualifiers.
		fields := strings.Fields(col)
		col = fields[0]
		if idx := strings.LastIndex(col, "."); idx >= 0 {
			col = col[idx+1:]
		}
		cols = append(cols, strings.ToLower(col))
	}
	if len(cols) == 0 {
		return []string{"*"}
	}
	return cols
}

// isReservedRef filters keywords that the relation regex can pick up after
// FROM in non-relation positions (e.g. "EXTRACT(x FROM ts)").
func isReservedRef(name string) bool {
	switch name {
	case "select", "where", "group", "order", "limit", "values", "unnest":
		return true
	}
	return false
}
