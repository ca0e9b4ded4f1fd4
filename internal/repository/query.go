package repository

import "strings"

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

// pageBounds converts 1-based page/limit into LIMIT and OFFSET.
func pageBounds(page, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input safe inside a LIKE pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
