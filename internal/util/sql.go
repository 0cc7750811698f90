package util

import "strings"

// Ident заключает идентификатор MySQL в обратные кавычки, удваивая внутренние.
func Ident(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// IdentList - "`a`,`b`,`c`" для списка колонок.
func IdentList(names ...string) string {
	quoted := make([]string, 0, len(names))

	for _, n := range names {
		quoted = append(quoted, Ident(n))
	}

	return strings.Join(quoted, ",")
}

// Placeholders - "?,?,?" на n значений.
func Placeholders(n int) string {
	if n < 1 {
		return ""
	}

	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
