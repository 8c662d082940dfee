// Package sqlutil provides identifier quoting for SQL-backed document sources.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a MySQL identifier (table name, column name) with backticks.
// Embedded backticks are doubled.
// Example: "my_table" -> "`my_table`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// validIdentifierRegex restricts configured names to alphanumerics and underscores.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is a valid MySQL identifier.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe quotes a MySQL identifier after validating it.
// Collection and column names come from user config, so stores use this form.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// QuoteQualifiedSafe validates and quotes a dotted name such as "db.table".
// Each part is checked on its own, so "db.table" becomes "`db`.`table`".
func QuoteQualifiedSafe(name string) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", &InvalidIdentifierError{Name: name}
	}

	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		q, err := QuoteIdentifierSafe(p)
		if err != nil {
			return "", &InvalidIdentifierError{Name: name}
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, "."), nil
}

// SplitQualified returns the schema and table of a dotted name.
// schema is empty when name carries no qualifier.
func SplitQualified(name string) (schema, table string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
