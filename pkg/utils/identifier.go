package utils

import "strings"

// QuoteIdentifier wraps an identifier in double quotes, handling qualified
// names. Each dot-separated part is quoted individually, and embedded quotes
// are doubled per the SQL standard.
//
// Examples:
//   - "users" -> "\"users\""
//   - "public.users" -> "\"public\".\"users\""
//   - "\"users\"" -> "\"users\"" (already quoted, not double-quoted)
//   - "" -> ""
//
// This function is used throughout the codebase for consistent identifier
// formatting in generated DDL statements.
func QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}

	// A single identifier already wrapped in quotes is returned as-is, even
	// if it contains dots.
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		inner := name[1 : len(name)-1]
		if !strings.Contains(inner, `"`) {
			return name
		}
	}

	parts := strings.Split(name, ".")
	for i, part := range parts {
		if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
			continue
		}
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// QualifiedName formats a schema-qualified name with proper quoting.
// If schema is empty, only the name is quoted.
//
// Examples:
//   - ("public", "users") -> "\"public\".\"users\""
//   - ("", "users") -> "\"users\""
func QualifiedName(schema, name string) string {
	if schema != "" {
		return QuoteIdentifier(schema) + "." + QuoteIdentifier(name)
	}
	return QuoteIdentifier(name)
}

// QuoteLiteral wraps a string value in single quotes with embedded quotes
// doubled, producing a valid SQL string literal.
//
// Examples:
//   - "hello" -> "'hello'"
//   - "it's" -> "'it''s'"
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// IsQuoted checks if a string is a single identifier wrapped in double quotes.
//
// Examples:
//   - "\"users\"" -> true
//   - "users" -> false
//   - "\"public\".\"users\"" -> false (qualified name, not a single identifier)
func IsQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && !strings.Contains(s[1:len(s)-1], `"`)
}

// StripQuotes removes double quotes from an identifier if present.
//
// Examples:
//   - "\"users\"" -> "users"
//   - "users" -> "users"
//   - "\"public\".\"users\"" -> "public.users"
func StripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
