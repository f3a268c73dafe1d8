package utils

import (
	"strings"
)

// SQLBuilder provides a fluent interface for building PostgreSQL DDL
// statements. It handles common patterns like identifier quoting, IF
// EXISTS/CASCADE clauses, and conditional clause building to reduce code
// duplication across the diff package.
//
// Example usage:
//
//	sql := NewSQLBuilder().
//		Create("SCHEMA").
//		Name("billing").
//		String()
//	// Output: CREATE SCHEMA "billing";
type SQLBuilder struct {
	parts []string
}

// NewSQLBuilder creates a new SQLBuilder instance.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{
		parts: make([]string, 0, 10),
	}
}

// Create adds a CREATE clause with the specified object type.
//
// Example:
//
//	builder.Create("TABLE")   // CREATE TABLE
//	builder.Create("INDEX")   // CREATE INDEX
func (b *SQLBuilder) Create(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "CREATE", objectType)
	return b
}

// CreateOrReplace adds a CREATE OR REPLACE clause with the specified object type.
//
// Example:
//
//	builder.CreateOrReplace("VIEW")  // CREATE OR REPLACE VIEW
func (b *SQLBuilder) CreateOrReplace(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "CREATE", "OR", "REPLACE", objectType)
	return b
}

// Drop adds a DROP clause with the specified object type.
func (b *SQLBuilder) Drop(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "DROP", objectType)
	return b
}

// Alter adds an ALTER clause with the specified object type.
func (b *SQLBuilder) Alter(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "ALTER", objectType)
	return b
}

// IfExists adds an IF EXISTS clause. This should be called after Drop.
func (b *SQLBuilder) IfExists() *SQLBuilder {
	b.parts = append(b.parts, "IF", "EXISTS")
	return b
}

// IfNotExists adds an IF NOT EXISTS clause. This should be called after Create.
func (b *SQLBuilder) IfNotExists() *SQLBuilder {
	b.parts = append(b.parts, "IF", "NOT", "EXISTS")
	return b
}

// Name adds a quoted object name.
//
// Example:
//
//	builder.Name("users")          // "users"
//	builder.Name("public.users")   // "public"."users"
func (b *SQLBuilder) Name(name string) *SQLBuilder {
	if name != "" {
		b.parts = append(b.parts, QuoteIdentifier(name))
	}
	return b
}

// QualifiedName adds a schema-qualified name. If schema is empty, only the
// name is added with quotes.
//
// Example:
//
//	builder.QualifiedName("", "events")        // "events"
//	builder.QualifiedName("public", "events")  // "public"."events"
func (b *SQLBuilder) QualifiedName(schema, name string) *SQLBuilder {
	qualified := QualifiedName(schema, name)
	if qualified != "" {
		b.parts = append(b.parts, qualified)
	}
	return b
}

// Cascade adds a CASCADE clause to a drop statement.
func (b *SQLBuilder) Cascade() *SQLBuilder {
	b.parts = append(b.parts, "CASCADE")
	return b
}

// OwnerTo adds an OWNER TO clause with a quoted role name.
//
// Example:
//
//	builder.OwnerTo("app_owner")  // OWNER TO "app_owner"
func (b *SQLBuilder) OwnerTo(role string) *SQLBuilder {
	if role != "" {
		b.parts = append(b.parts, "OWNER", "TO", QuoteIdentifier(role))
	}
	return b
}

// RenameTo adds a RENAME TO clause with a quoted name.
func (b *SQLBuilder) RenameTo(name string) *SQLBuilder {
	if name != "" {
		b.parts = append(b.parts, "RENAME", "TO", QuoteIdentifier(name))
	}
	return b
}

// On adds an ON clause with a quoted (possibly qualified) name. Used for
// index, trigger, and rule statements that target a table.
//
// Example:
//
//	builder.On("public.users")  // ON "public"."users"
func (b *SQLBuilder) On(name string) *SQLBuilder {
	if name != "" {
		b.parts = append(b.parts, "ON", QuoteIdentifier(name))
	}
	return b
}

// As adds an AS clause with raw text (view queries, function bodies).
func (b *SQLBuilder) As(expression string) *SQLBuilder {
	if expression != "" {
		b.parts = append(b.parts, "AS", expression)
	}
	return b
}

// Escaped adds an escaped SQL string literal in single quotes.
//
// Example:
//
//	builder.Raw("DEFAULT").Escaped("it's")  // DEFAULT 'it''s'
func (b *SQLBuilder) Escaped(value string) *SQLBuilder {
	if value != "" {
		b.parts = append(b.parts, QuoteLiteral(value))
	}
	return b
}

// Raw adds raw SQL text to the builder. Use sparingly for complex constructs
// that don't fit the fluent pattern.
func (b *SQLBuilder) Raw(sql string) *SQLBuilder {
	if sql != "" {
		b.parts = append(b.parts, sql)
	}
	return b
}

// String builds and returns the final SQL statement with a semicolon.
//
// Example:
//
//	sql := builder.Create("SCHEMA").Name("billing").String()
//	// Returns: "CREATE SCHEMA \"billing\";"
func (b *SQLBuilder) String() string {
	if len(b.parts) == 0 {
		return ""
	}
	return strings.Join(b.parts, " ") + ";"
}

// StringWithoutSemicolon builds and returns the final SQL statement without a
// semicolon. Useful for building parts of larger statements.
func (b *SQLBuilder) StringWithoutSemicolon() string {
	return strings.Join(b.parts, " ")
}
