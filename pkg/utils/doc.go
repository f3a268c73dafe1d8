// Package utils provides common utility functions used throughout the pgdrift
// codebase.
//
// # Identifier Utilities (identifier.go)
//
// The identifier utilities provide consistent handling of PostgreSQL SQL
// identifiers, including proper double-quote quoting for names that may
// contain special characters or reserved keywords:
//
//	name := utils.QuoteIdentifier("users")
//	// Result: "users" (with double quotes)
//
//	qualified := utils.QualifiedName("public", "events")
//	// Result: "public"."events"
//
// The functions are idempotent: quoting an already quoted identifier does not
// double-quote it.
//
// # SQL Builder (sqlbuilder.go)
//
// SQLBuilder offers a fluent interface for assembling DDL statements without
// string concatenation scattered across call sites:
//
//	sql := utils.NewSQLBuilder().
//		Drop("TABLE").
//		IfExists().
//		QualifiedName("public", "events").
//		Cascade().
//		String()
//	// Result: DROP TABLE IF EXISTS "public"."events" CASCADE;
package utils
