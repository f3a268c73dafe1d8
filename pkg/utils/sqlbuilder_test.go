package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() string
		expected string
	}{
		{
			name: "create schema",
			build: func() string {
				return NewSQLBuilder().Create("SCHEMA").Name("billing").String()
			},
			expected: `CREATE SCHEMA "billing";`,
		},
		{
			name: "drop table cascade",
			build: func() string {
				return NewSQLBuilder().
					Drop("TABLE").
					IfExists().
					QualifiedName("public", "events").
					Cascade().
					String()
			},
			expected: `DROP TABLE IF EXISTS "public"."events" CASCADE;`,
		},
		{
			name: "alter table owner",
			build: func() string {
				return NewSQLBuilder().
					Alter("TABLE").
					QualifiedName("public", "events").
					OwnerTo("app_owner").
					String()
			},
			expected: `ALTER TABLE "public"."events" OWNER TO "app_owner";`,
		},
		{
			name: "create or replace view",
			build: func() string {
				return NewSQLBuilder().
					CreateOrReplace("VIEW").
					QualifiedName("public", "v_active").
					As("SELECT 1").
					String()
			},
			expected: `CREATE OR REPLACE VIEW "public"."v_active" AS SELECT 1;`,
		},
		{
			name: "drop trigger on table",
			build: func() string {
				return NewSQLBuilder().
					Drop("TRIGGER").
					Name("trg_audit").
					On("public.users").
					String()
			},
			expected: `DROP TRIGGER "trg_audit" ON "public"."users";`,
		},
		{
			name: "escaped literal",
			build: func() string {
				return NewSQLBuilder().Raw("COMMENT ON TABLE t IS").Escaped("user's data").String()
			},
			expected: `COMMENT ON TABLE t IS 'user''s data';`,
		},
		{
			name: "empty builder",
			build: func() string {
				return NewSQLBuilder().String()
			},
			expected: "",
		},
		{
			name: "without semicolon",
			build: func() string {
				return NewSQLBuilder().Alter("SEQUENCE").Name("seq").StringWithoutSemicolon()
			},
			expected: `ALTER SEQUENCE "seq"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.build())
		})
	}
}
