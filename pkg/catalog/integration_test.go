package catalog_test

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgdrift/pgdrift/pkg/apply"
	"github.com/pgdrift/pgdrift/pkg/catalog"
	"github.com/pgdrift/pgdrift/pkg/diff"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipIfNoDocker skips the test if Docker is not available
func skipIfNoDocker(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}
	if err := exec.Command("docker", "ps").Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

const fixtureDDL = `
CREATE SCHEMA app;
CREATE TYPE app.status AS ENUM ('active', 'disabled');

CREATE TABLE app.users (
    id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    email text NOT NULL,
    status app.status NOT NULL DEFAULT 'active',
    CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE app.orders (
    id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    user_id bigint NOT NULL REFERENCES app.users (id) ON DELETE CASCADE,
    total numeric(10,2) NOT NULL CHECK (total >= 0)
);

CREATE INDEX orders_user_idx ON app.orders (user_id);

CREATE VIEW app.v_active_users AS
    SELECT id, email FROM app.users WHERE status = 'active';

CREATE FUNCTION app.user_count() RETURNS bigint
    LANGUAGE sql STABLE
    AS 'SELECT count(*) FROM app.users';
`

func TestImportLiveCatalog(t *testing.T) {
	skipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("appdb"),
		postgres.WithUsername("app"),
		postgres.WithPassword("secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	_, err = conn.Exec(ctx, fixtureDDL)
	require.NoError(t, err)

	imp := catalog.New(conn, catalog.Options{})
	g, err := imp.Import(ctx)
	require.NoError(t, err)

	require.Equal(t, "appdb", g.Database)
	require.NotEmpty(t, g.ServerVersion)

	users := g.Lookup(model.KindTable, "app.users")
	require.NotNil(t, users)
	require.Len(t, g.ChildrenOfKind(users.ID, model.KindColumn), 3)

	email := g.Lookup(model.KindColumn, "app.users.email")
	require.NotNil(t, email)
	require.True(t, email.Def.(*model.ColumnDef).NotNull)

	id := g.Lookup(model.KindColumn, "app.users.id")
	require.NotNil(t, id)
	require.Equal(t, "ALWAYS", id.Def.(*model.ColumnDef).Identity)

	status := g.Lookup(model.KindType, "app.status")
	require.NotNil(t, status)
	require.Equal(t, []string{"active", "disabled"}, status.Def.(*model.TypeDef).EnumValues)

	fk := g.Lookup(model.KindConstraint, "app.orders.orders_user_id_fkey")
	require.NotNil(t, fk)
	fkDef := fk.Def.(*model.ConstraintDef)
	require.Equal(t, "FOREIGN KEY", fkDef.Type)
	require.Equal(t, "app.users", fkDef.RefTable)
	require.Equal(t, "CASCADE", fkDef.OnDelete)

	idx := g.Lookup(model.KindIndex, "app.orders.orders_user_idx")
	require.NotNil(t, idx)
	require.Equal(t, "btree", idx.Def.(*model.IndexDef).Method)

	view := g.Lookup(model.KindView, "app.v_active_users")
	require.NotNil(t, view)
	require.Contains(t, view.DependsOn, users.ID)

	fn := g.Lookup(model.KindFunction, "app.user_count()")
	require.NotNil(t, fn)
	require.Equal(t, "STABLE", fn.Def.(*model.FunctionDef).Volatility)
}

const roundTripBaseDDL = `
CREATE SCHEMA app;
CREATE TABLE app.users (
    id bigint NOT NULL,
    email text NOT NULL,
    CONSTRAINT users_pkey PRIMARY KEY (id)
);
`

const roundTripExtraDDL = `
ALTER TABLE app.users ADD COLUMN created_at timestamptz DEFAULT now();
CREATE INDEX users_email_idx ON app.users (email);
CREATE VIEW app.v_users AS SELECT id, email FROM app.users;
CREATE FUNCTION app.user_count() RETURNS bigint
    LANGUAGE sql STABLE
    AS 'SELECT count(*) FROM app.users';
`

// TestMigrationIdempotence applies a synthesized script to the database it was
// synthesized for and re-diffs: the second pass must find nothing left to do.
func TestMigrationIdempotence(t *testing.T) {
	skipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("appdb"),
		postgres.WithUsername("app"),
		postgres.WithPassword("secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	srcConn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srcConn.Close(context.Background()) })

	_, err = srcConn.Exec(ctx, roundTripBaseDDL)
	require.NoError(t, err)

	// The desired schema lives in a second database on the same server.
	_, err = srcConn.Exec(ctx, "CREATE DATABASE tgtdb")
	require.NoError(t, err)

	tgtConn, err := pgx.Connect(ctx, strings.Replace(dsn, "appdb", "tgtdb", 1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tgtConn.Close(context.Background()) })

	_, err = tgtConn.Exec(ctx, roundTripBaseDDL)
	require.NoError(t, err)
	_, err = tgtConn.Exec(ctx, roundTripExtraDDL)
	require.NoError(t, err)

	source, err := catalog.New(srcConn, catalog.Options{}).Import(ctx)
	require.NoError(t, err)
	target, err := catalog.New(tgtConn, catalog.Options{}).Import(ctx)
	require.NoError(t, err)

	d, err := diff.New(source, target, diff.Options{TargetVersion: source.ServerVersion})
	require.NoError(t, err)
	res, err := d.Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, res.Script, "the schemas differ before the migration")

	report, err := apply.New(srcConn, apply.Options{}).Apply(ctx, res.Script)
	require.NoError(t, err)
	require.Empty(t, report.Ignored)

	migrated, err := catalog.New(srcConn, catalog.Options{}).Import(ctx)
	require.NoError(t, err)

	d, err = diff.New(migrated, target, diff.Options{TargetVersion: migrated.ServerVersion})
	require.NoError(t, err)
	res, err = d.Run(ctx)
	require.NoError(t, err)

	require.Zero(t, res.Counts[diff.DiffCreate], "script: %v", res.Script)
	require.Zero(t, res.Counts[diff.DiffAlter], "script: %v", res.Script)
	require.Zero(t, res.Counts[diff.DiffDrop], "script: %v", res.Script)
}
