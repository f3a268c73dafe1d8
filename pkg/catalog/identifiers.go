package catalog

import (
	"context"
	"strings"

	"github.com/pgdrift/pgdrift/pkg/filter"
	"github.com/pgdrift/pgdrift/pkg/model"
)

// Identifiers resolves a filter spec directly against a live catalog,
// returning the keys of the matching top-level objects without importing
// their definitions. This is the cheap path for previewing what a partial
// diff would cover; Resolve on an imported graph remains the authoritative
// scope because relationship closure needs the full graph.
func Identifiers(ctx context.Context, db Querier, spec *filter.Spec) ([]model.Key, error) {
	schemas, err := listSchemas(ctx, db)
	if err != nil {
		return nil, err
	}

	listings := []struct {
		kind  model.ObjectKind
		query string
	}{
		{model.KindTable, queryTableIdents},
		{model.KindView, queryViewIdents},
		{model.KindSequence, querySequenceIdents},
		{model.KindFunction, queryFunctionIdents},
	}

	var keys []model.Key
	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := db.Query(ctx, l.query, schemas)
		if err != nil {
			return nil, &QueryError{Kind: l.kind, Err: err}
		}

		for rows.Next() {
			var schema, name string
			if err := rows.Scan(&schema, &name); err != nil {
				rows.Close()
				return nil, &QueryError{Kind: l.kind, Err: err}
			}

			signature := schema + "." + name
			display := name
			if l.kind == model.KindFunction {
				// Function listings return "name(argtypes)"; the display name
				// drops the argument list.
				if pos := strings.Index(name, "("); pos >= 0 {
					display = name[:pos]
				}
			}

			if spec.Empty() || spec.MatchesName(l.kind, display, signature) == spec.OnlyMatching {
				keys = append(keys, model.Key{Kind: l.kind, Signature: signature})
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, &QueryError{Kind: l.kind, Err: err}
		}
	}
	return keys, nil
}

func listSchemas(ctx context.Context, db Querier) ([]string, error) {
	rows, err := db.Query(ctx, queryUserSchemaIdents)
	if err != nil {
		return nil, &QueryError{Kind: model.KindSchema, Err: err}
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{Kind: model.KindSchema, Err: err}
		}
		schemas = append(schemas, name)
	}
	return schemas, rows.Err()
}
