package catalog

import (
	"context"

	"github.com/pgdrift/pgdrift/pkg/model"
)

func (i *Importer) importRoles(ctx context.Context, g *model.Graph) error {
	if !i.opts.IncludeSystemObjs {
		return nil
	}

	rows, err := i.db.Query(ctx, queryRoles)
	if err != nil {
		return &QueryError{Kind: model.KindRole, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name       string
			def        model.RoleDef
			validUntil string
		)
		if err := rows.Scan(&name, &def.Login, &def.Superuser, &def.CreateDB,
			&def.CreateRole, &def.Inherit, &def.Replication, &def.ConnLimit, &validUntil); err != nil {
			return &QueryError{Kind: model.KindRole, Err: err}
		}
		if validUntil != "infinity" {
			def.ValidUntil = validUntil
		}

		if err := i.add(g, &model.Object{Kind: model.KindRole, Name: name, Def: &def}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importTablespaces(ctx context.Context, g *model.Graph) error {
	if !i.opts.IncludeSystemObjs {
		return nil
	}

	rows, err := i.db.Query(ctx, queryTablespaces)
	if err != nil {
		return &QueryError{Kind: model.KindTablespace, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var name, owner, location, comment string
		if err := rows.Scan(&name, &owner, &location, &comment); err != nil {
			return &QueryError{Kind: model.KindTablespace, Err: err}
		}

		o := &model.Object{
			Kind: model.KindTablespace, Name: name, Owner: owner, Comment: comment,
			Def: &model.TablespaceDef{Location: location},
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importSchemas(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, querySchemas)
	if err != nil {
		return &QueryError{Kind: model.KindSchema, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			oid                  uint32
			name, owner, comment string
		)
		if err := rows.Scan(&oid, &name, &owner, &comment); err != nil {
			return &QueryError{Kind: model.KindSchema, Err: err}
		}

		o := &model.Object{
			Kind: model.KindSchema, Name: name, OID: oid, Owner: owner, Comment: comment,
			Def: &model.SchemaDef{},
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importExtensions(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryExtensions)
	if err != nil {
		return &QueryError{Kind: model.KindExtension, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			oid                            uint32
			name, version, schema, comment string
		)
		if err := rows.Scan(&oid, &name, &version, &schema, &comment); err != nil {
			return &QueryError{Kind: model.KindExtension, Err: err}
		}

		o := &model.Object{
			Kind: model.KindExtension, Schema: schema, Name: name, OID: oid, Comment: comment,
			Def: &model.ExtensionDef{Version: version},
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importLanguages(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryLanguages)
	if err != nil {
		return &QueryError{Kind: model.KindLanguage, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			oid         uint32
			name, owner string
			trusted     bool
		)
		if err := rows.Scan(&oid, &name, &trusted, &owner); err != nil {
			return &QueryError{Kind: model.KindLanguage, Err: err}
		}

		o := &model.Object{
			Kind: model.KindLanguage, Name: name, OID: oid, Owner: owner,
			Def: &model.LanguageDef{Trusted: trusted},
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importTypes(ctx context.Context, g *model.Graph) error {
	schemas := userSchemas(g)

	rows, err := i.db.Query(ctx, queryTypes, schemas, i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindType, Err: err}
	}

	type typeRow struct {
		oid                          uint32
		schema, name, owner, comment string
		typtype                      string
		enumValues                   []string
		subtype                      string
	}
	var collected []typeRow

	for rows.Next() {
		var r typeRow
		if err := rows.Scan(&r.oid, &r.schema, &r.name, &r.owner, &r.typtype,
			&r.enumValues, &r.subtype, &r.comment); err != nil {
			rows.Close()
			return &QueryError{Kind: model.KindType, Err: err}
		}
		collected = append(collected, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return &QueryError{Kind: model.KindType, Err: err}
	}

	attrs, err := i.compositeAttributes(ctx, schemas)
	if err != nil {
		return err
	}

	for _, r := range collected {
		def := &model.TypeDef{Category: typeCategory(r.typtype)}
		switch r.typtype {
		case "e":
			def.EnumValues = r.enumValues
		case "c":
			def.Attributes = attrs[r.schema+"."+r.name]
		case "r":
			def.Subtype = r.subtype
		}

		o := &model.Object{
			Kind: model.KindType, Schema: r.schema, Name: r.name,
			OID: r.oid, Owner: r.owner, Comment: r.comment, Def: def,
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return nil
}

func (i *Importer) compositeAttributes(ctx context.Context, schemas []string) (map[string][]model.TypeAttribute, error) {
	rows, err := i.db.Query(ctx, queryCompositeAttrs, schemas)
	if err != nil {
		return nil, &QueryError{Kind: model.KindType, Err: err}
	}
	defer rows.Close()

	attrs := make(map[string][]model.TypeAttribute)
	for rows.Next() {
		var schema, typName, attName, attType string
		if err := rows.Scan(&schema, &typName, &attName, &attType); err != nil {
			return nil, &QueryError{Kind: model.KindType, Err: err}
		}
		key := schema + "." + typName
		attrs[key] = append(attrs[key], model.TypeAttribute{Name: attName, Type: attType})
	}
	return attrs, rows.Err()
}

func (i *Importer) importDomains(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryDomains, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindDomain, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			oid                          uint32
			schema, name, owner, comment string
			def                          model.DomainDef
			rawChecks                    []string
		)
		if err := rows.Scan(&oid, &schema, &name, &owner, &def.BaseType,
			&def.NotNull, &def.Default, &rawChecks, &comment); err != nil {
			return &QueryError{Kind: model.KindDomain, Err: err}
		}
		def.Checks = decodeDomainChecks(rawChecks)

		o := &model.Object{
			Kind: model.KindDomain, Schema: schema, Name: name,
			OID: oid, Owner: owner, Comment: comment, Def: &def,
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importSequences(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, querySequences, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindSequence, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			oid                          uint32
			schema, name, owner, comment string
			def                          model.SequenceDef
		)
		if err := rows.Scan(&oid, &schema, &name, &owner, &def.Start, &def.Increment,
			&def.MinValue, &def.MaxValue, &def.Cache, &def.Cycle, &def.OwnedBy, &comment); err != nil {
			return &QueryError{Kind: model.KindSequence, Err: err}
		}
		if !i.wanted(model.KindSequence, schema+"."+name) {
			continue
		}

		o := &model.Object{
			Kind: model.KindSequence, Schema: schema, Name: name,
			OID: oid, Owner: owner, Comment: comment, Def: &def,
		}
		id, err := g.Add(o)
		if err != nil {
			if ferr := i.fail(model.KindSequence, schema+"."+name, err); ferr != nil {
				return ferr
			}
			continue
		}

		// The owning table is imported in a later tier; the edge binds when
		// the table arrives.
		if def.OwnedBy != "" {
			g.AddDependency(id, model.Key{Kind: model.KindTable, Signature: owningTable(def.OwnedBy)})
		}
	}
	return rows.Err()
}

func (i *Importer) importTables(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryTables, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindTable, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			oid                          uint32
			schema, name, owner, comment string
			def                          model.TableDef
		)
		if err := rows.Scan(&oid, &schema, &name, &owner, &def.Unlogged,
			&def.PartitionBy, &def.PartitionOf, &def.PartitionBound,
			&def.Inherits, &def.Tablespace, &comment); err != nil {
			return &QueryError{Kind: model.KindTable, Err: err}
		}
		if !i.wanted(model.KindTable, schema+"."+name) {
			i.skip(schema + "." + name)
			continue
		}

		o := &model.Object{
			Kind: model.KindTable, Schema: schema, Name: name,
			OID: oid, Owner: owner, Comment: comment, Def: &def,
		}
		id, err := g.Add(o)
		if err != nil {
			if ferr := i.fail(model.KindTable, schema+"."+name, err); ferr != nil {
				return ferr
			}
			continue
		}

		if s := g.Lookup(model.KindSchema, schema); s != nil && !s.Bootstrap {
			g.AddDependency(id, s.Key())
		}
		if def.PartitionOf != "" {
			g.AddDependency(id, model.Key{Kind: model.KindTable, Signature: def.PartitionOf})
		}
		for _, parent := range def.Inherits {
			g.AddDependency(id, model.Key{Kind: model.KindTable, Signature: parent})
		}
	}
	return rows.Err()
}

func (i *Importer) importColumns(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryColumns, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindColumn, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			schema, table, name, comment string
			def                          model.ColumnDef
		)
		if err := rows.Scan(&schema, &table, &name, &def.Position, &def.Type,
			&def.NotNull, &def.Default, &def.Collation, &def.Identity,
			&def.Generated, &comment); err != nil {
			return &QueryError{Kind: model.KindColumn, Err: err}
		}
		if def.Generated != nil {
			// Generated columns surface the expression, not a default.
			def.Default = nil
		}

		parent, err := i.parentTable(g, schema, table)
		if err != nil {
			if ferr := i.fail(model.KindColumn, schema+"."+table+"."+name, err); ferr != nil {
				return ferr
			}
			continue
		}
		if parent == nil {
			continue
		}

		o := &model.Object{
			Kind: model.KindColumn, Name: name, Comment: comment,
			Parent: parent.ID, ParentName: parent.QualifiedName(), Def: &def,
		}
		if err := i.add(g, o); err != nil {
			return err
		}

		// A column of a user-defined type makes the table depend on it.
		for _, kind := range []model.ObjectKind{model.KindType, model.KindDomain} {
			if t := g.Lookup(kind, baseTypeName(def.Type)); t != nil {
				g.AddDependency(parent.ID, t.Key())
				break
			}
		}
	}
	return rows.Err()
}

func (i *Importer) importConstraints(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryConstraints, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindConstraint, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			schema, table, name  string
			contype              string
			condef               string
			updAction, delAction string
			def                  model.ConstraintDef
		)
		if err := rows.Scan(&schema, &table, &name, &contype, &def.Columns,
			&def.RefTable, &def.RefColumns, &updAction, &delAction,
			&def.Deferrable, &def.InitiallyDeferred, &condef); err != nil {
			return &QueryError{Kind: model.KindConstraint, Err: err}
		}

		def.Type = constraintType(contype)
		switch contype {
		case "f":
			def.OnUpdate = foreignKeyAction(updAction)
			def.OnDelete = foreignKeyAction(delAction)
		case "c":
			def.Expression = checkExpression(condef)
			def.Columns = nil
		case "x":
			def.Expression = condef
			def.Columns = nil
		}

		parent, err := i.parentTable(g, schema, table)
		if err != nil {
			if ferr := i.fail(model.KindConstraint, schema+"."+table+"."+name, err); ferr != nil {
				return ferr
			}
			continue
		}
		if parent == nil {
			continue
		}

		o := &model.Object{
			Kind: model.KindConstraint, Name: name,
			Parent: parent.ID, ParentName: parent.QualifiedName(), Def: &def,
		}
		id, err := g.Add(o)
		if err != nil {
			if ferr := i.fail(model.KindConstraint, o.QualifiedName(), err); ferr != nil {
				return ferr
			}
			continue
		}

		if def.RefTable != "" {
			g.AddDependency(id, model.Key{Kind: model.KindTable, Signature: def.RefTable})
		}
	}
	return rows.Err()
}

func (i *Importer) importIndexes(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryIndexes, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindIndex, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			schema, table, name, comment string
			def                          model.IndexDef
		)
		if err := rows.Scan(&schema, &table, &name, &def.Method, &def.Keys,
			&def.Unique, &def.Predicate, &def.Tablespace, &comment); err != nil {
			return &QueryError{Kind: model.KindIndex, Err: err}
		}

		parent, err := i.parentTable(g, schema, table)
		if err != nil {
			if ferr := i.fail(model.KindIndex, schema+"."+name, err); ferr != nil {
				return ferr
			}
			continue
		}
		if parent == nil {
			continue
		}

		o := &model.Object{
			Kind: model.KindIndex, Name: name, Comment: comment,
			Parent: parent.ID, ParentName: parent.QualifiedName(), Def: &def,
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importTriggers(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryTriggers, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindTrigger, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			schema, table, name string
			tgtype              int
			function            string
			isConstraint        bool
			deferrable          bool
			triggerDef          string
		)
		if err := rows.Scan(&schema, &table, &name, &tgtype, &function,
			&isConstraint, &deferrable, &triggerDef); err != nil {
			return &QueryError{Kind: model.KindTrigger, Err: err}
		}

		def := decodeTrigger(tgtype, function, triggerDef)
		def.IsConstraint = isConstraint
		def.Deferrable = deferrable

		parent, err := i.parentTable(g, schema, table)
		if err != nil {
			if ferr := i.fail(model.KindTrigger, schema+"."+table+"."+name, err); ferr != nil {
				return ferr
			}
			continue
		}
		if parent == nil {
			continue
		}

		o := &model.Object{
			Kind: model.KindTrigger, Name: name,
			Parent: parent.ID, ParentName: parent.QualifiedName(), Def: def,
		}
		id, err := g.Add(o)
		if err != nil {
			if ferr := i.fail(model.KindTrigger, o.QualifiedName(), err); ferr != nil {
				return ferr
			}
			continue
		}

		// Trigger functions are imported later; bind through a deferred slot.
		g.AddDependency(id, model.Key{Kind: model.KindFunction, Signature: def.Function})
	}
	return rows.Err()
}

func (i *Importer) importRules(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryRules, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindRule, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			schema, table, name string
			evType              string
			instead             bool
			ruleDef             string
		)
		if err := rows.Scan(&schema, &table, &name, &evType, &instead, &ruleDef); err != nil {
			return &QueryError{Kind: model.KindRule, Err: err}
		}

		def := decodeRule(evType, instead, ruleDef)

		parent, err := i.parentTable(g, schema, table)
		if err != nil {
			if ferr := i.fail(model.KindRule, schema+"."+table+"."+name, err); ferr != nil {
				return ferr
			}
			continue
		}
		if parent == nil {
			continue
		}

		o := &model.Object{
			Kind: model.KindRule, Name: name,
			Parent: parent.ID, ParentName: parent.QualifiedName(), Def: def,
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importViews(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryViews, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindView, Err: err}
	}
	defer rows.Close()

	var imported []viewRef

	for rows.Next() {
		var (
			oid                          uint32
			schema, name, owner, comment string
			def                          model.ViewDef
		)
		if err := rows.Scan(&oid, &schema, &name, &owner, &def.Materialized,
			&def.Query, &def.Columns, &def.CheckOption, &comment); err != nil {
			return &QueryError{Kind: model.KindView, Err: err}
		}
		if !i.wanted(model.KindView, schema+"."+name) {
			i.skip(schema + "." + name)
			continue
		}

		o := &model.Object{
			Kind: model.KindView, Schema: schema, Name: name,
			OID: oid, Owner: owner, Comment: comment, Def: &def,
		}
		id, err := g.Add(o)
		if err != nil {
			if ferr := i.fail(model.KindView, schema+"."+name, err); ferr != nil {
				return ferr
			}
			continue
		}
		imported = append(imported, viewRef{id: id, oid: oid})
	}
	if err := rows.Err(); err != nil {
		return &QueryError{Kind: model.KindView, Err: err}
	}

	return i.viewDependencies(ctx, g, imported)
}

// viewRef pairs an imported view's graph ID with its catalog OID for the
// dependency sweep.
type viewRef struct {
	id  model.ObjectID
	oid uint32
}

// viewDependencies wires each view to the relations its rewrite rule
// references. Runs after all views exist so view-on-view references resolve
// regardless of name order.
func (i *Importer) viewDependencies(ctx context.Context, g *model.Graph, views []viewRef) error {
	if len(views) == 0 {
		return nil
	}

	oids := make([]uint32, len(views))
	byOID := make(map[uint32]model.ObjectID, len(views))
	for n, v := range views {
		oids[n] = v.oid
		byOID[v.oid] = v.id
	}

	rows, err := i.db.Query(ctx, queryViewDeps, oids)
	if err != nil {
		return &QueryError{Kind: model.KindView, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			viewOID   uint32
			refName   string
			refIsView bool
		)
		if err := rows.Scan(&viewOID, &refName, &refIsView); err != nil {
			return &QueryError{Kind: model.KindView, Err: err}
		}

		kind := model.KindTable
		if refIsView {
			kind = model.KindView
		}
		if id, ok := byOID[viewOID]; ok {
			g.AddDependency(id, model.Key{Kind: kind, Signature: refName})
		}
	}
	return rows.Err()
}

func (i *Importer) importFunctions(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryFunctions, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindFunction, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			oid                          uint32
			schema, name, owner, comment string
			rawArgs                      string
			def                          model.FunctionDef
		)
		if err := rows.Scan(&oid, &schema, &name, &owner, &def.Language,
			&def.IsProcedure, &def.Returns, &rawArgs, &def.Body,
			&def.ReturnsSet, &def.Volatility, &def.SecurityDefiner, &comment); err != nil {
			return &QueryError{Kind: model.KindFunction, Err: err}
		}
		def.Arguments = parseFunctionArgs(rawArgs)

		o := &model.Object{
			Kind: model.KindFunction, Schema: schema, Name: name,
			OID: oid, Owner: owner, Comment: comment, Def: &def,
		}
		if !i.wanted(model.KindFunction, o.Signature()) {
			continue
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (i *Importer) importPermissions(ctx context.Context, g *model.Graph) error {
	rows, err := i.db.Query(ctx, queryPermissions, userSchemas(g), i.opts.IncludeExtensionObjs)
	if err != nil {
		return &QueryError{Kind: model.KindPermission, Err: err}
	}
	defer rows.Close()

	type grantKey struct {
		relation  string
		grantee   string
		grantable bool
	}
	grants := make(map[grantKey][]string)
	var order []grantKey

	for rows.Next() {
		var (
			schema, relation, grantee, privilege string
			grantable                            bool
		)
		if err := rows.Scan(&schema, &relation, &grantee, &privilege, &grantable); err != nil {
			return &QueryError{Kind: model.KindPermission, Err: err}
		}

		k := grantKey{relation: schema + "." + relation, grantee: grantee, grantable: grantable}
		if _, seen := grants[k]; !seen {
			order = append(order, k)
		}
		grants[k] = append(grants[k], privilege)
	}
	if err := rows.Err(); err != nil {
		return &QueryError{Kind: model.KindPermission, Err: err}
	}

	for _, k := range order {
		parts := splitQualified(k.relation)
		parent, err := i.parentTable(g, parts[0], parts[1])
		if err != nil {
			if ferr := i.fail(model.KindPermission, k.relation, err); ferr != nil {
				return ferr
			}
			continue
		}
		if parent == nil {
			continue
		}

		name := k.grantee
		if k.grantable {
			name += "+grant"
		}
		o := &model.Object{
			Kind: model.KindPermission, Name: name,
			Parent: parent.ID, ParentName: parent.QualifiedName(),
			Def: &model.PermissionDef{
				Grantee:    k.grantee,
				Privileges: grants[k],
				WithGrant:  k.grantable,
			},
		}
		if err := i.add(g, o); err != nil {
			return err
		}
	}
	return nil
}
