package catalog

// Catalog queries, one per import tier. Every query after the schema tier is
// scoped by the imported schema list ($1).
const (
	queryServerInfo = `SELECT current_setting('server_version'), current_database()`

	queryRoles = `
SELECT r.rolname,
       r.rolcanlogin, r.rolsuper, r.rolcreatedb, r.rolcreaterole,
       r.rolinherit, r.rolreplication, r.rolconnlimit,
       COALESCE(r.rolvaliduntil::text, '')
FROM pg_roles r
WHERE r.rolname NOT LIKE 'pg\_%' AND r.rolname <> 'postgres'
ORDER BY r.rolname`

	queryTablespaces = `
SELECT t.spcname, pg_get_userbyid(t.spcowner),
       COALESCE(pg_tablespace_location(t.oid), ''),
       COALESCE(shobj_description(t.oid, 'pg_tablespace'), '')
FROM pg_tablespace t
WHERE t.spcname NOT IN ('pg_default', 'pg_global')
ORDER BY t.spcname`

	querySchemas = `
SELECT n.oid, n.nspname, pg_get_userbyid(n.nspowner),
       COALESCE(obj_description(n.oid, 'pg_namespace'), '')
FROM pg_namespace n
WHERE n.nspname NOT LIKE 'pg\_%'
  AND n.nspname NOT IN ('information_schema', 'public')
ORDER BY n.nspname`

	queryExtensions = `
SELECT e.oid, e.extname, e.extversion, n.nspname,
       COALESCE(obj_description(e.oid, 'pg_extension'), '')
FROM pg_extension e
JOIN pg_namespace n ON n.oid = e.extnamespace
WHERE e.extname <> 'plpgsql'
ORDER BY e.extname`

	queryLanguages = `
SELECT l.oid, l.lanname, l.lanpltrusted, pg_get_userbyid(l.lanowner)
FROM pg_language l
WHERE l.lanispl AND l.lanname <> 'plpgsql'
ORDER BY l.lanname`

	queryTypes = `
SELECT t.oid, n.nspname, t.typname, pg_get_userbyid(t.typowner), t.typtype,
       COALESCE((SELECT array_agg(e.enumlabel ORDER BY e.enumsortorder)
                 FROM pg_enum e WHERE e.enumtypid = t.oid), '{}'),
       COALESCE((SELECT format_type(r.rngsubtype, NULL)
                 FROM pg_range r WHERE r.rngtypid = t.oid), ''),
       COALESCE(obj_description(t.oid, 'pg_type'), '')
FROM pg_type t
JOIN pg_namespace n ON n.oid = t.typnamespace
LEFT JOIN pg_class c ON c.oid = t.typrelid
WHERE t.typtype IN ('e', 'c', 'r')
  AND (t.typrelid = 0 OR c.relkind = 'c')
  AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = t.oid AND d.deptype = 'e'))
ORDER BY n.nspname, t.typname`

	queryCompositeAttrs = `
SELECT n.nspname, t.typname, a.attname, format_type(a.atttypid, a.atttypmod)
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid AND c.relkind = 'c'
JOIN pg_type t ON t.oid = c.reltype
JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE a.attnum > 0 AND NOT a.attisdropped AND n.nspname = ANY($1)
ORDER BY n.nspname, t.typname, a.attnum`

	queryDomains = `
SELECT t.oid, n.nspname, t.typname, pg_get_userbyid(t.typowner),
       format_type(t.typbasetype, t.typtypmod), t.typnotnull,
       t.typdefault,
       COALESCE((SELECT array_agg(c.conname || ' ' || pg_get_constraintdef(c.oid) ORDER BY c.conname)
                 FROM pg_constraint c WHERE c.contypid = t.oid), '{}'),
       COALESCE(obj_description(t.oid, 'pg_type'), '')
FROM pg_type t
JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE t.typtype = 'd' AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = t.oid AND d.deptype = 'e'))
ORDER BY n.nspname, t.typname`

	querySequences = `
SELECT c.oid, n.nspname, c.relname, pg_get_userbyid(c.relowner),
       s.seqstart, s.seqincrement, s.seqmin, s.seqmax, s.seqcache, s.seqcycle,
       COALESCE((SELECT dn.nspname || '.' || dc.relname || '.' || da.attname
                 FROM pg_depend d
                 JOIN pg_class dc ON dc.oid = d.refobjid
                 JOIN pg_namespace dn ON dn.oid = dc.relnamespace
                 JOIN pg_attribute da ON da.attrelid = d.refobjid AND da.attnum = d.refobjsubid
                 WHERE d.objid = c.oid AND d.classid = 'pg_class'::regclass
                   AND d.refclassid = 'pg_class'::regclass AND d.deptype = 'a'
                 LIMIT 1), ''),
       COALESCE(obj_description(c.oid, 'pg_class'), '')
FROM pg_class c
JOIN pg_sequence s ON s.seqrelid = c.oid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind = 'S' AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend ed
                         WHERE ed.objid = c.oid AND ed.deptype = 'e'))
ORDER BY n.nspname, c.relname`

	queryTables = `
SELECT c.oid, n.nspname, c.relname, pg_get_userbyid(c.relowner),
       c.relpersistence = 'u',
       COALESCE(pg_get_partkeydef(c.oid), ''),
       CASE WHEN c.relispartition
            THEN (SELECT pn.nspname || '.' || pc.relname
                  FROM pg_inherits i
                  JOIN pg_class pc ON pc.oid = i.inhparent
                  JOIN pg_namespace pn ON pn.oid = pc.relnamespace
                  WHERE i.inhrelid = c.oid LIMIT 1)
            ELSE '' END,
       COALESCE(pg_get_expr(c.relpartbound, c.oid), ''),
       COALESCE((SELECT array_agg(pn.nspname || '.' || pc.relname ORDER BY i.inhseqno)
                 FROM pg_inherits i
                 JOIN pg_class pc ON pc.oid = i.inhparent
                 JOIN pg_namespace pn ON pn.oid = pc.relnamespace
                 WHERE i.inhrelid = c.oid AND NOT c.relispartition), '{}'),
       COALESCE((SELECT t.spcname FROM pg_tablespace t WHERE t.oid = c.reltablespace), ''),
       COALESCE(obj_description(c.oid, 'pg_class'), '')
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('r', 'p') AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = c.oid AND d.deptype = 'e'))
ORDER BY n.nspname, c.relname`

	queryColumns = `
SELECT n.nspname, c.relname, a.attname, a.attnum,
       format_type(a.atttypid, a.atttypmod),
       a.attnotnull,
       pg_get_expr(ad.adbin, ad.adrelid),
       COALESCE(CASE WHEN a.attcollation <> t.typcollation
                     THEN (SELECT co.collname FROM pg_collation co WHERE co.oid = a.attcollation)
                     ELSE '' END, ''),
       CASE a.attidentity WHEN 'a' THEN 'ALWAYS' WHEN 'd' THEN 'BY DEFAULT' ELSE '' END,
       CASE WHEN a.attgenerated = 's' THEN pg_get_expr(ad.adbin, ad.adrelid) ELSE NULL END,
       COALESCE(col_description(c.oid, a.attnum), '')
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid AND c.relkind IN ('r', 'p')
JOIN pg_namespace n ON n.oid = c.relnamespace
JOIN pg_type t ON t.oid = a.atttypid
LEFT JOIN pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
WHERE a.attnum > 0 AND NOT a.attisdropped AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = c.oid AND d.deptype = 'e'))
ORDER BY n.nspname, c.relname, a.attnum`

	queryConstraints = `
SELECT n.nspname, c.relname, con.conname, con.contype,
       COALESCE((SELECT array_agg(att.attname ORDER BY u.ord)
                 FROM unnest(con.conkey) WITH ORDINALITY u(attnum, ord)
                 JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = u.attnum), '{}'),
       CASE WHEN con.contype = 'f'
            THEN (SELECT rn.nspname || '.' || rc.relname
                  FROM pg_class rc JOIN pg_namespace rn ON rn.oid = rc.relnamespace
                  WHERE rc.oid = con.confrelid)
            ELSE '' END,
       COALESCE((SELECT array_agg(att.attname ORDER BY u.ord)
                 FROM unnest(con.confkey) WITH ORDINALITY u(attnum, ord)
                 JOIN pg_attribute att ON att.attrelid = con.confrelid AND att.attnum = u.attnum), '{}'),
       con.confupdtype, con.confdeltype,
       con.condeferrable, con.condeferred,
       pg_get_constraintdef(con.oid)
FROM pg_constraint con
JOIN pg_class c ON c.oid = con.conrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE con.contype IN ('p', 'u', 'f', 'c', 'x') AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = c.oid AND d.deptype = 'e'))
ORDER BY n.nspname, c.relname, con.conname`

	queryIndexes = `
SELECT n.nspname, t.relname, c.relname, am.amname,
       COALESCE((SELECT array_agg(pg_get_indexdef(i.indexrelid, k.n, true) ORDER BY k.n)
                 FROM generate_series(1, i.indnkeyatts) k(n)), '{}'),
       i.indisunique,
       COALESCE(pg_get_expr(i.indpred, i.indrelid, true), ''),
       COALESCE((SELECT ts.spcname FROM pg_tablespace ts WHERE ts.oid = c.reltablespace), ''),
       COALESCE(obj_description(c.oid, 'pg_class'), '')
FROM pg_index i
JOIN pg_class c ON c.oid = i.indexrelid
JOIN pg_class t ON t.oid = i.indrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_am am ON am.oid = c.relam
WHERE n.nspname = ANY($1)
  AND NOT EXISTS (SELECT 1 FROM pg_constraint con WHERE con.conindid = i.indexrelid)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = t.oid AND d.deptype = 'e'))
ORDER BY n.nspname, t.relname, c.relname`

	queryTriggers = `
SELECT n.nspname, c.relname, t.tgname, t.tgtype::int,
       pn.nspname || '.' || p.proname,
       t.tgconstraint <> 0, t.tgdeferrable,
       pg_get_triggerdef(t.oid, true)
FROM pg_trigger t
JOIN pg_class c ON c.oid = t.tgrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
JOIN pg_proc p ON p.oid = t.tgfoid
JOIN pg_namespace pn ON pn.oid = p.pronamespace
WHERE NOT t.tgisinternal AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = c.oid AND d.deptype = 'e'))
ORDER BY n.nspname, c.relname, t.tgname`

	queryRules = `
SELECT n.nspname, c.relname, r.rulename, r.ev_type::text, r.is_instead,
       pg_get_ruledef(r.oid, true)
FROM pg_rewrite r
JOIN pg_class c ON c.oid = r.ev_class
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE r.rulename <> '_RETURN' AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = c.oid AND d.deptype = 'e'))
ORDER BY n.nspname, c.relname, r.rulename`

	queryViews = `
SELECT c.oid, n.nspname, c.relname, pg_get_userbyid(c.relowner),
       c.relkind = 'm',
       pg_get_viewdef(c.oid, true),
       COALESCE((SELECT array_agg(a.attname ORDER BY a.attnum)
                 FROM pg_attribute a
                 WHERE a.attrelid = c.oid AND a.attnum > 0 AND NOT a.attisdropped), '{}'),
       CASE WHEN 'check_option=local' = ANY(c.reloptions) THEN 'LOCAL'
            WHEN 'check_option=cascaded' = ANY(c.reloptions) THEN 'CASCADED'
            ELSE '' END,
       COALESCE(obj_description(c.oid, 'pg_class'), '')
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('v', 'm') AND n.nspname = ANY($1)
ORDER BY n.nspname, c.relname`

	queryFunctions = `
SELECT p.oid, n.nspname, p.proname, pg_get_userbyid(p.proowner),
       l.lanname, p.prokind = 'p',
       pg_get_function_result(p.oid),
       pg_get_function_arguments(p.oid),
       p.prosrc, p.proretset,
       CASE p.provolatile WHEN 'i' THEN 'IMMUTABLE' WHEN 's' THEN 'STABLE' ELSE 'VOLATILE' END,
       p.prosecdef,
       COALESCE(obj_description(p.oid, 'pg_proc'), '')
FROM pg_proc p
JOIN pg_namespace n ON n.oid = p.pronamespace
JOIN pg_language l ON l.oid = p.prolang
WHERE p.prokind IN ('f', 'p') AND n.nspname = ANY($1)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = p.oid AND d.deptype = 'e'))
ORDER BY n.nspname, p.proname`

	queryViewDeps = `
SELECT DISTINCT r.ev_class::oid,
       sn.nspname || '.' || sc.relname,
       sc.relkind IN ('v', 'm')
FROM pg_depend d
JOIN pg_rewrite r ON r.oid = d.objid AND r.rulename = '_RETURN'
JOIN pg_class sc ON sc.oid = d.refobjid
JOIN pg_namespace sn ON sn.oid = sc.relnamespace
WHERE r.ev_class = ANY($1)
  AND d.refobjid <> r.ev_class
  AND sc.relkind IN ('r', 'p', 'v', 'm')`

	queryPermissions = `
SELECT n.nspname, c.relname, g.rolname, acl.privilege_type, acl.is_grantable
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
CROSS JOIN LATERAL aclexplode(c.relacl) acl
JOIN pg_roles g ON g.oid = acl.grantee
WHERE c.relkind IN ('r', 'p', 'v', 'm') AND n.nspname = ANY($1)
  AND g.rolname <> pg_get_userbyid(c.relowner)
  AND ($2 OR NOT EXISTS (SELECT 1 FROM pg_depend d
                         WHERE d.objid = c.oid AND d.deptype = 'e'))
ORDER BY n.nspname, c.relname, g.rolname, acl.privilege_type`

	// Identifier listings for catalog-side filter resolution.
	queryTableIdents = `
SELECT n.nspname, c.relname
FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('r', 'p') AND n.nspname = ANY($1)
ORDER BY n.nspname, c.relname`

	queryViewIdents = `
SELECT n.nspname, c.relname
FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('v', 'm') AND n.nspname = ANY($1)
ORDER BY n.nspname, c.relname`

	querySequenceIdents = `
SELECT n.nspname, c.relname
FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind = 'S' AND n.nspname = ANY($1)
ORDER BY n.nspname, c.relname`

	queryFunctionIdents = `
SELECT n.nspname, p.proname || '(' ||
       COALESCE((SELECT string_agg(format_type(u.t, NULL), ',' ORDER BY u.ord)
                 FROM unnest(p.proargtypes) WITH ORDINALITY u(t, ord)), '') || ')'
FROM pg_proc p JOIN pg_namespace n ON n.oid = p.pronamespace
WHERE p.prokind IN ('f', 'p') AND n.nspname = ANY($1)
ORDER BY 1, 2`

	queryUserSchemaIdents = `
SELECT n.nspname
FROM pg_namespace n
WHERE n.nspname NOT LIKE 'pg\_%' AND n.nspname <> 'information_schema'
ORDER BY n.nspname`
)
