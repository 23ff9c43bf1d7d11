package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sert121/sql-datagen/internal/catalog"
)

// CatalogQuery returns one row per column (or one all-null row per empty
// relation/schema), ordered so rows of a schema and of a relation are
// contiguous. The || operator matters: it yields NULL for a missing relation
// instead of asking obj_description about the relation ".".
const CatalogQuery = `
SELECT
	(SELECT pg_catalog.shobj_description(d.oid, 'pg_database')
	 FROM pg_catalog.pg_database d
	 WHERE d.datname = $1) AS "description",
	s.catalog_name AS "name",
	s.schema_name AS "schemata.name",
	t.table_name AS "schemata.tables.name",
	t.table_type AS "schemata.tables.type",
	c.column_name AS "schemata.tables.columns.name",
	c.ordinal_position AS "schemata.tables.columns.ordinal_position",
	c.column_default AS "schemata.tables.columns.column_default",
	c.is_nullable AS "schemata.tables.columns.is_nullable",
	c.data_type AS "schemata.tables.columns.data_type",
	c.character_maximum_length AS "schemata.tables.columns.character_maximum_length",
	obj_description(quote_ident(s.schema_name)::regnamespace::oid, 'pg_namespace') AS "schemata.description",
	obj_description(
		(quote_ident(s.schema_name) || '.' || quote_ident(t.table_name))::regclass::oid,
		'pg_class'
	) AS "schemata.tables.description",
	col_description(
		(quote_ident(s.schema_name) || '.' || quote_ident(t.table_name))::regclass::oid,
		c.ordinal_position
	) AS "schemata.tables.columns.description"
FROM information_schema.schemata s
LEFT JOIN information_schema.tables t
	ON s.schema_name = t.table_schema
LEFT JOIN information_schema.columns c
	ON t.table_name = c.table_name AND t.table_schema = c.table_schema
WHERE s.schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
ORDER BY "schemata.name", "schemata.tables.name", "schemata.tables.columns.ordinal_position"`

type opener func(ctx context.Context, databaseName string) (*sql.DB, error)

// Introspector opens a short-lived pool per load so no connection outlives
// the catalog query.
type Introspector struct {
	open opener
}

// NewIntrospector connects lazily; cfg.DSN is retargeted at the database
// each load asks for.
func NewIntrospector(cfg DBConfig) *Introspector {
	return &Introspector{open: func(ctx context.Context, databaseName string) (*sql.DB, error) {
		target := cfg
		target.DSN = DSNWithDatabase(cfg.DSN, databaseName)
		return Open(ctx, target)
	}}
}

func (i *Introspector) LoadDatabase(ctx context.Context, databaseName string) (catalog.Database, error) {
	flat, err := i.queryFlatRows(ctx, databaseName)
	if err != nil {
		return catalog.Database{}, err
	}
	db, err := catalog.Build(flat)
	if err != nil {
		return catalog.Database{}, fmt.Errorf("build catalog tree: %w", err)
	}
	return db, nil
}

// queryFlatRows materializes the whole result, then closes the cursor and
// the pool before the tree is built.
func (i *Introspector) queryFlatRows(ctx context.Context, databaseName string) (catalog.FlatRows, error) {
	db, err := i.open(ctx, databaseName)
	if err != nil {
		return catalog.FlatRows{}, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, CatalogQuery, databaseName)
	if err != nil {
		return catalog.FlatRows{}, fmt.Errorf("query catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return catalog.ReadFlatRows(rows)
}
