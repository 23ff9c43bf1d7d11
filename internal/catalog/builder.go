package catalog

import (
	"cmp"
	"fmt"
	"slices"
)

// RowScanner is the subset of *sql.Rows the builder reads from.
type RowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// FlatRows is a fully materialized catalog query result.
type FlatRows struct {
	Labels []string
	Values [][]any
}

func ReadFlatRows(rows RowScanner) (FlatRows, error) {
	labels, err := rows.Columns()
	if err != nil {
		return FlatRows{}, fmt.Errorf("read catalog columns: %w", err)
	}
	flat := FlatRows{Labels: labels}
	for rows.Next() {
		values := make([]any, len(labels))
		ptrs := make([]any, len(labels))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return FlatRows{}, fmt.Errorf("scan catalog row: %w", err)
		}
		flat.Values = append(flat.Values, values)
	}
	if err := rows.Err(); err != nil {
		return FlatRows{}, fmt.Errorf("iterate catalog rows: %w", err)
	}
	return flat, nil
}

// Build folds rows ordered by schema name then relation name into a Database
// tree. Rows of one schema (and of one relation inside it) must be contiguous;
// a key that shows up again after its run ended yields ErrRowsOutOfOrder.
func Build(flat FlatRows) (Database, error) {
	layout, err := resolveLayout(flat.Labels)
	if err != nil {
		return Database{}, err
	}
	b := &treeBuilder{
		layout:        layout,
		db:            Database{Schemata: []Schema{}},
		closedSchemas: map[groupKey]struct{}{},
	}
	for i, row := range flat.Values {
		if err := b.add(row); err != nil {
			return Database{}, fmt.Errorf("row %d: %w", i, err)
		}
	}
	b.closeSchema()
	return b.db, nil
}

type groupKey struct {
	name  string
	valid bool
}

func (k groupKey) String() string {
	if !k.valid {
		return "<null>"
	}
	return fmt.Sprintf("%q", k.name)
}

func keyAt(row []any, idx int) groupKey {
	value := stringAt(row, idx)
	if value == nil {
		return groupKey{}
	}
	return groupKey{name: *value, valid: true}
}

type treeBuilder struct {
	layout        rowLayout
	db            Database
	dbSeen        bool
	schema        *schemaGroup
	closedSchemas map[groupKey]struct{}
}

type schemaGroup struct {
	key       groupKey
	schema    Schema
	described bool
	relation  *relationGroup
	closed    map[groupKey]struct{}
}

type relationGroup struct {
	key       groupKey
	relation  Relation
	described bool
	kindSeen  bool
}

func (b *treeBuilder) add(row []any) error {
	l := b.layout

	if !b.dbSeen {
		if name := stringAt(row, l.databaseName); name != nil {
			b.db.Name = *name
		}
		b.db.Description = stringAt(row, l.databaseDescription)
		b.dbSeen = true
	}

	schemaKey := keyAt(row, l.schemaName)
	if b.schema == nil || b.schema.key != schemaKey {
		b.closeSchema()
		if _, done := b.closedSchemas[schemaKey]; done {
			return fmt.Errorf("%w: schema %s reappears", ErrRowsOutOfOrder, schemaKey)
		}
		b.schema = &schemaGroup{
			key: schemaKey,
			schema: Schema{
				Name:   schemaKey.name,
				Tables: []Relation{},
				Views:  []Relation{},
			},
			closed: map[groupKey]struct{}{},
		}
	}
	sg := b.schema
	if !sg.described {
		sg.schema.Description = stringAt(row, l.schemaDescription)
		sg.described = true
	}

	relationKey := keyAt(row, l.relationName)
	if sg.relation == nil || sg.relation.key != relationKey {
		sg.closeRelation()
		if _, done := sg.closed[relationKey]; done {
			return fmt.Errorf("%w: relation %s reappears in schema %s", ErrRowsOutOfOrder, relationKey, schemaKey)
		}
		sg.relation = &relationGroup{
			key:      relationKey,
			relation: Relation{Name: relationKey.name, Columns: []Column{}},
		}
	}
	rg := sg.relation
	if !rg.described {
		rg.relation.Description = stringAt(row, l.relationDescription)
		rg.described = true
	}
	if !rg.kindSeen {
		rg.relation.Kind = kindOf(stringAt(row, l.relationType))
		rg.kindSeen = true
	}

	// LEFT JOIN rows for relations without columns carry a null column name.
	if stringAt(row, l.columnName) != nil {
		rg.relation.Columns = append(rg.relation.Columns, l.column(row))
	}
	return nil
}

func (b *treeBuilder) closeSchema() {
	if b.schema == nil {
		return
	}
	b.schema.closeRelation()
	b.db.Schemata = append(b.db.Schemata, b.schema.schema)
	b.closedSchemas[b.schema.key] = struct{}{}
	b.schema = nil
}

func (s *schemaGroup) closeRelation() {
	rg := s.relation
	if rg == nil {
		return
	}
	s.closed[rg.key] = struct{}{}
	s.relation = nil

	// An empty schema still yields one all-null relation row from the LEFT JOIN.
	if !rg.key.valid || rg.key.name == "" || !rg.kindSeen {
		return
	}
	slices.SortStableFunc(rg.relation.Columns, func(a, b Column) int {
		return cmp.Compare(a.OrdinalPosition, b.OrdinalPosition)
	})
	switch rg.relation.Kind {
	case KindView:
		s.schema.Views = append(s.schema.Views, rg.relation)
	default:
		s.schema.Tables = append(s.schema.Tables, rg.relation)
	}
}

func kindOf(tableType *string) RelationKind {
	if tableType != nil && *tableType == "VIEW" {
		return KindView
	}
	return KindTable
}
