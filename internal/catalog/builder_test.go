package catalog

import (
	"errors"
	"fmt"
	"testing"
)

var testLabels = []string{
	LabelDatabaseDescription,
	LabelDatabaseName,
	LabelSchemaName,
	LabelRelationName,
	LabelRelationType,
	LabelColumnName,
	LabelColumnOrdinalPosition,
	LabelColumnDefault,
	LabelColumnIsNullable,
	LabelColumnDataType,
	LabelColumnCharacterMaximumLength,
	LabelSchemaDescription,
	LabelRelationDescription,
	LabelColumnDescription,
}

type testRow struct {
	dbDesc     any
	schema     any
	schemaDesc any
	relation   any
	relType    any
	relDesc    any
	column     any
	ordinal    any
	dataType   any
	colDesc    any
}

func (r testRow) values() []any {
	return []any{
		r.dbDesc,
		"shop",
		r.schema,
		r.relation,
		r.relType,
		r.column,
		r.ordinal,
		nil,
		"YES",
		r.dataType,
		nil,
		r.schemaDesc,
		r.relDesc,
		r.colDesc,
	}
}

func flatRows(rows ...testRow) FlatRows {
	flat := FlatRows{Labels: testLabels}
	for _, row := range rows {
		flat.Values = append(flat.Values, row.values())
	}
	return flat
}

func col(schema, relation, column string, ordinal int64, dataType string) testRow {
	return testRow{
		schema:   schema,
		relation: relation,
		relType:  "BASE TABLE",
		column:   column,
		ordinal:  ordinal,
		dataType: dataType,
	}
}

func TestColumnIndex(t *testing.T) {
	if got := ColumnIndex(testLabels, LabelSchemaName); got != 2 {
		t.Fatalf("ColumnIndex(schemata.name) = %d", got)
	}
	if got := ColumnIndex(testLabels, LabelDatabaseName); got != 1 {
		t.Fatalf("ColumnIndex(name) = %d", got)
	}
	if got := ColumnIndex(testLabels, "schemata.tables.columns.missing"); got != NotFound {
		t.Fatalf("ColumnIndex(missing) = %d, want %d", got, NotFound)
	}
	if got := ColumnIndex(nil, LabelSchemaName); got != NotFound {
		t.Fatalf("ColumnIndex(nil) = %d", got)
	}
}

func TestBuildReconstructsTwoSchemasTwoTablesThreeColumns(t *testing.T) {
	var rows []testRow
	for _, schema := range []string{"public", "sales"} {
		for _, table := range []string{"orders", "users"} {
			// Column rows arrive out of ordinal order.
			rows = append(rows,
				col(schema, table, "c3", 3, "text"),
				col(schema, table, "c1", 1, "integer"),
				col(schema, table, "c2", 2, "numeric"),
			)
		}
	}

	db, err := Build(flatRows(rows...))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if db.Name != "shop" {
		t.Fatalf("Name = %q", db.Name)
	}
	if len(db.Schemata) != 2 {
		t.Fatalf("schemata = %d, want 2", len(db.Schemata))
	}
	for _, schema := range db.Schemata {
		if len(schema.Tables) != 2 || len(schema.Views) != 0 {
			t.Fatalf("schema %s tables/views = %d/%d", schema.Name, len(schema.Tables), len(schema.Views))
		}
		if schema.IsForeign {
			t.Fatalf("schema %s IsForeign = true", schema.Name)
		}
		for _, rel := range schema.Tables {
			if rel.Kind != KindTable {
				t.Fatalf("%s.%s kind = %q", schema.Name, rel.Name, rel.Kind)
			}
			if len(rel.Columns) != 3 {
				t.Fatalf("%s.%s columns = %d", schema.Name, rel.Name, len(rel.Columns))
			}
			for i, c := range rel.Columns {
				if c.OrdinalPosition != i+1 || c.Name != fmt.Sprintf("c%d", i+1) {
					t.Fatalf("%s.%s column[%d] = %+v", schema.Name, rel.Name, i, c)
				}
			}
		}
	}
	if db.Schemata[0].Name != "public" || db.Schemata[1].Name != "sales" {
		t.Fatalf("schema order = %v", db.SchemaNames())
	}
	if db.RelationCount() != 4 || db.ColumnCount() != 12 {
		t.Fatalf("relations/columns = %d/%d", db.RelationCount(), db.ColumnCount())
	}
}

func TestBuildCountsDistinctContiguousGroups(t *testing.T) {
	db, err := Build(flatRows(
		col("a", "t1", "id", 1, "integer"),
		col("a", "t2", "id", 1, "integer"),
		col("a", "t3", "id", 1, "integer"),
		col("b", "t1", "id", 1, "integer"),
		col("c", "t1", "id", 1, "integer"),
		col("c", "t2", "id", 1, "integer"),
	))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := map[string]int{"a": 3, "b": 1, "c": 2}
	if len(db.Schemata) != len(want) {
		t.Fatalf("schemata = %v", db.SchemaNames())
	}
	for _, schema := range db.Schemata {
		if got := len(schema.Tables); got != want[schema.Name] {
			t.Fatalf("schema %s relations = %d, want %d", schema.Name, got, want[schema.Name])
		}
	}
}

func TestBuildKeepsFirstRowDescriptions(t *testing.T) {
	first := col("public", "orders", "id", 1, "integer")
	first.dbDesc = "shop db"
	first.schemaDesc = "main schema"
	first.relDesc = "customer orders"
	first.colDesc = "primary key"

	second := col("public", "orders", "total", 2, "numeric")
	second.dbDesc = "changed"
	second.schemaDesc = "changed"
	second.relDesc = "changed"
	second.colDesc = "order total"

	third := col("public", "users", "id", 1, "integer")
	third.dbDesc = "changed again"
	third.schemaDesc = "changed again"
	third.relDesc = "users table"

	db, err := Build(flatRows(first, second, third))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if db.Description == nil || *db.Description != "shop db" {
		t.Fatalf("database description = %v", db.Description)
	}
	schema := db.Schemata[0]
	if schema.Description == nil || *schema.Description != "main schema" {
		t.Fatalf("schema description = %v", schema.Description)
	}
	orders := schema.Tables[0]
	if orders.Description == nil || *orders.Description != "customer orders" {
		t.Fatalf("orders description = %v", orders.Description)
	}
	if orders.Columns[1].Description == nil || *orders.Columns[1].Description != "order total" {
		t.Fatalf("total column description = %v", orders.Columns[1].Description)
	}
	users := schema.Tables[1]
	if users.Description == nil || *users.Description != "users table" {
		t.Fatalf("users description = %v", users.Description)
	}
}

func TestBuildPreservesNullDescriptions(t *testing.T) {
	db, err := Build(flatRows(col("public", "orders", "id", 1, "integer")))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if db.Description != nil || db.Schemata[0].Description != nil || db.Schemata[0].Tables[0].Description != nil {
		t.Fatalf("expected nil descriptions, got %+v", db)
	}
}

func TestBuildSkipsNullColumnNames(t *testing.T) {
	empty := testRow{schema: "public", relation: "audit", relType: "BASE TABLE"}
	db, err := Build(flatRows(empty))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	tables := db.Schemata[0].Tables
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	if tables[0].Columns == nil || len(tables[0].Columns) != 0 {
		t.Fatalf("columns = %#v, want empty", tables[0].Columns)
	}
}

func TestBuildEmptySchemaHasNoPlaceholderRelation(t *testing.T) {
	db, err := Build(flatRows(
		testRow{schema: "empty"},
		col("public", "orders", "id", 1, "integer"),
	))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(db.Schemata) != 2 {
		t.Fatalf("schemata = %v", db.SchemaNames())
	}
	empty := db.Schemata[0]
	if empty.Name != "empty" || len(empty.Tables) != 0 || len(empty.Views) != 0 {
		t.Fatalf("empty schema = %+v", empty)
	}
}

func TestBuildEmptyRelationNameIsSkipped(t *testing.T) {
	db, err := Build(flatRows(testRow{schema: "public", relation: "", relType: "BASE TABLE"}))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(db.Schemata[0].Tables) != 0 {
		t.Fatalf("tables = %+v", db.Schemata[0].Tables)
	}
}

func TestBuildSeparatesViews(t *testing.T) {
	view := col("public", "order_totals", "total", 1, "numeric")
	view.relType = "VIEW"
	db, err := Build(flatRows(
		view,
		col("public", "orders", "id", 1, "integer"),
	))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	schema := db.Schemata[0]
	if len(schema.Views) != 1 || schema.Views[0].Name != "order_totals" || schema.Views[0].Kind != KindView {
		t.Fatalf("views = %+v", schema.Views)
	}
	if len(schema.Tables) != 1 || schema.Tables[0].Name != "orders" {
		t.Fatalf("tables = %+v", schema.Tables)
	}
}

func TestBuildRejectsReappearingSchema(t *testing.T) {
	_, err := Build(flatRows(
		col("a", "t1", "id", 1, "integer"),
		col("b", "t1", "id", 1, "integer"),
		col("a", "t2", "id", 1, "integer"),
	))
	if !errors.Is(err, ErrRowsOutOfOrder) {
		t.Fatalf("Build() error = %v, want %v", err, ErrRowsOutOfOrder)
	}
}

func TestBuildRejectsReappearingRelation(t *testing.T) {
	_, err := Build(flatRows(
		col("a", "t1", "id", 1, "integer"),
		col("a", "t2", "id", 1, "integer"),
		col("a", "t1", "name", 2, "text"),
	))
	if !errors.Is(err, ErrRowsOutOfOrder) {
		t.Fatalf("Build() error = %v, want %v", err, ErrRowsOutOfOrder)
	}
}

func TestBuildRequiresGroupingLabels(t *testing.T) {
	_, err := Build(FlatRows{Labels: []string{LabelDatabaseName, LabelSchemaName}})
	if !errors.Is(err, ErrMissingLabel) {
		t.Fatalf("Build() error = %v, want %v", err, ErrMissingLabel)
	}
}

func TestBuildToleratesMissingOptionalLabels(t *testing.T) {
	flat := FlatRows{
		Labels: []string{LabelSchemaName, LabelRelationName, LabelColumnName},
		Values: [][]any{{"public", "orders", "id"}},
	}
	db, err := Build(flat)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	rel := db.Schemata[0].Tables[0]
	if rel.Columns[0].Name != "id" || rel.Columns[0].DataType != "" {
		t.Fatalf("column = %+v", rel.Columns[0])
	}
}

func TestBuildEmptyResult(t *testing.T) {
	db, err := Build(FlatRows{Labels: testLabels})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if db.Schemata == nil || len(db.Schemata) != 0 {
		t.Fatalf("schemata = %#v", db.Schemata)
	}
}

func TestBuildDecodesDriverValues(t *testing.T) {
	row := col("public", "orders", "code", 1, "character varying").values()
	row[ColumnIndex(testLabels, LabelColumnOrdinalPosition)] = []byte("1")
	row[ColumnIndex(testLabels, LabelColumnCharacterMaximumLength)] = int32(32)
	row[ColumnIndex(testLabels, LabelColumnDefault)] = []byte("'x'::text")
	db, err := Build(FlatRows{Labels: testLabels, Values: [][]any{row}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	c := db.Schemata[0].Tables[0].Columns[0]
	if c.OrdinalPosition != 1 {
		t.Fatalf("OrdinalPosition = %d", c.OrdinalPosition)
	}
	if c.CharacterMaximumLength == nil || *c.CharacterMaximumLength != 32 {
		t.Fatalf("CharacterMaximumLength = %v", c.CharacterMaximumLength)
	}
	if c.ColumnDefault == nil || *c.ColumnDefault != "'x'::text" {
		t.Fatalf("ColumnDefault = %v", c.ColumnDefault)
	}
	if c.IsNullable != "YES" {
		t.Fatalf("IsNullable = %q", c.IsNullable)
	}
}

func TestReadFlatRows(t *testing.T) {
	src := &fakeRows{
		labels: []string{LabelSchemaName, LabelRelationName},
		data:   [][]any{{"public", "orders"}, {"public", nil}},
	}
	flat, err := ReadFlatRows(src)
	if err != nil {
		t.Fatalf("ReadFlatRows() error = %v", err)
	}
	if len(flat.Values) != 2 {
		t.Fatalf("rows = %d", len(flat.Values))
	}
	if flat.Values[1][1] != nil {
		t.Fatalf("row[1][1] = %v", flat.Values[1][1])
	}
}

func TestReadFlatRowsPropagatesIterationError(t *testing.T) {
	src := &fakeRows{labels: []string{LabelSchemaName}, err: errors.New("connection reset")}
	if _, err := ReadFlatRows(src); err == nil {
		t.Fatal("expected iteration error")
	}
}

type fakeRows struct {
	labels []string
	data   [][]any
	pos    int
	err    error
}

func (f *fakeRows) Columns() ([]string, error) { return f.labels, nil }

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.data) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.data[f.pos-1]
	for i := range dest {
		*(dest[i].(*any)) = row[i]
	}
	return nil
}

func (f *fakeRows) Err() error { return f.err }
