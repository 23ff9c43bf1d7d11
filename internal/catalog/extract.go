package catalog

import "fmt"

// DefaultSchemaPosition is used when no schema is named: the first schema in a
// typical catalog is the default/system one, so the second is taken.
const DefaultSchemaPosition = 1

func SelectSchema(db Database, name string) (Schema, error) {
	if name == "" {
		if len(db.Schemata) <= DefaultSchemaPosition {
			return Schema{}, fmt.Errorf("%w: no schema at position %d (have %d)", ErrSchemaNotFound, DefaultSchemaPosition, len(db.Schemata))
		}
		return db.Schemata[DefaultSchemaPosition], nil
	}
	for _, schema := range db.Schemata {
		if schema.Name == name {
			return schema, nil
		}
	}
	return Schema{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
}

// ExtractTables projects the tables (not views) of a schema down to column
// names and data types, keeping tree order.
func ExtractTables(schema Schema) []TableSummary {
	out := make([]TableSummary, 0, len(schema.Tables))
	for _, rel := range schema.Tables {
		summary := TableSummary{
			TableName:    rel.Name,
			TableColumns: make([]ColumnSummary, 0, len(rel.Columns)),
		}
		for _, col := range rel.Columns {
			summary.TableColumns = append(summary.TableColumns, ColumnSummary{Name: col.Name, DataType: col.DataType})
		}
		out = append(out, summary)
	}
	return out
}

func TableNames(tables []TableSummary) []string {
	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.TableName)
	}
	return names
}

func FindTable(tables []TableSummary, name string) (TableSummary, error) {
	for _, table := range tables {
		if table.TableName == name {
			return table, nil
		}
	}
	return TableSummary{}, fmt.Errorf("%w: %q", ErrTableNotFound, name)
}
