package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// NotFound is returned by ColumnIndex when a label is absent.
const NotFound = -1

// Column labels produced by the catalog query. Each dotted label encodes the
// depth of the field in the Database tree.
const (
	LabelDatabaseName        = "name"
	LabelDatabaseDescription = "description"
	LabelSchemaName          = "schemata.name"
	LabelSchemaDescription   = "schemata.description"
	LabelRelationName        = "schemata.tables.name"
	LabelRelationType        = "schemata.tables.type"
	LabelRelationDescription = "schemata.tables.description"

	LabelColumnName                   = "schemata.tables.columns.name"
	LabelColumnOrdinalPosition        = "schemata.tables.columns.ordinal_position"
	LabelColumnDefault                = "schemata.tables.columns.column_default"
	LabelColumnIsNullable             = "schemata.tables.columns.is_nullable"
	LabelColumnDataType               = "schemata.tables.columns.data_type"
	LabelColumnCharacterMaximumLength = "schemata.tables.columns.character_maximum_length"
	LabelColumnDescription            = "schemata.tables.columns.description"
)

func ColumnIndex(labels []string, label string) int {
	for i, candidate := range labels {
		if candidate == label {
			return i
		}
	}
	return NotFound
}

// rowLayout is the typed row-to-field mapping, resolved once per result set.
type rowLayout struct {
	databaseName        int
	databaseDescription int
	schemaName          int
	schemaDescription   int
	relationName        int
	relationType        int
	relationDescription int

	columnName                   int
	columnOrdinalPosition        int
	columnDefault                int
	columnIsNullable             int
	columnDataType               int
	columnCharacterMaximumLength int
	columnDescription            int
}

func resolveLayout(labels []string) (rowLayout, error) {
	layout := rowLayout{
		databaseName:                 ColumnIndex(labels, LabelDatabaseName),
		databaseDescription:          ColumnIndex(labels, LabelDatabaseDescription),
		schemaName:                   ColumnIndex(labels, LabelSchemaName),
		schemaDescription:            ColumnIndex(labels, LabelSchemaDescription),
		relationName:                 ColumnIndex(labels, LabelRelationName),
		relationType:                 ColumnIndex(labels, LabelRelationType),
		relationDescription:          ColumnIndex(labels, LabelRelationDescription),
		columnName:                   ColumnIndex(labels, LabelColumnName),
		columnOrdinalPosition:        ColumnIndex(labels, LabelColumnOrdinalPosition),
		columnDefault:                ColumnIndex(labels, LabelColumnDefault),
		columnIsNullable:             ColumnIndex(labels, LabelColumnIsNullable),
		columnDataType:               ColumnIndex(labels, LabelColumnDataType),
		columnCharacterMaximumLength: ColumnIndex(labels, LabelColumnCharacterMaximumLength),
		columnDescription:            ColumnIndex(labels, LabelColumnDescription),
	}
	// Grouping cannot proceed without its keys; every other field degrades to nil.
	if layout.schemaName == NotFound {
		return rowLayout{}, fmt.Errorf("%w: %q", ErrMissingLabel, LabelSchemaName)
	}
	if layout.relationName == NotFound {
		return rowLayout{}, fmt.Errorf("%w: %q", ErrMissingLabel, LabelRelationName)
	}
	return layout, nil
}

func (l rowLayout) column(row []any) Column {
	col := Column{
		ColumnDefault:          stringAt(row, l.columnDefault),
		Description:            stringAt(row, l.columnDescription),
		CharacterMaximumLength: intAt(row, l.columnCharacterMaximumLength),
	}
	if name := stringAt(row, l.columnName); name != nil {
		col.Name = *name
	}
	if pos := intAt(row, l.columnOrdinalPosition); pos != nil {
		col.OrdinalPosition = int(*pos)
	}
	if nullable := stringAt(row, l.columnIsNullable); nullable != nil {
		col.IsNullable = *nullable
	}
	if dataType := stringAt(row, l.columnDataType); dataType != nil {
		col.DataType = *dataType
	}
	return col
}

func stringAt(row []any, idx int) *string {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	switch v := row[idx].(type) {
	case nil:
		return nil
	case string:
		return &v
	case []byte:
		s := string(v)
		return &s
	default:
		s := fmt.Sprint(v)
		return &s
	}
}

func intAt(row []any, idx int) *int64 {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	var n int64
	switch v := row[idx].(type) {
	case nil:
		return nil
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int:
		n = int64(v)
	case float64:
		n = int64(v)
	case []byte:
		parsed, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}
