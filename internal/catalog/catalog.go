package catalog

import (
	"context"
	"errors"
)

var (
	ErrRowsOutOfOrder = errors.New("catalog: rows are not grouped by schema and relation")
	ErrMissingLabel   = errors.New("catalog: required column label missing from result set")
	ErrSchemaNotFound = errors.New("catalog: schema not found")
	ErrTableNotFound  = errors.New("catalog: table not found")
)

// Source loads the catalog tree of one database.
type Source interface {
	LoadDatabase(ctx context.Context, databaseName string) (Database, error)
}

type RelationKind string

const (
	KindTable RelationKind = "table"
	KindView  RelationKind = "view"
)

type Database struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Schemata    []Schema `json:"schemata"`
}

type Schema struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	IsForeign   bool       `json:"is_foreign"`
	Tables      []Relation `json:"tables"`
	Views       []Relation `json:"views"`
}

type Relation struct {
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Kind        RelationKind `json:"kind"`
	Columns     []Column     `json:"columns"`
}

type Column struct {
	Name                   string  `json:"name"`
	OrdinalPosition        int     `json:"ordinal_position"`
	ColumnDefault          *string `json:"column_default"`
	IsNullable             string  `json:"is_nullable"`
	DataType               string  `json:"data_type"`
	CharacterMaximumLength *int64  `json:"character_maximum_length"`
	Description            *string `json:"description"`
}

// TableSummary is the projection of a table handed to prompt composition.
type TableSummary struct {
	TableName    string          `json:"table_name"`
	TableColumns []ColumnSummary `json:"table_columns"`
}

type ColumnSummary struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

func (d Database) SchemaNames() []string {
	names := make([]string, 0, len(d.Schemata))
	for _, schema := range d.Schemata {
		names = append(names, schema.Name)
	}
	return names
}

func (d Database) RelationCount() int {
	count := 0
	for _, schema := range d.Schemata {
		count += len(schema.Tables) + len(schema.Views)
	}
	return count
}

func (d Database) ColumnCount() int {
	count := 0
	for _, schema := range d.Schemata {
		for _, rel := range schema.Tables {
			count += len(rel.Columns)
		}
		for _, rel := range schema.Views {
			count += len(rel.Columns)
		}
	}
	return count
}
