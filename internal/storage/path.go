package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// BuildRunArchivePath returns runs/<database>/<schema>/<table>/<run-id>.parquet.
// Identifiers are path-escaped since Postgres allows almost any character in
// quoted names.
func BuildRunArchivePath(database, schema, table, runID string) (string, error) {
	parts := []struct {
		value string
		field string
	}{
		{database, "database name"},
		{schema, "schema name"},
		{table, "table name"},
		{runID, "run id"},
	}
	escaped := make([]string, 0, len(parts))
	for _, part := range parts {
		component, err := pathComponent(part.value, part.field)
		if err != nil {
			return "", err
		}
		escaped = append(escaped, component)
	}
	return path.Join(
		"runs",
		escaped[0],
		escaped[1],
		escaped[2],
		escaped[3]+".parquet",
	), nil
}

func pathComponent(value, field string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "." || value == ".." {
		return "", fmt.Errorf("invalid %s: %q", field, value)
	}
	return url.PathEscape(value), nil
}
