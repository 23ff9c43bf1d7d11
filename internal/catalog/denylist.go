package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DenyList holds table names excluded from question generation.
type DenyList struct {
	names map[string]struct{}
}

func NewDenyList(names ...string) DenyList {
	d := DenyList{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		d.names[name] = struct{}{}
	}
	return d
}

// DefaultDenyList covers the Django, allauth and Celery housekeeping tables.
func DefaultDenyList() DenyList {
	return NewDenyList(
		"account_emailaddress",
		"account_emailconfirmation",
		"auth_group",
		"auth_group_permissions",
		"auth_permission",
		"django_admin_log",
		"django_celery_beat_clockedschedule",
		"django_celery_beat_crontabschedule",
		"django_celery_beat_intervalschedule",
		"django_celery_beat_periodictask",
		"django_celery_beat_periodictasks",
		"django_celery_beat_solarschedule",
		"django_celery_results_chordcounter",
		"django_celery_results_groupresult",
		"django_celery_results_taskresult",
		"django_content_type",
		"django_migrations",
		"django_session",
		"django_site",
		"users_user",
		"users_user_groups",
		"users_user_user_permissions",
	)
}

type denyListFile struct {
	Tables []string `yaml:"tables"`
}

// LoadDenyList reads a YAML document of the form `tables: [a, b]`.
func LoadDenyList(path string) (DenyList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DenyList{}, fmt.Errorf("read deny list: %w", err)
	}
	return ParseDenyList(data)
}

func ParseDenyList(data []byte) (DenyList, error) {
	var doc denyListFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return DenyList{}, fmt.Errorf("parse deny list: %w", err)
	}
	return NewDenyList(doc.Tables...), nil
}

func (d DenyList) Contains(name string) bool {
	_, ok := d.names[name]
	return ok
}

func (d DenyList) Len() int {
	return len(d.names)
}

func (d DenyList) Names() []string {
	names := make([]string, 0, len(d.names))
	for name := range d.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter drops denied tables and keeps the order of the rest.
func (d DenyList) Filter(tables []TableSummary) []TableSummary {
	out := make([]TableSummary, 0, len(tables))
	for _, table := range tables {
		if d.Contains(table.TableName) {
			continue
		}
		out = append(out, table)
	}
	return out
}
