package logging

import (
	"context"
	"strings"

	"go-dblog/internal/models"
	"go-dblog/internal/repositories"
)

// SchemaDiff records the column changes applied by a reconciliation.
type SchemaDiff struct {
	Added   []string
	Removed []string
}

// Empty reports whether the reconciliation changed nothing.
func (d SchemaDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Reconcile makes table match the base schema plus additional. It creates the
// table when missing, drops columns that are neither base nor additional and
// then adds the missing additional columns. Column names compare
// case-insensitively.
//
// The returned field list is always the base fields followed by additional,
// independent of what the diff changed. A failure part way through leaves the
// table partially migrated; nothing is rolled back.
func Reconcile(ctx context.Context, repo repositories.LogRepository, table string, additional []string) ([]string, SchemaDiff, error) {
	var diff SchemaDiff

	if err := repo.EnsureTable(ctx, table); err != nil {
		return nil, diff, err
	}

	actual, err := repo.Columns(ctx, table)
	if err != nil {
		return nil, diff, err
	}

	wanted := make(map[string]struct{}, len(additional)+6)
	for _, f := range models.BaseFields() {
		wanted[strings.ToLower(f)] = struct{}{}
	}
	for _, f := range additional {
		wanted[strings.ToLower(f)] = struct{}{}
	}
	present := make(map[string]struct{}, len(actual))
	for _, c := range actual {
		present[strings.ToLower(c)] = struct{}{}
		if _, ok := wanted[strings.ToLower(c)]; !ok {
			diff.Removed = append(diff.Removed, c)
		}
	}
	for _, f := range additional {
		if _, ok := present[strings.ToLower(f)]; !ok {
			diff.Added = append(diff.Added, f)
		}
	}

	for _, c := range diff.Removed {
		if err := repo.DropColumn(ctx, table, c); err != nil {
			return nil, diff, err
		}
	}
	for _, c := range diff.Added {
		if err := repo.AddColumn(ctx, table, c); err != nil {
			return nil, diff, err
		}
	}

	resolved := append(models.BaseFields(), additional...)
	return resolved, diff, nil
}
