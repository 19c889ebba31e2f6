package logging

import (
	"context"
	"strings"
	"sync"

	"go-dblog/internal/models"
)

// fakeRepo is an in-memory LogRepository that records every call.
type fakeRepo struct {
	mu      sync.Mutex
	exists  bool
	columns []string
	rows    []models.Row

	ensureCalls  int
	columnsCalls int
	added        []string
	dropped      []string

	failEnsure  error
	failColumns error
	failAdd     error
	failInsert  error
}

func newFakeRepo(existing ...string) *fakeRepo {
	r := &fakeRepo{}
	if len(existing) > 0 {
		r.exists = true
		r.columns = append(r.columns, existing...)
	}
	return r
}

func (r *fakeRepo) EnsureTable(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureCalls++
	if r.failEnsure != nil {
		return r.failEnsure
	}
	if !r.exists {
		r.exists = true
		r.columns = models.BaseFields()
	}
	return nil
}

func (r *fakeRepo) Columns(_ context.Context, _ string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.columnsCalls++
	if r.failColumns != nil {
		return nil, r.failColumns
	}
	return append([]string(nil), r.columns...), nil
}

func (r *fakeRepo) AddColumn(_ context.Context, _ string, column string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdd != nil {
		return r.failAdd
	}
	r.added = append(r.added, column)
	r.columns = append(r.columns, column)
	return nil
}

func (r *fakeRepo) DropColumn(_ context.Context, _ string, column string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped = append(r.dropped, column)
	kept := r.columns[:0]
	for _, c := range r.columns {
		if !strings.EqualFold(c, column) {
			kept = append(kept, c)
		}
	}
	r.columns = kept
	return nil
}

func (r *fakeRepo) Insert(_ context.Context, _ string, row models.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert != nil {
		return r.failInsert
	}
	r.rows = append(r.rows, row)
	return nil
}
