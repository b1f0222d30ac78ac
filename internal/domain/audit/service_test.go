package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	entries []*Entry
}

func (m *mockRepo) Create(_ context.Context, e *Entry) error {
	e.ID = uuid.New()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) ListByRecord(_ context.Context, recordType string, recordID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	var out []*Entry
	for _, e := range m.entries {
		if e.RecordType == recordType && e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func TestAppend_MarshalsValues(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	id := uuid.New()

	old := map[string]int{"quantity": 1}
	next := map[string]int{"quantity": 5}
	if err := svc.Append(context.Background(), TypeUsage, id, "override_set", "user-1", old, next); err != nil {
		t.Fatalf("append: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	var decoded map[string]int
	if err := json.Unmarshal(e.NewValue, &decoded); err != nil || decoded["quantity"] != 5 {
		t.Errorf("new value not marshalled: %s (err %v)", e.NewValue, err)
	}
	if e.OldValue == nil {
		t.Error("old value missing")
	}
}

func TestAppend_NilValuesStayNull(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	if err := svc.Append(context.Background(), TypeCommit, uuid.New(), "commit", "user-1", nil, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	e := repo.entries[0]
	if e.OldValue != nil || e.NewValue != nil {
		t.Errorf("nil values should stay nil, got old=%s new=%s", e.OldValue, e.NewValue)
	}
}

func TestQuery_RejectsUnknownType(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, _, err := svc.Query(context.Background(), "patients", uuid.New(), 20, 0)
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}

func TestQuery_ChronologicalPerRecord(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	id := uuid.New()

	for _, action := range []string{"commit", "rollback"} {
		if err := svc.Append(context.Background(), TypeCommit, id, action, "user-1", nil, nil); err != nil {
			t.Fatalf("append %s: %v", action, err)
		}
	}
	if err := svc.Append(context.Background(), TypeCommit, uuid.New(), "commit", "user-2", nil, nil); err != nil {
		t.Fatalf("append other: %v", err)
	}

	entries, total, err := svc.Query(context.Background(), TypeCommit, id, 20, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d (total %d)", len(entries), total)
	}
	if entries[0].Action != "commit" || entries[1].Action != "rollback" {
		t.Errorf("order wrong: %s, %s", entries[0].Action, entries[1].Action)
	}
}
