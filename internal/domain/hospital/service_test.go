package hospital

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	hospitals map[uuid.UUID]*Hospital
	units     map[uuid.UUID]*Unit
	items     map[uuid.UUID]*Item
	grants    []*StaffGrant
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		hospitals: make(map[uuid.UUID]*Hospital),
		units:     make(map[uuid.UUID]*Unit),
		items:     make(map[uuid.UUID]*Item),
	}
}

func (m *mockRepo) GetHospital(_ context.Context, id uuid.UUID) (*Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return h, nil
}

func (m *mockRepo) GetUnit(_ context.Context, id uuid.UUID) (*Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) ListUnits(_ context.Context, hospitalID uuid.UUID) ([]*Unit, error) {
	var units []*Unit
	for _, u := range m.units {
		if u.HospitalID == hospitalID {
			units = append(units, u)
		}
	}
	return units, nil
}

func (m *mockRepo) ListUnitsByModule(_ context.Context, hospitalID uuid.UUID, moduleType string) ([]*Unit, error) {
	var units []*Unit
	for _, u := range m.units {
		if u.HospitalID == hospitalID && u.ModuleType == moduleType {
			units = append(units, u)
		}
	}
	return units, nil
}

func (m *mockRepo) GetItem(_ context.Context, id uuid.UUID) (*Item, error) {
	i, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return i, nil
}

func (m *mockRepo) ListItems(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Item, int, error) {
	var items []*Item
	for _, i := range m.items {
		if i.HospitalID == hospitalID {
			items = append(items, i)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) ListGrants(_ context.Context, userID string, hospitalID uuid.UUID) ([]*StaffGrant, error) {
	var grants []*StaffGrant
	for _, g := range m.grants {
		if g.UserID == userID && g.HospitalID == hospitalID {
			grants = append(grants, g)
		}
	}
	return grants, nil
}

func (m *mockRepo) ListGrantsForUnit(_ context.Context, userID string, unitID uuid.UUID) ([]*StaffGrant, error) {
	unit, ok := m.units[unitID]
	var grants []*StaffGrant
	for _, g := range m.grants {
		if g.UserID != userID {
			continue
		}
		if g.UnitID != nil && *g.UnitID == unitID {
			grants = append(grants, g)
			continue
		}
		if g.UnitID == nil && ok && g.HospitalID == unit.HospitalID {
			grants = append(grants, g)
		}
	}
	return grants, nil
}

func addUnit(repo *mockRepo, hospitalID uuid.UUID, moduleType string) *Unit {
	u := &Unit{ID: uuid.New(), HospitalID: hospitalID, Name: moduleType + "-unit", ModuleType: moduleType}
	repo.units[u.ID] = u
	return u
}

func TestResolveModuleUnit(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	hospitalID := uuid.New()

	// No unit configured
	if _, err := svc.ResolveModuleUnit(context.Background(), hospitalID, ModuleAnesthesia); !errors.Is(err, ErrModuleNotConfigured) {
		t.Errorf("expected ErrModuleNotConfigured for zero units, got %v", err)
	}

	anesthesia := addUnit(repo, hospitalID, ModuleAnesthesia)
	addUnit(repo, hospitalID, ModuleOR)

	unit, err := svc.ResolveModuleUnit(context.Background(), hospitalID, ModuleAnesthesia)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unit.ID != anesthesia.ID {
		t.Errorf("resolved wrong unit")
	}

	// Ambiguous configuration
	addUnit(repo, hospitalID, ModuleAnesthesia)
	if _, err := svc.ResolveModuleUnit(context.Background(), hospitalID, ModuleAnesthesia); !errors.Is(err, ErrModuleNotConfigured) {
		t.Errorf("expected ErrModuleNotConfigured for two units, got %v", err)
	}

	// Unknown module type
	if _, err := svc.ResolveModuleUnit(context.Background(), hospitalID, "icu"); !errors.Is(err, ErrModuleNotConfigured) {
		t.Errorf("expected ErrModuleNotConfigured for unknown module, got %v", err)
	}
}

func TestGate_HospitalAndUnitScopes(t *testing.T) {
	repo := newMockRepo()
	gate := NewGate(repo)
	hospitalID := uuid.New()
	anesthesia := addUnit(repo, hospitalID, ModuleAnesthesia)
	or := addUnit(repo, hospitalID, ModuleOR)

	// Grant scoped to the OR unit only.
	repo.grants = append(repo.grants, &StaffGrant{
		ID: uuid.New(), UserID: "u1", HospitalID: hospitalID, UnitID: &or.ID, Role: "nurse",
	})

	ok, err := gate.HasHospitalAccess(context.Background(), "u1", hospitalID)
	if err != nil || !ok {
		t.Errorf("unit grant should imply hospital access: ok=%v err=%v", ok, err)
	}

	ok, _ = gate.HasUnitRole(context.Background(), "u1", or.ID)
	if !ok {
		t.Error("expected access to the granted unit")
	}

	ok, _ = gate.HasUnitRole(context.Background(), "u1", anesthesia.ID)
	if ok {
		t.Error("unit-scoped grant must not leak into other units")
	}

	// Hospital-wide grant covers every unit.
	repo.grants = append(repo.grants, &StaffGrant{
		ID: uuid.New(), UserID: "u2", HospitalID: hospitalID, Role: "doctor",
	})
	ok, _ = gate.HasUnitRole(context.Background(), "u2", anesthesia.ID)
	if !ok {
		t.Error("hospital-wide grant should cover all units")
	}

	ok, _ = gate.HasHospitalAccess(context.Background(), "stranger", hospitalID)
	if ok {
		t.Error("user without grants must have no access")
	}
}
