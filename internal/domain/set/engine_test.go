package set

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/drmauij/viali/internal/domain/record"
	"github.com/drmauij/viali/internal/platform/metrics"
)

type mockRepo struct {
	sets       map[uuid.UUID]*Set
	techniques map[uuid.UUID][]*SetTechnique
	meds       map[uuid.UUID][]*SetMedication
	inventory  map[uuid.UUID][]*SetInventory
}

func (m *mockRepo) GetSet(_ context.Context, id uuid.UUID) (*Set, error) {
	s, ok := m.sets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) ListSets(_ context.Context, hospitalID uuid.UUID) ([]*Set, error) {
	var out []*Set
	for _, s := range m.sets {
		if s.HospitalID == hospitalID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepo) ListTechniques(_ context.Context, setID uuid.UUID) ([]*SetTechnique, error) {
	return m.techniques[setID], nil
}

func (m *mockRepo) ListMedications(_ context.Context, setID uuid.UUID) ([]*SetMedication, error) {
	return m.meds[setID], nil
}

func (m *mockRepo) ListInventory(_ context.Context, setID uuid.UUID) ([]*SetInventory, error) {
	return m.inventory[setID], nil
}

type mockRecords struct {
	hospitals  map[uuid.UUID]uuid.UUID
	meds       map[uuid.UUID]*record.MedicationConfig
	links      map[string]*record.RecordMedication
	events     []*record.MedicationEvent
	techniques []*record.TechniqueEntry
}

func (m *mockRecords) ResolveHospital(_ context.Context, recordID uuid.UUID) (uuid.UUID, error) {
	h, ok := m.hospitals[recordID]
	if !ok {
		return uuid.Nil, record.ErrNotFound
	}
	return h, nil
}

func (m *mockRecords) GetMedicationConfig(_ context.Context, id uuid.UUID) (*record.MedicationConfig, error) {
	cfg, ok := m.meds[id]
	if !ok {
		return nil, record.ErrNotFound
	}
	return cfg, nil
}

func (m *mockRecords) EnsureMedicationLink(_ context.Context, recordID, medicationID uuid.UUID) (*record.RecordMedication, bool, error) {
	key := recordID.String() + "/" + medicationID.String()
	if link, ok := m.links[key]; ok {
		return link, false, nil
	}
	link := &record.RecordMedication{ID: uuid.New(), RecordID: recordID, MedicationID: medicationID}
	m.links[key] = link
	return link, true, nil
}

func (m *mockRecords) AddEvent(_ context.Context, e *record.MedicationEvent) error {
	e.ID = uuid.New()
	m.events = append(m.events, e)
	return nil
}

func (m *mockRecords) CreateTechnique(_ context.Context, t *record.TechniqueEntry) error {
	t.ID = uuid.New()
	m.techniques = append(m.techniques, t)
	return nil
}

type mockSeeder struct {
	seeded map[string]decimal.Decimal
	fail   map[uuid.UUID]bool
}

func (m *mockSeeder) SeedUsage(_ context.Context, recordID, itemID uuid.UUID, qty decimal.Decimal) (bool, error) {
	if m.fail[itemID] {
		return false, errors.New("storage down")
	}
	key := recordID.String() + "/" + itemID.String()
	if _, ok := m.seeded[key]; ok {
		return false, nil
	}
	m.seeded[key] = qty
	return true, nil
}

type allowGate struct{ denied bool }

func (g allowGate) HasHospitalAccess(context.Context, string, uuid.UUID) (bool, error) {
	return !g.denied, nil
}

func (g allowGate) HasUnitRole(context.Context, string, uuid.UUID) (bool, error) {
	return !g.denied, nil
}

type nopAudit struct{ entries int }

func (a *nopAudit) Append(context.Context, string, uuid.UUID, string, string, interface{}, interface{}) error {
	a.entries++
	return nil
}

type engineFixture struct {
	engine  *Engine
	repo    *mockRepo
	records *mockRecords
	seeder  *mockSeeder
	audit   *nopAudit

	hospitalID uuid.UUID
	recordID   uuid.UUID
	set        *Set
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		hospitalID: uuid.New(),
		recordID:   uuid.New(),
		audit:      &nopAudit{},
	}
	f.set = &Set{ID: uuid.New(), HospitalID: f.hospitalID, Name: "Spinal"}
	f.repo = &mockRepo{
		sets:       map[uuid.UUID]*Set{f.set.ID: f.set},
		techniques: map[uuid.UUID][]*SetTechnique{},
		meds:       map[uuid.UUID][]*SetMedication{},
		inventory:  map[uuid.UUID][]*SetInventory{},
	}
	f.records = &mockRecords{
		hospitals: map[uuid.UUID]uuid.UUID{f.recordID: f.hospitalID},
		meds:      map[uuid.UUID]*record.MedicationConfig{},
		links:     map[string]*record.RecordMedication{},
	}
	f.seeder = &mockSeeder{seeded: map[string]decimal.Decimal{}, fail: map[uuid.UUID]bool{}}
	f.engine = NewEngine(f.repo, f.records, f.seeder, allowGate{}, f.audit, metrics.New(), zerolog.Nop())
	return f
}

func TestApply_FullSet(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.repo.techniques[f.set.ID] = []*SetTechnique{
		{Kind: KindNeuraxialBlock, Config: json.RawMessage(`{"technique":"spinal","level":"L3/L4"}`)},
	}
	bupi := uuid.New()
	f.records.meds[bupi] = &record.MedicationConfig{
		ID: bupi, Name: "Bupivacaine 0.5%", DefaultDose: decimal.NewFromInt(15), DoseUnit: "mg",
	}
	f.repo.meds[f.set.ID] = []*SetMedication{{MedicationID: bupi}}
	spinalSet := uuid.New()
	f.repo.inventory[f.set.ID] = []*SetInventory{{ItemID: spinalSet, Quantity: decimal.NewFromInt(1)}}

	res, err := f.engine.Apply(ctx, "user-1", f.set.ID, f.recordID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.TechniquesAdded != 1 || res.MedicationsLinked != 1 || res.EventsAdded != 1 || res.UsageSeeded != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Failed != 0 || res.Skipped != 0 {
		t.Errorf("unexpected failures: %+v", res)
	}
	if len(f.records.events) != 1 || !f.records.events[0].Dose.Equal(decimal.NewFromInt(15)) {
		t.Errorf("dose event wrong: %+v", f.records.events)
	}
	if f.audit.entries != 1 {
		t.Errorf("audit entries = %d, want 1", f.audit.entries)
	}
}

func TestApply_CustomDoseAndInfusion(t *testing.T) {
	f := newEngineFixture(t)

	remi := uuid.New()
	f.records.meds[remi] = &record.MedicationConfig{
		ID: remi, Name: "Remifentanil", RateUnit: "mcg/kg/min", DefaultDose: decimal.NewFromFloat(0.1),
	}
	custom := decimal.NewFromFloat(0.25)
	f.repo.meds[f.set.ID] = []*SetMedication{{MedicationID: remi, CustomDose: &custom}}

	if _, err := f.engine.Apply(context.Background(), "user-1", f.set.ID, f.recordID); err != nil {
		t.Fatalf("apply: %v", err)
	}
	e := f.records.events[0]
	if e.Kind != record.EventInfusionStart {
		t.Errorf("kind = %s, want infusion_start", e.Kind)
	}
	if !e.Dose.Equal(custom) {
		t.Errorf("dose = %s, want custom 0.25", e.Dose)
	}
}

func TestApply_ReapplyIdempotency(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	med := uuid.New()
	f.records.meds[med] = &record.MedicationConfig{ID: med, DefaultDose: decimal.NewFromInt(2)}
	f.repo.meds[f.set.ID] = []*SetMedication{{MedicationID: med}}
	item := uuid.New()
	f.repo.inventory[f.set.ID] = []*SetInventory{{ItemID: item, Quantity: decimal.NewFromInt(1)}}

	first, err := f.engine.Apply(ctx, "user-1", f.set.ID, f.recordID)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	second, err := f.engine.Apply(ctx, "user-1", f.set.ID, f.recordID)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	// The link and the usage row exist once; each apply documents a new dose.
	if first.MedicationsLinked != 1 || second.MedicationsLinked != 0 {
		t.Errorf("links = %d then %d, want 1 then 0", first.MedicationsLinked, second.MedicationsLinked)
	}
	if first.UsageSeeded != 1 || second.UsageSeeded != 0 {
		t.Errorf("seeded = %d then %d, want 1 then 0", first.UsageSeeded, second.UsageSeeded)
	}
	if len(f.records.events) != 2 {
		t.Errorf("events = %d, want 2", len(f.records.events))
	}
}

func TestApply_UnknownTechniqueSkipped(t *testing.T) {
	f := newEngineFixture(t)

	f.repo.techniques[f.set.ID] = []*SetTechnique{
		{Kind: "ecmo_cannulation", Config: json.RawMessage(`{"site":"femoral"}`)},
		{Kind: KindAirway, Config: json.RawMessage(`{"device":"LMA","size":"4"}`)},
	}

	res, err := f.engine.Apply(context.Background(), "user-1", f.set.ID, f.recordID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Skipped != 1 || res.TechniquesAdded != 1 {
		t.Errorf("result = %+v, want 1 skipped 1 added", res)
	}
}

func TestApply_EntryFailureDoesNotAbort(t *testing.T) {
	f := newEngineFixture(t)

	broken := uuid.New()
	fine := uuid.New()
	f.seeder.fail[broken] = true
	f.repo.inventory[f.set.ID] = []*SetInventory{
		{ItemID: broken, Quantity: decimal.NewFromInt(1)},
		{ItemID: fine, Quantity: decimal.NewFromInt(2)},
	}

	res, err := f.engine.Apply(context.Background(), "user-1", f.set.ID, f.recordID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Failed != 1 || res.UsageSeeded != 1 {
		t.Errorf("result = %+v, want 1 failed 1 seeded", res)
	}
}

func TestApply_ScopeChecks(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	if _, err := f.engine.Apply(ctx, "user-1", uuid.New(), f.recordID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing set: err = %v, want ErrNotFound", err)
	}
	if _, err := f.engine.Apply(ctx, "user-1", f.set.ID, uuid.New()); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("missing record: err = %v, want ErrRecordNotFound", err)
	}

	foreign := uuid.New()
	f.records.hospitals[foreign] = uuid.New()
	if _, err := f.engine.Apply(ctx, "user-1", f.set.ID, foreign); !errors.Is(err, ErrHospitalMismatch) {
		t.Errorf("cross-hospital: err = %v, want ErrHospitalMismatch", err)
	}

	denied := NewEngine(f.repo, f.records, f.seeder, allowGate{denied: true}, f.audit, metrics.New(), zerolog.Nop())
	if _, err := denied.Apply(ctx, "user-1", f.set.ID, f.recordID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("denied: err = %v, want ErrAccessDenied", err)
	}
}

func TestGetSet_ScopeChecks(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	s, err := f.engine.GetSet(ctx, "user-1", f.set.ID)
	if err != nil || s.ID != f.set.ID {
		t.Fatalf("get set: %v", err)
	}

	if _, err := f.engine.GetSet(ctx, "user-1", uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing set: err = %v, want ErrNotFound", err)
	}

	denied := NewEngine(f.repo, f.records, f.seeder, allowGate{denied: true}, f.audit, metrics.New(), zerolog.Nop())
	if _, err := denied.GetSet(ctx, "user-1", f.set.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("denied: err = %v, want ErrAccessDenied", err)
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(KindCentralLine, json.RawMessage(`{"site":"right IJ","lumens":3}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cl, ok := cfg.(*CentralLineConfig)
	if !ok || cl.Lumens != 3 {
		t.Errorf("config = %#v", cfg)
	}

	cfg, err = ParseConfig("something_new", json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("unknown kind must not error: %v", err)
	}
	if _, ok := cfg.(UnknownConfig); !ok {
		t.Errorf("config = %#v, want UnknownConfig", cfg)
	}

	if _, err := ParseConfig(KindAirway, json.RawMessage(`{`)); err == nil {
		t.Error("malformed json should error")
	}
}
