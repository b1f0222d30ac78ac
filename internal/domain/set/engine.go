package set

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/drmauij/viali/internal/domain/record"
	"github.com/drmauij/viali/internal/platform/auth"
	"github.com/drmauij/viali/internal/platform/metrics"
)

var (
	ErrRecordNotFound = errors.New("set: record not found")
	ErrAccessDenied   = errors.New("set: no access to hospital")
	// ErrHospitalMismatch is returned when a set from one hospital is applied
	// to a record scoped to another.
	ErrHospitalMismatch = errors.New("set: set and record belong to different hospitals")
)

// RecordSource is the slice of the record service the engine writes through.
type RecordSource interface {
	ResolveHospital(ctx context.Context, recordID uuid.UUID) (uuid.UUID, error)
	GetMedicationConfig(ctx context.Context, id uuid.UUID) (*record.MedicationConfig, error)
	EnsureMedicationLink(ctx context.Context, recordID, medicationID uuid.UUID) (*record.RecordMedication, bool, error)
	AddEvent(ctx context.Context, e *record.MedicationEvent) error
	CreateTechnique(ctx context.Context, t *record.TechniqueEntry) error
}

// UsageSeeder seeds the usage ledger; an existing (record, item) row is left
// untouched.
type UsageSeeder interface {
	SeedUsage(ctx context.Context, recordID, itemID uuid.UUID, qty decimal.Decimal) (bool, error)
}

// AuditRecorder appends to the append-only audit trail.
type AuditRecorder interface {
	Append(ctx context.Context, recordType string, recordID uuid.UUID, action, userID string, oldValue, newValue interface{}) error
}

// ApplyResult reports what one application actually did. Entries that fail
// or are skipped do not abort the rest of the set.
type ApplyResult struct {
	SetID    uuid.UUID `json:"set_id"`
	RecordID uuid.UUID `json:"record_id"`

	TechniquesAdded   int `json:"techniques_added"`
	MedicationsLinked int `json:"medications_linked"`
	EventsAdded       int `json:"events_added"`
	UsageSeeded       int `json:"usage_seeded"`
	Skipped           int `json:"skipped"`
	Failed            int `json:"failed"`
}

// Engine applies set templates onto anesthesia records.
type Engine struct {
	repo    Repository
	records RecordSource
	usage   UsageSeeder
	gate    auth.Gate
	audit   AuditRecorder
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewEngine(repo Repository, records RecordSource, usage UsageSeeder,
	gate auth.Gate, audit AuditRecorder, m *metrics.Metrics, log zerolog.Logger) *Engine {
	return &Engine{
		repo:    repo,
		records: records,
		usage:   usage,
		gate:    gate,
		audit:   audit,
		metrics: m,
		log:     log.With().Str("component", "set").Logger(),
	}
}

func (e *Engine) GetSet(ctx context.Context, userID string, id uuid.UUID) (*Set, error) {
	s, err := e.repo.GetSet(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := e.gate.HasHospitalAccess(ctx, userID, s.HospitalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}
	return s, nil
}

func (e *Engine) ListSets(ctx context.Context, userID string, hospitalID uuid.UUID) ([]*Set, error) {
	ok, err := e.gate.HasHospitalAccess(ctx, userID, hospitalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}
	return e.repo.ListSets(ctx, hospitalID)
}

// Apply writes a set's techniques, medications and consumables onto a record.
// Re-applying is safe: medication links and usage rows are created at most
// once, while technique entries and dose events document each application.
// A bad entry is logged and counted, never fatal for its siblings.
func (e *Engine) Apply(ctx context.Context, userID string, setID, recordID uuid.UUID) (*ApplyResult, error) {
	s, err := e.repo.GetSet(ctx, setID)
	if err != nil {
		return nil, err
	}

	hospitalID, err := e.records.ResolveHospital(ctx, recordID)
	if errors.Is(err, record.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if hospitalID != s.HospitalID {
		return nil, ErrHospitalMismatch
	}
	ok, err := e.gate.HasHospitalAccess(ctx, userID, hospitalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}

	res := &ApplyResult{SetID: setID, RecordID: recordID}
	log := e.log.With().Str("set_id", setID.String()).Str("record_id", recordID.String()).Logger()

	techniques, err := e.repo.ListTechniques(ctx, setID)
	if err != nil {
		return nil, err
	}
	for _, t := range techniques {
		cfg, err := ParseConfig(t.Kind, t.Config)
		if err != nil {
			log.Warn().Err(err).Str("kind", t.Kind).Msg("technique config malformed, skipping")
			res.Failed++
			continue
		}
		if _, unknown := cfg.(UnknownConfig); unknown {
			log.Warn().Str("kind", t.Kind).Msg("unknown technique kind, skipping")
			res.Skipped++
			continue
		}
		entry := &record.TechniqueEntry{RecordID: recordID, Kind: t.Kind, Config: t.Config}
		if err := e.records.CreateTechnique(ctx, entry); err != nil {
			log.Error().Err(err).Str("kind", t.Kind).Msg("technique entry failed")
			res.Failed++
			continue
		}
		res.TechniquesAdded++
	}

	medications, err := e.repo.ListMedications(ctx, setID)
	if err != nil {
		return nil, err
	}
	for _, m := range medications {
		cfg, err := e.records.GetMedicationConfig(ctx, m.MedicationID)
		if err != nil {
			log.Warn().Err(err).Str("medication_id", m.MedicationID.String()).Msg("medication lookup failed, skipping")
			res.Failed++
			continue
		}

		link, created, err := e.records.EnsureMedicationLink(ctx, recordID, m.MedicationID)
		if err != nil {
			log.Error().Err(err).Str("medication_id", m.MedicationID.String()).Msg("medication link failed")
			res.Failed++
			continue
		}
		if created {
			res.MedicationsLinked++
		}

		dose := cfg.DefaultDose
		if m.CustomDose != nil {
			dose = *m.CustomDose
		}
		kind := record.EventBolus
		if cfg.IsInfusion() {
			kind = record.EventInfusionStart
		}
		event := &record.MedicationEvent{
			RecordID:           recordID,
			RecordMedicationID: link.ID,
			Kind:               kind,
			Dose:               dose,
			OccurredAt:         time.Now().UTC(),
		}
		if err := e.records.AddEvent(ctx, event); err != nil {
			log.Error().Err(err).Str("medication_id", m.MedicationID.String()).Msg("dose event failed")
			res.Failed++
			continue
		}
		res.EventsAdded++
	}

	inventory, err := e.repo.ListInventory(ctx, setID)
	if err != nil {
		return nil, err
	}
	for _, i := range inventory {
		created, err := e.usage.SeedUsage(ctx, recordID, i.ItemID, i.Quantity)
		if err != nil {
			log.Error().Err(err).Str("item_id", i.ItemID.String()).Msg("usage seed failed")
			res.Failed++
			continue
		}
		if created {
			res.UsageSeeded++
		} else {
			res.Skipped++
		}
	}

	if err := e.audit.Append(ctx, "set_template", setID, "apply", userID, nil, res); err != nil {
		return nil, err
	}
	e.metrics.SetApplications.Inc()
	return res, nil
}
