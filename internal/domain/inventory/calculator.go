package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drmauij/viali/internal/domain/record"
)

// Calculator derives per-item pack consumption from the administrations
// documented on an anesthesia record. Each bolus and each infusion start
// consumes one pack worth of the linked item; infusion stops only end a
// running infusion and consume nothing.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate returns the total packs consumed per item. Quantities are
// item-level sums, so re-running on the same administrations yields the
// same totals.
func (c *Calculator) Calculate(admins []*record.Administration) map[uuid.UUID]decimal.Decimal {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, a := range admins {
		if a.Kind == record.EventInfusionStop {
			continue
		}
		totals[a.ItemID] = totals[a.ItemID].Add(a.PackSize)
	}
	return totals
}
