package service

import (
	"strings"

	"github.com/akluev/vendops/pkg/vendapi"
)

// Total is the running requirement for one canonical item name.
type Total struct {
	Amount   float64
	UnitCode int
}

// Telemetry noise markers: the machine firmware emits a "пр" placeholder row
// for empty slots, and "нет данных" rows with a zero price when a slot
// reported nothing. Neither is a real sale.
const (
	placeholderName = "пр"
	noDataMarker    = "нет данных"
)

// Aggregate walks raw sale records and accumulates required amounts keyed by
// canonical item name. Records with a non-empty ingredient list are composite
// drinks and explode into per-ingredient volumes; everything else counts as a
// discrete product in pieces. Records without a resolvable name are skipped.
func Aggregate(sales []vendapi.SaleRecord) map[string]Total {
	totals := make(map[string]Total, len(sales))
	for _, sale := range sales {
		if len(sale.Planogram.Ingredients) > 0 {
			for _, ing := range sale.Planogram.Ingredients {
				name := NormalizeName(strings.TrimSpace(ing.Name))
				if name == "" {
					continue
				}
				add(totals, name, ing.VolumePerServing*float64(sale.Quantity), ing.UnitCode)
			}
			continue
		}

		name := NormalizeName(strings.TrimSpace(sale.Planogram.Name))
		if name == "" {
			continue
		}
		if strings.EqualFold(name, placeholderName) {
			continue
		}
		if sale.Price.IsZero() && strings.Contains(strings.ToLower(name), noDataMarker) {
			continue
		}
		add(totals, name, float64(sale.Quantity), UnitCodePiece)
	}
	return totals
}

// add accumulates into totals; the first-seen unit code for a name wins.
func add(totals map[string]Total, name string, amount float64, unitCode int) {
	t, ok := totals[name]
	if !ok {
		totals[name] = Total{Amount: amount, UnitCode: unitCode}
		return
	}
	t.Amount += amount
	totals[name] = t
}
