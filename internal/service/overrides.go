package service

import (
	"strings"
	"time"
)

// Override statuses written by the restock-confirmation flow.
const (
	// OverrideStatusPartial records that the operator loaded less than
	// required; the shortfall carries over into the next cycle's list.
	OverrideStatusPartial = "partial"
	// OverrideStatusFull records a complete restock; the item stays off the
	// list until the override is replaced or cleared.
	OverrideStatusFull = "full"
)

// LoadingOverride is the operator's last recorded restock action for one
// item. It is written by the restock-confirmation workflow and read-only for
// the calculator.
type LoadingOverride struct {
	Status         string    `json:"status"`
	RequiredAmount float64   `json:"required_amount"`
	LoadedAmount   float64   `json:"loaded_amount"`
	CarryOver      float64   `json:"carry_over"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OverrideKey builds the map key overrides are stored under.
func OverrideKey(machineID, itemName string) string {
	return machineID + "-" + itemName
}

// ApplyOverrides folds recorded restock results into the aggregated totals
// and returns the same map: partial restocks re-add their shortfall
// (creating the entry when the item had no fresh sales this cycle), full
// restocks drop the item entirely. Must run before display-unit conversion.
func ApplyOverrides(totals map[string]Total, overrides map[string]LoadingOverride, machineID string) map[string]Total {
	prefix := machineID + "-"
	for key, ov := range overrides {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if name == "" {
			continue
		}
		switch ov.Status {
		case OverrideStatusPartial:
			shortfall := ov.RequiredAmount - ov.LoadedAmount
			if shortfall <= 0 {
				continue
			}
			t, ok := totals[name]
			if !ok {
				t = Total{UnitCode: carryOverUnitCode(name)}
			}
			t.Amount += shortfall
			totals[name] = t
		case OverrideStatusFull:
			// A completed restock resets the cycle even when fresh sales
			// already accumulated; the item reappears once a new override
			// is written.
			delete(totals, name)
		}
	}
	return totals
}

// carryOverUnitCode picks a unit for an item that had no sales this cycle:
// coffee is weighed in grams, everything else is counted.
func carryOverUnitCode(name string) int {
	if strings.Contains(strings.ToLower(name), "кофе") {
		return UnitCodeGram
	}
	return UnitCodePiece
}
