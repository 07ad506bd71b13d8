package service

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/akluev/vendops/pkg/vendapi"
)

// ShoppingListItem is one line of the restock list shown to the operator.
// Recomputed on every call, never persisted.
type ShoppingListItem struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// CalculateShoppingList derives the restock list for one machine from its
// raw sales, the recorded restock overrides and an optional planogram
// ordering. Pure and side-effect free: identical inputs always yield the
// identical list, and malformed records are skipped rather than failing the
// whole computation.
func CalculateShoppingList(
	sales []vendapi.SaleRecord,
	sortMode string,
	overrides map[string]LoadingOverride,
	machineID string,
	planogram []string,
	machineModel string,
) []ShoppingListItem {
	totals := Aggregate(sales)
	totals = ApplyOverrides(totals, overrides, machineID)

	items := make([]ShoppingListItem, 0, len(totals))
	for name, total := range totals {
		if isPlaceholderName(name) {
			continue
		}
		unit, amount := DisplayUnit(total.UnitCode, total.Amount)
		// Always round up: a fractional unit must never under-report
		// what the operator has to buy.
		n := int(math.Ceil(amount))
		if n <= 0 {
			continue
		}
		items = append(items, ShoppingListItem{Name: name, Amount: n, Unit: unit})
	}
	return SortShoppingList(items, sortMode, planogram, machineModel)
}

// isPlaceholderName filters slot placeholders that survive aggregation when
// upstream data is malformed.
func isPlaceholderName(name string) bool {
	return utf8.RuneCountInString(name) <= 1 || strings.EqualFold(name, placeholderName)
}

// FormatShoppingList renders the list as the flat text file operators print
// and take to the wholesaler, one "{index}. {name}: {amount} {unit}" line
// per item.
func FormatShoppingList(items []ShoppingListItem) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s: %d %s\n", i+1, it.Name, it.Amount, it.Unit)
	}
	return b.String()
}
