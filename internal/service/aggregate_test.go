package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/akluev/vendops/pkg/vendapi"
)

func coffeeSale(qty int) vendapi.SaleRecord {
	return vendapi.SaleRecord{
		Planogram: vendapi.Planogram{
			Name: "Капучино",
			Ingredients: []vendapi.Ingredient{
				{Name: "Кофе зерновой", UnitCode: UnitCodeGram, VolumePerServing: 7},
				{Name: "Молоко сухое", UnitCode: UnitCodeGram, VolumePerServing: 50},
				{Name: "Вода", UnitCode: UnitCodeMilliliter, VolumePerServing: 180},
			},
		},
		Quantity: qty,
		Price:    decimal.NewFromInt(120),
	}
}

func TestAggregate_IngredientExplosion(t *testing.T) {
	t.Parallel()
	totals := Aggregate([]vendapi.SaleRecord{coffeeSale(3)})

	coffee := totals["Кофе зерновой"]
	if coffee.Amount != 21 || coffee.UnitCode != UnitCodeGram {
		t.Fatalf("expected 21 g coffee, got %+v", coffee)
	}
	milk := totals["Молоко сухое"]
	if milk.Amount != 150 || milk.UnitCode != UnitCodeGram {
		t.Fatalf("expected 150 g milk, got %+v", milk)
	}
	water := totals["Вода"]
	if water.Amount != 540 || water.UnitCode != UnitCodeMilliliter {
		t.Fatalf("expected 540 ml water, got %+v", water)
	}
	// the drink itself never appears, only its ingredients
	if _, ok := totals["Капучино"]; ok {
		t.Fatalf("composite drink must not aggregate as a discrete product")
	}
}

func TestAggregate_DiscreteProductCountsPieces(t *testing.T) {
	t.Parallel()
	sales := []vendapi.SaleRecord{
		{Planogram: vendapi.Planogram{Name: "Вода минеральная 0.5"}, Quantity: 7, Price: decimal.NewFromInt(50)},
		{Planogram: vendapi.Planogram{Name: "Вода минеральная 0.5"}, Quantity: 5, Price: decimal.NewFromInt(50)},
	}
	totals := Aggregate(sales)
	got := totals["Вода минеральная 0.5"]
	if got.Amount != 12 || got.UnitCode != UnitCodePiece {
		t.Fatalf("expected 12 pieces, got %+v", got)
	}
}

func TestAggregate_AliasesCollapseAcrossRecords(t *testing.T) {
	t.Parallel()
	sales := []vendapi.SaleRecord{
		{Planogram: vendapi.Planogram{Name: "Круассан Яшкино с шоколадом"}, Quantity: 2, Price: decimal.NewFromInt(80)},
		{Planogram: vendapi.Planogram{Name: "Круассан «Яшкино» сгущёнка"}, Quantity: 3, Price: decimal.NewFromInt(80)},
	}
	totals := Aggregate(sales)
	if len(totals) != 1 {
		t.Fatalf("expected one aggregated entry, got %d: %v", len(totals), totals)
	}
	got := totals["Круассан «Яшкино»"]
	if got.Amount != 5 {
		t.Fatalf("expected 5 pieces, got %+v", got)
	}
}

func TestAggregate_SkipsNoiseRecords(t *testing.T) {
	t.Parallel()
	sales := []vendapi.SaleRecord{
		{Planogram: vendapi.Planogram{Name: ""}, Quantity: 2, Price: decimal.NewFromInt(50)},
		{Planogram: vendapi.Planogram{Name: "пр"}, Quantity: 4, Price: decimal.NewFromInt(50)},
		{Planogram: vendapi.Planogram{Name: "ПР"}, Quantity: 1, Price: decimal.NewFromInt(50)},
		{Planogram: vendapi.Planogram{Name: "нет данных"}, Quantity: 3},
		{Planogram: vendapi.Planogram{Name: "Сок"}, Quantity: 1, Price: decimal.NewFromInt(90)},
	}
	totals := Aggregate(sales)
	if len(totals) != 1 {
		t.Fatalf("expected only the real sale to survive, got %v", totals)
	}
	if totals["Сок"].Amount != 1 {
		t.Fatalf("expected 1 juice, got %+v", totals["Сок"])
	}
}

func TestAggregate_NoDataWithPriceIsKept(t *testing.T) {
	t.Parallel()
	// a priced row is a real sale even when the name contains the marker
	sales := []vendapi.SaleRecord{
		{Planogram: vendapi.Planogram{Name: "нет данных"}, Quantity: 2, Price: decimal.NewFromInt(10)},
	}
	totals := Aggregate(sales)
	if totals["нет данных"].Amount != 2 {
		t.Fatalf("expected priced no-data row to count, got %v", totals)
	}
}

func TestAggregate_FirstSeenUnitCodeWins(t *testing.T) {
	t.Parallel()
	sales := []vendapi.SaleRecord{
		{Planogram: vendapi.Planogram{
			Ingredients: []vendapi.Ingredient{{Name: "Сироп", UnitCode: UnitCodeMilliliter, VolumePerServing: 20}},
		}, Quantity: 1},
		{Planogram: vendapi.Planogram{
			Ingredients: []vendapi.Ingredient{{Name: "Сироп", UnitCode: UnitCodeGram, VolumePerServing: 20}},
		}, Quantity: 1},
	}
	totals := Aggregate(sales)
	got := totals["Сироп"]
	if got.UnitCode != UnitCodeMilliliter || got.Amount != 40 {
		t.Fatalf("expected 40 with first unit code, got %+v", got)
	}
}
