package service

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort modes accepted by CalculateShoppingList.
const (
	SortGrouped      = "grouped"
	SortAlphabetical = "alphabetical"
)

// newCollator builds a Russian-locale collator so Cyrillic names don't sort
// in code-point order. One per call: collators are not safe to share.
func newCollator() *collate.Collator {
	return collate.New(language.Russian)
}

// findBestMatch returns the planogram position for an item name: exact match
// on normalized text first, then mutual substring containment, first hit in
// planogram order. Returns -1 when nothing matches.
func findBestMatch(name string, planogram []string) int {
	n := normalizeForMatch(name)
	if n == "" {
		return -1
	}
	for i, label := range planogram {
		if normalizeForMatch(label) == n {
			return i
		}
	}
	for i, label := range planogram {
		l := normalizeForMatch(label)
		if l == "" {
			continue
		}
		if strings.Contains(n, l) || strings.Contains(l, n) {
			return i
		}
	}
	return -1
}

// rossoFamilyMarker flags the machine family with its own loading order;
// matched case-insensitively against the machine model name.
const rossoFamilyMarker = "rosso"

type familyCategory int

const (
	categoryIngredient familyCategory = iota
	categoryDiscrete
)

// familyEntry tags one name pattern of a machine family's consumable table.
type familyEntry struct {
	pattern  string
	category familyCategory
}

// rossoTable is the canonical Rosso loading order. Ingredient entries are
// listed in the order the operator fills the canisters. Discrete entries pin
// flavored snacks and bottled water into the snack bucket so a substring hit
// against an ingredient name can't pull them in.
var rossoTable = []familyEntry{
	{"Кофе зерновой", categoryIngredient},
	{"Молоко сухое", categoryIngredient},
	{"Какао", categoryIngredient},
	{"Горячий шоколад", categoryIngredient},
	{"Сахар", categoryIngredient},
	{"Стаканы", categoryIngredient},
	{"Размешиватели", categoryIngredient},
	{"Чай чёрный", categoryIngredient},

	{"со вкусом", categoryDiscrete},   // flavored chocolate / tea snacks
	{"минеральная", categoryDiscrete}, // bottled water
}

// isFamilyModel reports whether the machine model gets the family-specific
// sort path.
func isFamilyModel(model string) bool {
	return model != "" && strings.Contains(strings.ToLower(model), rossoFamilyMarker)
}

// familyIngredientIndex classifies an item against the family table: the
// position of the matching ingredient entry, or -1 for the discrete bucket.
// Discrete-tagged patterns win over any ingredient match.
func familyIngredientIndex(name string) int {
	n := normalizeForMatch(name)
	if n == "" {
		return -1
	}
	for _, e := range rossoTable {
		if e.category != categoryDiscrete {
			continue
		}
		if strings.Contains(n, normalizeForMatch(e.pattern)) {
			return -1
		}
	}
	idx := 0
	for _, e := range rossoTable {
		if e.category != categoryIngredient {
			continue
		}
		p := normalizeForMatch(e.pattern)
		if n == p || strings.Contains(n, p) || strings.Contains(p, n) {
			return idx
		}
		idx++
	}
	return -1
}

// SortShoppingList orders the assembled list. Grouped mode follows the
// machine's planogram (with the family-specific loading order for Rosso
// models); alphabetical mode uses plain Russian collation. Stable; ties
// break on collated display name.
func SortShoppingList(items []ShoppingListItem, mode string, planogram []string, machineModel string) []ShoppingListItem {
	out := make([]ShoppingListItem, len(items))
	copy(out, items)
	c := newCollator()

	if mode == SortAlphabetical {
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Name, out[j].Name) < 0
		})
		return out
	}
	if isFamilyModel(machineModel) {
		return sortForFamily(out, planogram, c)
	}
	return sortByPlanogram(out, planogram, c)
}

// sortByPlanogram sorts in place: planogram-matched items first, by slot
// position, then everything else alphabetically.
func sortByPlanogram(items []ShoppingListItem, planogram []string, c *collate.Collator) []ShoppingListItem {
	if len(planogram) == 0 {
		sort.SliceStable(items, func(i, j int) bool {
			return c.CompareString(items[i].Name, items[j].Name) < 0
		})
		return items
	}
	pos := make(map[string]int, len(items))
	for _, it := range items {
		pos[it.Name] = findBestMatch(it.Name, planogram)
	}
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := pos[items[i].Name], pos[items[j].Name]
		switch {
		case pi >= 0 && pj >= 0:
			if pi != pj {
				return pi < pj
			}
		case pi >= 0:
			return true
		case pj >= 0:
			return false
		}
		return c.CompareString(items[i].Name, items[j].Name) < 0
	})
	return items
}

// sortForFamily puts brewed ingredients first, in the family table's order,
// then the discrete/snack bucket sorted like the generic path.
func sortForFamily(items []ShoppingListItem, planogram []string, c *collate.Collator) []ShoppingListItem {
	var ingredients, discrete []ShoppingListItem
	idx := make(map[string]int, len(items))
	for _, it := range items {
		if i := familyIngredientIndex(it.Name); i >= 0 {
			idx[it.Name] = i
			ingredients = append(ingredients, it)
		} else {
			discrete = append(discrete, it)
		}
	}
	sort.SliceStable(ingredients, func(i, j int) bool {
		if idx[ingredients[i].Name] != idx[ingredients[j].Name] {
			return idx[ingredients[i].Name] < idx[ingredients[j].Name]
		}
		return c.CompareString(ingredients[i].Name, ingredients[j].Name) < 0
	})
	discrete = sortByPlanogram(discrete, planogram, c)
	return append(ingredients, discrete...)
}
