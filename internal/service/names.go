package service

import "strings"

// exactAliases map one raw supplier spelling 1:1 to the canonical label.
// Checked before pattern aliases; comparison is case-sensitive.
var exactAliases = map[string]string{
	"Кофе Арабика":           "Кофе зерновой",
	"Молоко гранулированное": "Молоко сухое",
}

// patternAliases collapse whole families of spellings: a name matches when it
// contains every fragment, case-insensitively.
var patternAliases = []struct {
	fragments []string
	canonical string
}{
	{[]string{"круассан", "яшкино"}, "Круассан «Яшкино»"},
	{[]string{"пирожное", "барни"}, "Пирожное «Медвежонок Барни»"},
}

// NormalizeName collapses known alias spellings of a product or ingredient
// name to one canonical label so sales of the same consumable aggregate into
// a single total. Unknown names pass through unchanged.
func NormalizeName(raw string) string {
	if canonical, ok := exactAliases[raw]; ok {
		return canonical
	}
	lower := strings.ToLower(raw)
	for _, a := range patternAliases {
		matched := true
		for _, f := range a.fragments {
			if !strings.Contains(lower, f) {
				matched = false
				break
			}
		}
		if matched {
			return a.canonical
		}
	}
	return raw
}

// quoteStripper drops straight, curly and guillemet quotes before a name is
// compared against planogram labels.
var quoteStripper = strings.NewReplacer(
	`"`, "", "'", "",
	"“", "", "”", "", "„", "",
	"‘", "", "’", "",
	"«", "", "»", "",
)

// normalizeForMatch prepares a name for planogram comparison: quotes removed,
// whitespace runs collapsed, trimmed, lowercased. It is never used as the
// identity key in aggregation.
func normalizeForMatch(raw string) string {
	s := quoteStripper.Replace(raw)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
