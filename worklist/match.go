package worklist

import (
	"strings"

	"opsboard/domain"
)

// MatchPricingModels returns the models whose name occurs in text, compared
// case-insensitively after trimming. Order follows models. Plain substring
// containment only, no stemming or umlaut folding, so short names can match
// unrelated text. Models with a blank name never match.
func MatchPricingModels(text string, models []domain.PricingModel) []domain.PricingModel {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	var matched []domain.PricingModel
	for _, m := range models {
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if name == "" {
			continue
		}
		if strings.Contains(text, name) {
			matched = append(matched, m)
		}
	}
	return matched
}
