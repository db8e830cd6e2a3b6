package session

import (
	"maps"
	"slices"

	"github.com/birdeye-app/birdeye/internal/identify"
)

// Summary condenses a batch for display.
type Summary struct {
	Photos    int                            `json:"photos"`
	Species   []string                       `json:"species"`
	AvgScore  float64                        `json:"avg_score"`
	BestScore int                            `json:"best_score"`
	Taxonomy  map[string]map[string][]string `json:"taxonomy"` // order -> family -> species
}

// Summarize counts photos and distinct species and averages the non-zero
// scores, so fallback results do not drag the average down.
func Summarize(results []identify.Result) Summary {
	s := Summary{Photos: len(results), Taxonomy: map[string]map[string][]string{}}

	species := map[string]struct{}{}
	taxa := map[string]map[string]map[string]struct{}{}
	total, scored := 0, 0
	for _, r := range results {
		species[r.ChineseName] = struct{}{}
		if r.Score > 0 {
			total += r.Score
			scored++
			s.BestScore = max(s.BestScore, r.Score)
		}

		order := orDefault(r.OrderChinese, identify.UnknownOrder)
		family := orDefault(r.FamilyChinese, identify.UnknownFamily)
		if taxa[order] == nil {
			taxa[order] = map[string]map[string]struct{}{}
		}
		if taxa[order][family] == nil {
			taxa[order][family] = map[string]struct{}{}
		}
		taxa[order][family][r.ChineseName] = struct{}{}
	}
	if scored > 0 {
		s.AvgScore = float64(total) / float64(scored)
	}

	s.Species = sortedKeys(species)
	for order, families := range taxa {
		s.Taxonomy[order] = map[string][]string{}
		for family, names := range families {
			s.Taxonomy[order][family] = sortedKeys(names)
		}
	}
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(m))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
