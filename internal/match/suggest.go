package match

import (
	"sort"
)

// MinSuggestionScore is the lowest Score that Suggest reports.
const MinSuggestionScore = 0.5

type scored struct {
	name  string
	score float64
}

// Suggest returns up to limit names from known that look like name, best first.
// Ties are broken alphabetically so the result is deterministic.
func Suggest(name string, known []string, limit int) []string {
	if limit <= 0 || len(known) == 0 {
		return nil
	}

	var candidates []scored

	for _, k := range known {
		if k == name {
			continue
		}

		score := Score(name, k)
		if score < MinSuggestionScore {
			continue
		}

		candidates = append(candidates, scored{name: k, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}

		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}

	return out
}
