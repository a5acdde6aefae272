package learner

import "text-tagger/model"

// TierCount is the number of tags that landed in a tier.
type TierCount struct {
	Tier  Tier `json:"tier"`
	Count int  `json:"count"`
}

// Summary describes a learned table in terms of its rules.
type Summary struct {
	Total     int         `json:"total"`
	Boosted   int         `json:"boosted"`
	Penalized int         `json:"penalized"`
	Tiers     []TierCount `json:"tiers"` // highest tier first
	Top       []Entry     `json:"top"`
}

// Summarize groups the table's tags by the tier whose weight they carry.
func Summarize(table Table, rules Rules, top int) Summary {
	tiers := rules.Tiers()
	counts := make([]TierCount, len(tiers))
	index := make(map[float64]int, len(tiers))
	for i, t := range tiers {
		counts[i] = TierCount{Tier: t}
		if _, seen := index[t.Weight]; !seen {
			index[t.Weight] = i
		}
	}

	for _, w := range table {
		if i, ok := index[w]; ok {
			counts[i].Count++
		}
	}

	return Summary{
		Total:     len(table),
		Boosted:   table.Boosted(),
		Penalized: table.Penalized(),
		Tiers:     counts,
		Top:       table.Top(top),
	}
}

// Learn runs both learning steps over a feedback corpus.
func Learn(docs []model.DocumentFeedback, rules Rules) Table {
	return DeriveWeights(ComputeRates(docs), rules)
}
