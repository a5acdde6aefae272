package learner

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoTiers is returned when a rule set has no tiers.
	ErrNoTiers = errors.New("learning rules need at least one tier")

	// ErrDuplicateTier is returned when two tiers share a lower bound.
	ErrDuplicateTier = errors.New("learning tiers must have distinct lower bounds")
)

// Tier assigns Weight to every approval rate at or above MinRate, up to the
// next tier's bound.
type Tier struct {
	Name    string  `json:"name"`
	MinRate float64 `json:"min_rate"`
	Weight  float64 `json:"weight"`
}

// Rules is an ordered tier table. Lookups pick the tier with the greatest
// MinRate not exceeding the rate, so a rate equal to a bound belongs to the
// higher tier.
type Rules struct {
	tiers []Tier // ascending by MinRate
}

// DefaultRules returns the stock four-tier table.
func DefaultRules() Rules {
	r, _ := NewRules([]Tier{
		{Name: "strong_boost", MinRate: 0.80, Weight: 1.3},
		{Name: "mild_boost", MinRate: 0.50, Weight: 1.1},
		{Name: "mild_penalty", MinRate: 0.20, Weight: 0.9},
		{Name: "strong_penalty", MinRate: 0.00, Weight: 0.5},
	})
	return r
}

// NewRules builds a rule set from tiers given in any order.
func NewRules(tiers []Tier) (Rules, error) {
	if len(tiers) == 0 {
		return Rules{}, ErrNoTiers
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinRate < sorted[j].MinRate
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].MinRate == sorted[i-1].MinRate {
			return Rules{}, fmt.Errorf("%w: %v", ErrDuplicateTier, sorted[i].MinRate)
		}
	}

	return Rules{tiers: sorted}, nil
}

// Tiers returns the tiers from the highest bound to the lowest.
func (r Rules) Tiers() []Tier {
	out := make([]Tier, len(r.tiers))
	for i, t := range r.tiers {
		out[len(r.tiers)-1-i] = t
	}
	return out
}

// TierFor returns the tier that rate falls into. Rates below the lowest
// bound fall into the lowest tier.
func (r Rules) TierFor(rate float64) Tier {
	if len(r.tiers) == 0 {
		return Tier{Weight: NeutralWeight}
	}
	i := sort.Search(len(r.tiers), func(i int) bool {
		return r.tiers[i].MinRate > rate
	})
	if i == 0 {
		return r.tiers[0]
	}
	return r.tiers[i-1]
}

// WeightFor returns the multiplier for an approval rate.
func (r Rules) WeightFor(rate float64) float64 {
	return r.TierFor(rate).Weight
}

// DeriveWeights maps every rate to its tier's multiplier.
func DeriveWeights(rates Rates, rules Rules) Table {
	table := make(Table, len(rates))
	for tag, rate := range rates {
		table[tag] = rules.WeightFor(rate)
	}
	return table
}
