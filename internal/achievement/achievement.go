// Package achievement evaluates the milestone catalog against a discovery collection.
package achievement

import (
	"slices"

	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/rarity"
)

// Achievement is a catalog entry together with the user's unlock state.
type Achievement struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Unlocked      bool   `json:"unlocked"`
	RewardPoints  int    `json:"reward_points"`
	RewardClaimed bool   `json:"reward_claimed"`
	// Progress is only set for threshold achievements and stays within [0, 100].
	Progress *int `json:"progress,omitempty"`
}

// RuleType identifies how an achievement is unlocked.
type RuleType string

const (
	RuleAnyDiscovery  RuleType = "any_discovery"
	RuleRarity        RuleType = "rarity"
	RuleUniqueSpecies RuleType = "unique_species"
)

// Definition is a static catalog entry.
type Definition struct {
	ID           string
	Title        string
	Description  string
	RewardPoints int
	Rule         RuleType

	Rarity    rarity.Tier // RuleRarity
	Threshold int         // RuleUniqueSpecies
}

const (
	FirstDiscovery     = "first-discovery"
	RareFinder         = "rare-finder"
	CollectionStarter  = "collection-starter"
	WildlifeEnthusiast = "wildlife-enthusiast"
	LegendaryHunter    = "legendary-hunter"
)

// Keep ids stable; they are persisted in the local state document.
var definitions = []Definition{
	{
		ID:           FirstDiscovery,
		Title:        "First Discovery",
		Description:  "Identify your first animal",
		RewardPoints: 50,
		Rule:         RuleAnyDiscovery,
	},
	{
		ID:           RareFinder,
		Title:        "Rare Finder",
		Description:  "Discover your first rare animal",
		RewardPoints: 100,
		Rule:         RuleRarity,
		Rarity:       rarity.Rare,
	},
	{
		ID:           CollectionStarter,
		Title:        "Collection Starter",
		Description:  "Discover 5 different animals",
		RewardPoints: 150,
		Rule:         RuleUniqueSpecies,
		Threshold:    5,
	},
	{
		ID:           WildlifeEnthusiast,
		Title:        "Wildlife Enthusiast",
		Description:  "Discover 10 different animals",
		RewardPoints: 300,
		Rule:         RuleUniqueSpecies,
		Threshold:    10,
	},
	{
		ID:           LegendaryHunter,
		Title:        "Legendary Hunter",
		Description:  "Discover a legendary animal",
		RewardPoints: 500,
		Rule:         RuleRarity,
		Rarity:       rarity.Legendary,
	},
}

// Definitions returns a copy of the static catalog in evaluation order.
func Definitions() []Definition {
	return slices.Clone(definitions)
}

// Catalog returns the initial, fully locked achievement state.
func Catalog() []Achievement {
	out := make([]Achievement, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, initial(def))
	}
	return out
}

func initial(def Definition) Achievement {
	a := Achievement{
		ID:           def.ID,
		Title:        def.Title,
		Description:  def.Description,
		RewardPoints: def.RewardPoints,
	}
	if def.Rule == RuleUniqueSpecies {
		a.Progress = intPtr(0)
	}
	return a
}

// Evaluate recomputes the achievement state for the given discoveries and returns the
// reward points of every achievement unlocked by this pass. Already unlocked entries are
// never re-awarded, so evaluating an unchanged collection twice awards nothing the
// second time. Entries missing from state are seeded from the catalog; unknown ids are
// dropped.
func Evaluate(discoveries discovery.Collection, state []Achievement) ([]Achievement, int) {
	unique := discoveries.UniqueSpecies()
	out := make([]Achievement, 0, len(definitions))
	awarded := 0

	for _, def := range definitions {
		a, ok := find(state, def.ID)
		if !ok {
			a = initial(def)
		}
		// Catalog text and rewards are configuration, not user state.
		a.Title, a.Description, a.RewardPoints = def.Title, def.Description, def.RewardPoints

		var met bool
		switch def.Rule {
		case RuleAnyDiscovery:
			met = len(discoveries) > 0
		case RuleRarity:
			met = discoveries.HasRarity(def.Rarity)
		case RuleUniqueSpecies:
			a.Progress = intPtr(progressPercent(unique, def.Threshold))
			met = unique >= def.Threshold
		}

		if met && !a.Unlocked {
			a.Unlocked = true
			awarded += def.RewardPoints
		}
		out = append(out, a)
	}
	return out, awarded
}

// Claim marks the reward of an unlocked, unclaimed achievement as claimed and returns
// the points to award. Any other case returns state unchanged with claimed=false.
func Claim(state []Achievement, id string) (next []Achievement, awarded int, claimed bool) {
	idx := slices.IndexFunc(state, func(a Achievement) bool { return a.ID == id })
	if idx < 0 || !state[idx].Unlocked || state[idx].RewardClaimed {
		return state, 0, false
	}
	next = slices.Clone(state)
	next[idx].RewardClaimed = true
	return next, next[idx].RewardPoints, true
}

// Unlocked returns the unlocked achievements in catalog order.
func Unlocked(state []Achievement) []Achievement {
	var out []Achievement
	for _, a := range state {
		if a.Unlocked {
			out = append(out, a)
		}
	}
	return out
}

func find(state []Achievement, id string) (Achievement, bool) {
	for _, a := range state {
		if a.ID == id {
			if a.Progress != nil {
				a.Progress = intPtr(*a.Progress)
			}
			return a, true
		}
	}
	return Achievement{}, false
}

func progressPercent(count, threshold int) int {
	if threshold <= 0 {
		return 100
	}
	pct := count * 100 / threshold
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func intPtr(v int) *int { return &v }
