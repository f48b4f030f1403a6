package character

import (
	"sort"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

// Archetype describes a character type's base formula: starting pools, edges
// and trained skills.
type Archetype struct {
	Description string
	Pools       map[game.PoolName]int
	Edge        map[game.PoolName]int
	Skills      []string
}

// Focus describes a focus entry and the abilities it grants.
type Focus struct {
	Description string
	Abilities   []string
}

// archetypes is the recognized character-type catalog. Base pool points total
// 26 for every entry.
var archetypes = map[string]Archetype{
	"warrior": {
		Description: "A fighter who excels in physical combat",
		Pools:       map[game.PoolName]int{game.PoolMight: 10, game.PoolSpeed: 9, game.PoolIntellect: 7},
		Edge:        map[game.PoolName]int{game.PoolMight: 1},
		Skills:      []string{"attacking", "defending"},
	},
	"adept": {
		Description: "A Weaver who channels the Nexus Weave",
		Pools:       map[game.PoolName]int{game.PoolMight: 7, game.PoolSpeed: 9, game.PoolIntellect: 10},
		Edge:        map[game.PoolName]int{game.PoolIntellect: 1},
		Skills:      []string{"weavecrafting", "understanding the nexus"},
	},
	"explorer": {
		Description: "A wanderer who adapts to any situation",
		Pools:       map[game.PoolName]int{game.PoolMight: 9, game.PoolSpeed: 10, game.PoolIntellect: 7},
		Edge:        map[game.PoolName]int{game.PoolSpeed: 1},
		Skills:      []string{"climbing", "navigation"},
	},
	"speaker": {
		Description: "A diplomat and leader who uses words and influence",
		Pools:       map[game.PoolName]int{game.PoolMight: 7, game.PoolSpeed: 7, game.PoolIntellect: 12},
		Edge:        map[game.PoolName]int{game.PoolIntellect: 1},
		Skills:      []string{"persuasion", "social interaction"},
	},
}

// descriptors is the recognized descriptor catalog.
var descriptors = map[string]string{
	"awakened":       "Recently discovered their Nexus Affinity",
	"scarred":        "Bears physical and emotional scars from the Nexus Awakening",
	"luminous":       "Has a connection to the Luminari",
	"shadow-touched": "Has encountered the Umbralari",
	"wild":           "Raised in the transformed wilderness",
	"urban":          "Survived in the ruins of Melbourne",
	"scholar":        "Studies the Nexus Weave and its mysteries",
	"scavenger":      "Expert at finding resources in the ruins",
}

// foci is the recognized focus catalog.
var foci = map[string]Focus{
	"weaves_the_nexus": {
		Description: "Masters multiple Nexus Affinities",
		Abilities:   []string{"Can use multiple elemental affinities", "Stronger Weavecrafting"},
	},
	"commands_fire": {
		Description: "Specializes in Fire Affinity",
		Abilities:   []string{"Enhanced fire attacks", "Fire resistance"},
	},
	"speaks_for_the_land": {
		Description: "Communicates with transformed nature",
		Abilities:   []string{"Talk to plants and animals", "Nature-based abilities"},
	},
	"shapes_the_weave": {
		Description: "Manipulates the Nexus Weave directly",
		Abilities:   []string{"Create magical effects", "Sense Nexus energy"},
	},
	"bears_a_heavy_weapon": {
		Description: "Expert with powerful weapons",
		Abilities:   []string{"Proficiency with heavy weapons", "Increased damage"},
	},
	"moves_like_a_ghost": {
		Description: "Extremely stealthy and agile",
		Abilities:   []string{"Enhanced stealth", "Difficult to hit"},
	},
}

// Archetypes lists the valid archetype names, sorted.
func Archetypes() []string { return sortedKeys(archetypes) }

// Descriptors lists the valid descriptor names, sorted.
func Descriptors() []string { return sortedKeys(descriptors) }

// Foci lists the valid focus names, sorted.
func Foci() []string { return sortedKeys(foci) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
