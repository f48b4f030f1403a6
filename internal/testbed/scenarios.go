// Package testbed drives the game master headlessly against scripted inputs
// and checks the recorded turns and metrics, making the engine usable as an
// evaluation bed for provider quality.
package testbed

import "sort"

// CheckKind selects which property a step asserts.
type CheckKind string

const (
	// CheckContext asserts that earlier-established entities are still
	// referenced in this turn's narrative.
	CheckContext CheckKind = "context"
	// CheckQuality asserts basic shape: non-trivial narrative, 3-4 choices.
	CheckQuality CheckKind = "quality"
	// CheckRule asserts dice arithmetic on a roll turn.
	CheckRule CheckKind = "rule"
	// CheckMoment asserts a key-moment tag was detected.
	CheckMoment CheckKind = "moment"
	// CheckMetrics asserts a captured metrics record for this turn.
	CheckMetrics CheckKind = "metrics"
)

// RollSpec drives a roll step and carries its expected arithmetic.
type RollSpec struct {
	Pool       string
	Difficulty int
	Effort     int
	WantTarget int
	WantCost   int
}

// Step is one scripted input plus its property check. Exactly one of Input,
// Roll or Intrusion drives the turn.
type Step struct {
	Input     string
	Intrusion string
	Check     CheckKind
	Entities  []string
	Tag       string
	Roll      *RollSpec
}

// CharacterSpec describes the character a scenario plays.
type CharacterSpec struct {
	Name       string
	Descriptor string
	Archetype  string
	Focus      string
}

// Scenario is a complete scripted evaluation run.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Theme       string
	Character   CharacterSpec
	Steps       []Step
}

var defaultCharacter = CharacterSpec{
	Name:       "Tess",
	Descriptor: "scarred",
	Archetype:  "adept",
	Focus:      "commands_fire",
}

var registry = map[string]Scenario{
	"context_retention_npc": {
		ID:          "context_retention_npc",
		Name:        "NPC Context Retention",
		Description: "The narrator must still reference an NPC introduced many turns earlier",
		Character:   defaultCharacter,
		Steps: []Step{
			{Input: "I enter the tavern and greet Kira, a scarred Weaver with fire affinity", Check: CheckQuality},
			{Input: "I explore the ruins outside", Check: CheckQuality},
			{Input: "I search the rubble for supplies", Check: CheckQuality},
			{Input: "I follow the hum of nearby energy", Check: CheckQuality},
			{Input: "I ask about the Weaver I met earlier", Check: CheckContext, Entities: []string{"Kira"}},
		},
	},
	"lore_consistency_luminari": {
		ID:          "lore_consistency_luminari",
		Name:        "Luminari Lore Consistency",
		Description: "Encountering a light being must classify as a Luminari moment",
		Character:   defaultCharacter,
		Steps: []Step{
			{Input: "I approach the radiant light being hovering over the river", Check: CheckMoment, Tag: "luminari"},
		},
	},
	"rule_compliance_difficulty": {
		ID:          "rule_compliance_difficulty",
		Name:        "Difficulty Arithmetic",
		Description: "A difficulty-4 roll with one effort level must target 9 and cost 3",
		Character:   defaultCharacter,
		Steps: []Step{
			{Input: "I size up the wall before climbing", Check: CheckQuality},
			{Check: CheckRule, Roll: &RollSpec{Pool: "might", Difficulty: 4, Effort: 1, WantTarget: 9, WantCost: 3}},
		},
	},
	"combat_key_moment": {
		ID:          "combat_key_moment",
		Name:        "Combat Key Moment",
		Description: "An attack must produce a combat-tagged turn",
		Character:   defaultCharacter,
		Steps: []Step{
			{Input: "I attack the shambling enemy with my blade", Check: CheckMoment, Tag: "combat"},
		},
	},
	"gm_intrusion": {
		ID:          "gm_intrusion",
		Name:        "GM Intrusion",
		Description: "A triggered intrusion must record a tagged turn offering 2 XP",
		Character:   defaultCharacter,
		Steps: []Step{
			{Input: "I pick my way across the collapsed overpass", Check: CheckQuality},
			{Intrusion: "The overpass groans and a section gives way beneath you", Check: CheckMoment, Tag: "gm-intrusion"},
			{Input: "I grab the rebar and haul myself back up", Check: CheckQuality},
		},
	},
	"metrics_capture": {
		ID:          "metrics_capture",
		Name:        "Provider Metrics Capture",
		Description: "Every generation turn must leave a queryable metrics record",
		Character:   defaultCharacter,
		Steps: []Step{
			{Input: "I scan the skyline for danger", Check: CheckMetrics},
			{Input: "I move toward the old station", Check: CheckMetrics},
		},
	},
}

// Get returns a scenario by id.
func Get(id string) (Scenario, bool) {
	s, ok := registry[id]
	return s, ok
}

// List returns all scenario ids, sorted.
func List() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
