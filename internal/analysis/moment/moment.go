// Package moment classifies generated narrative into key-moment categories
// that warrant auxiliary content such as scene images.
package moment

import "strings"

// Tag labels a narrative-event category from the fixed taxonomy.
type Tag string

const (
	Combat       Tag = "combat"
	Discovery    Tag = "discovery"
	Boss         Tag = "boss"
	Luminari     Tag = "luminari"
	Umbralari    Tag = "umbralari"
	WeaveAbility Tag = "weave-ability"
)

// taxonomy fixes the classification order so results are deterministic.
var taxonomy = []Tag{Combat, Discovery, Boss, Luminari, Umbralari, WeaveAbility}

var keywordBuckets = map[Tag][]string{
	Combat: {
		"attack", "fight", "battle", "combat", "strike", "enemy", "foe", "assailant",
		"clash", "ambush", "weapon drawn",
	},
	Discovery: {
		"discover", "find", "reveal", "uncover", "treasure", "artifact", "relic",
		"hidden", "secret passage",
	},
	Boss: {
		"boss", "final confrontation", "champion", "warlord", "overlord", "master of",
	},
	Luminari: {
		"luminari", "light being", "radiant", "emissary", "being of light",
	},
	Umbralari: {
		"umbralari", "shadow", "corrupted", "darkness", "umbral",
	},
	WeaveAbility: {
		"weave", "affinity", "nexus energy", "weavecraft", "cast", "channel",
	},
}

// Classify returns the event tags matched in the text, in taxonomy order.
// Matching is keyword-based, deterministic and side-effect-free; an empty
// result means no key moment.
func Classify(text string) []Tag {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}

	var tags []Tag
	for _, tag := range taxonomy {
		if score(normalized, tag) > 0 {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Primary returns the highest-scoring tag, taxonomy order breaking ties.
func Primary(text string) (Tag, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return "", false
	}

	var best Tag
	bestScore := 0
	for _, tag := range taxonomy {
		if s := score(normalized, tag); s > bestScore {
			bestScore = s
			best = tag
		}
	}
	if bestScore == 0 {
		return "", false
	}
	return best, true
}

// Strings converts tags for storage on a Turn.
func Strings(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = string(tag)
	}
	return out
}

func score(normalized string, tag Tag) int {
	total := 0
	for _, keyword := range keywordBuckets[tag] {
		if strings.Contains(normalized, keyword) {
			total++
		}
	}
	return total
}
