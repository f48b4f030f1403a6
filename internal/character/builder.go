// Package character validates and constructs player characters from the
// catalog of recognized descriptors, archetypes and foci.
package character

import (
	"strconv"
	"strings"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

// tierPoolBonus is added to every pool maximum per tier above the first.
const tierPoolBonus = 4

// Create builds a tier-1 character from the catalog. The (descriptor,
// archetype, focus) triple must be recognized in full; an unknown value fails
// with a ValidationError listing the catalog, and nothing is partially built.
func Create(name, descriptor, archetype, focus string) (*game.Character, error) {
	return CreateAtTier(name, descriptor, archetype, focus, 1)
}

// CreateAtTier is Create with an explicit starting tier. Derivation is pure:
// the same inputs always produce the same sheet.
func CreateAtTier(name, descriptor, archetype, focus string, tier int) (*game.Character, error) {
	if strings.TrimSpace(name) == "" {
		return nil, game.NewValidationError("name", name)
	}
	if tier < 1 || tier > 6 {
		return nil, game.NewValidationError("tier", strconv.Itoa(tier), "1-6")
	}

	descriptorKey := strings.ToLower(strings.TrimSpace(descriptor))
	if _, ok := descriptors[descriptorKey]; !ok {
		return nil, game.NewValidationError("descriptor", descriptor, Descriptors()...)
	}

	archetypeKey := strings.ToLower(strings.TrimSpace(archetype))
	entry, ok := archetypes[archetypeKey]
	if !ok {
		return nil, game.NewValidationError("archetype", archetype, Archetypes()...)
	}

	focusKey := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(focus)), " ", "_")
	if _, ok := foci[focusKey]; !ok {
		return nil, game.NewValidationError("focus", focus, Foci()...)
	}

	bonus := (tier - 1) * tierPoolBonus
	ch := &game.Character{
		Name:       strings.TrimSpace(name),
		Descriptor: descriptorKey,
		Archetype:  archetypeKey,
		Focus:      focusKey,
		Tier:       tier,
		Might:      startingPool(entry, game.PoolMight, bonus),
		Speed:      startingPool(entry, game.PoolSpeed, bonus),
		Intellect:  startingPool(entry, game.PoolIntellect, bonus),
		Skills:     make(map[string]game.SkillLevel, len(entry.Skills)),
	}
	for _, skill := range entry.Skills {
		ch.Skills[skill] = game.Trained
	}
	return ch, nil
}

func startingPool(entry Archetype, pool game.PoolName, bonus int) game.StatPool {
	max := entry.Pools[pool] + bonus
	return game.StatPool{Current: max, Max: max, Edge: entry.Edge[pool]}
}
