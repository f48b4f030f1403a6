package game

// PoolName identifies one of the three stat pools.
type PoolName string

const (
	PoolMight     PoolName = "might"
	PoolSpeed     PoolName = "speed"
	PoolIntellect PoolName = "intellect"
)

// PoolNames lists the valid pools in canonical order.
func PoolNames() []PoolName {
	return []PoolName{PoolMight, PoolSpeed, PoolIntellect}
}

// SkillLevel grades a character's competence at a named skill.
type SkillLevel int

const (
	Untrained   SkillLevel = 0
	Trained     SkillLevel = 1
	Specialized SkillLevel = 2
)

// StatPool tracks a spendable stat resource with its per-pool edge.
type StatPool struct {
	Current int `json:"current"`
	Max     int `json:"max"`
	Edge    int `json:"edge"`
}

// Spend deducts points without going below zero.
func (p *StatPool) Spend(amount int) {
	p.Current -= amount
	if p.Current < 0 {
		p.Current = 0
	}
}

// Restore adds points back up to the pool maximum.
func (p *StatPool) Restore(amount int) {
	p.Current += amount
	if p.Current > p.Max {
		p.Current = p.Max
	}
}

// Depleted reports whether the pool is empty.
func (p *StatPool) Depleted() bool {
	return p.Current <= 0
}

// Cypher is a one-use special resource item.
type Cypher struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level"`
	Used        bool   `json:"used,omitempty"`
}

// Character is a complete player character sheet.
type Character struct {
	Name       string                `json:"name"`
	Descriptor string                `json:"descriptor"`
	Archetype  string                `json:"archetype"`
	Focus      string                `json:"focus"`
	Tier       int                   `json:"tier"`
	XP         int                   `json:"xp"`
	Might      StatPool              `json:"might"`
	Speed      StatPool              `json:"speed"`
	Intellect  StatPool              `json:"intellect"`
	Inventory  []string              `json:"inventory,omitempty"`
	Cyphers    []Cypher              `json:"cyphers,omitempty"`
	Skills     map[string]SkillLevel `json:"skills,omitempty"`
}

// Pool returns the named stat pool, or false for an unknown name.
func (c *Character) Pool(name PoolName) (*StatPool, bool) {
	switch name {
	case PoolMight:
		return &c.Might, true
	case PoolSpeed:
		return &c.Speed, true
	case PoolIntellect:
		return &c.Intellect, true
	default:
		return nil, false
	}
}

// Skill returns the character's level at a named skill, Untrained when absent.
func (c *Character) Skill(name string) SkillLevel {
	return c.Skills[name]
}

// Sentence renders the character in the "I am a [Descriptor] [Archetype] who
// [Focus]" format used in prompts.
func (c *Character) Sentence() string {
	return "I am a " + c.Descriptor + " " + c.Archetype + " who " + c.Focus
}

// Clone returns a deep copy, so callers can hand out snapshots without
// aliasing the live sheet.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Inventory = append([]string(nil), c.Inventory...)
	clone.Cyphers = append([]Cypher(nil), c.Cyphers...)
	if c.Skills != nil {
		clone.Skills = make(map[string]SkillLevel, len(c.Skills))
		for name, level := range c.Skills {
			clone.Skills[name] = level
		}
	}
	return &clone
}
