package game

// EffectTag marks special die results that carry narrative weight.
type EffectTag string

const (
	EffectNone      EffectTag = ""
	EffectMinor     EffectTag = "minor-effect" // 17-19
	EffectMajor     EffectTag = "major-effect" // natural 20
	EffectIntrusion EffectTag = "gm-intrusion" // natural 1
)

// RollResult is the outcome of one task resolution. It is created per roll
// command and only persisted as part of the Turn that reports it.
type RollResult struct {
	Pool       PoolName   `json:"pool"`
	Difficulty int        `json:"difficulty"`
	Effort     int        `json:"effort"`
	Skill      SkillLevel `json:"skill,omitempty"`
	Die        int        `json:"die"`
	Target     int        `json:"target"`
	Success    bool       `json:"success"`
	Cost       int        `json:"cost"`
	Effect     EffectTag  `json:"effect,omitempty"`
}
