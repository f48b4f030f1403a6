// Package rules implements the deterministic dice, difficulty and effort
// arithmetic of the Cypher System.
package rules

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

const (
	// MaxDifficulty is the top of the 0-10 difficulty scale.
	MaxDifficulty = 10
	// MaxEffort is the most effort levels a single roll may spend.
	MaxEffort = 3
	// BaseEffortCost is the pool cost of one effort level before edge.
	BaseEffortCost = 3
	// TargetStep converts a difficulty step into target-number points.
	TargetStep = 3
	// DieSides is the task-resolution die.
	DieSides = 20
)

// Resolver draws dice and applies the difficulty arithmetic. It is safe for
// concurrent use.
type Resolver struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver returns a Resolver seeded from the clock.
func NewResolver() *Resolver {
	return NewSeededResolver(time.Now().UnixNano())
}

// NewSeededResolver returns a Resolver with a fixed seed. Given the same seed
// and call sequence it produces the same draws.
func NewSeededResolver(seed int64) *Resolver {
	return &Resolver{rng: rand.New(rand.NewSource(seed))}
}

// Resolve validates the roll, checks the effort cost against the character's
// pool and draws the die. The character is not mutated: the computed Cost is
// applied by the caller together with the history append, so a roll is never
// half-applied. A cost the pool cannot afford fails with
// InsufficientPoolError and difficulty or effort out of range fails with
// ValidationError; neither draws a die.
func (r *Resolver) Resolve(ch *game.Character, pool game.PoolName, difficulty, effort int, skill game.SkillLevel) (game.RollResult, error) {
	statPool, ok := ch.Pool(pool)
	if !ok {
		return game.RollResult{}, game.NewValidationError("pool", string(pool), string(game.PoolMight), string(game.PoolSpeed), string(game.PoolIntellect))
	}
	if difficulty < 0 || difficulty > MaxDifficulty {
		return game.RollResult{}, game.NewValidationError("difficulty", strconv.Itoa(difficulty), "0-10")
	}
	if effort < 0 || effort > MaxEffort {
		return game.RollResult{}, game.NewValidationError("effort", strconv.Itoa(effort), "0-3")
	}
	if skill < game.Untrained || skill > game.Specialized {
		return game.RollResult{}, game.NewValidationError("skill", strconv.Itoa(int(skill)), "0-2")
	}

	cost := EffortCost(effort, statPool.Edge)
	if cost > statPool.Current {
		return game.RollResult{}, &game.InsufficientPoolError{Pool: pool, Cost: cost, Current: statPool.Current}
	}

	target := TargetNumber(difficulty, effort, skill)
	die := r.d20()

	return game.RollResult{
		Pool:       pool,
		Difficulty: difficulty,
		Effort:     effort,
		Skill:      skill,
		Die:        die,
		Target:     target,
		Success:    die >= target,
		Cost:       cost,
		Effect:     effectFor(die),
	}, nil
}

// TargetNumber computes the number the die must meet. Effort lowers the
// effective difficulty one step per level, down to zero. Skill training
// lowers it a further step (two when specialized) but by rule convention
// cannot take a still-difficult task below target 3.
func TargetNumber(difficulty, effort int, skill game.SkillLevel) int {
	effective := difficulty - effort
	if effective < 0 {
		effective = 0
	}
	if effective == 0 {
		return 0
	}
	skilled := effective - int(skill)
	if skilled < 1 {
		skilled = 1
	}
	return skilled * TargetStep
}

// EffortCost is the total pool cost for the purchased effort levels: each
// level costs max(1, BaseEffortCost - edge).
func EffortCost(effort, edge int) int {
	if effort <= 0 {
		return 0
	}
	perLevel := BaseEffortCost - edge
	if perLevel < 1 {
		perLevel = 1
	}
	return effort * perLevel
}

// RecoveryRoll restores 1d6 + tier points.
func (r *Resolver) RecoveryRoll(tier int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(6) + 1 + tier
}

// ApplyDamage deducts damage from the named pool, never below zero, and
// reports the remaining points and whether the pool is now depleted.
func ApplyDamage(ch *game.Character, pool game.PoolName, damage int) (remaining int, depleted bool, err error) {
	statPool, ok := ch.Pool(pool)
	if !ok {
		return 0, false, game.NewValidationError("pool", string(pool), string(game.PoolMight), string(game.PoolSpeed), string(game.PoolIntellect))
	}
	if damage < 0 {
		return 0, false, game.NewValidationError("damage", strconv.Itoa(damage), ">= 0")
	}
	statPool.Spend(damage)
	return statPool.Current, statPool.Depleted(), nil
}

func (r *Resolver) d20() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(DieSides) + 1
}

func effectFor(die int) game.EffectTag {
	switch {
	case die == 1:
		return game.EffectIntrusion
	case die == 20:
		return game.EffectMajor
	case die >= 17:
		return game.EffectMinor
	default:
		return game.EffectNone
	}
}
