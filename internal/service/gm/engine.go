// Package gm orchestrates turns: it builds bounded prompts from session
// history, calls the provider gateway, applies the rule resolver and records
// every provider call through the metrics collector.
package gm

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/analysis/moment"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/metrics"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/provider"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/rules"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/scene"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/session"
)

// gmActor attributes synthetic turns (opening scene, intrusions) in history.
const gmActor = "gm"

// TurnPublisher receives appended turns for spectators. Publish must not
// block the turn path.
type TurnPublisher interface {
	Publish(sessionID string, turn game.Turn)
}

// Config tunes the engine.
type Config struct {
	// RecentTurns is the verbatim context window; older turns are digested.
	RecentTurns int
	// ScenarioID tags metrics records when the engine is driven by the
	// test bed.
	ScenarioID string
}

// Engine is the game master. One engine serves many sessions; per-session
// ordering is enforced by the store's turn slot.
type Engine struct {
	store    *session.Store
	resolver *rules.Resolver
	gateway  provider.Gateway
	metrics  *metrics.Collector
	images   scene.Requester
	feed     TurnPublisher
	cfg      Config
}

// NewEngine wires the engine. images and feed may be nil.
func NewEngine(store *session.Store, resolver *rules.Resolver, gateway provider.Gateway, collector *metrics.Collector, images scene.Requester, feed TurnPublisher, cfg Config) *Engine {
	if cfg.RecentTurns <= 0 {
		cfg.RecentTurns = 5
	}
	return &Engine{
		store:    store,
		resolver: resolver,
		gateway:  gateway,
		metrics:  collector,
		images:   images,
		feed:     feed,
		cfg:      cfg,
	}
}

// WithScenario returns a shallow copy tagging metrics with a scenario id.
// The copy shares the store, gateway and sinks, so scenario runs observe the
// same state the live path would.
func (e *Engine) WithScenario(scenarioID string) *Engine {
	clone := *e
	clone.cfg.ScenarioID = scenarioID
	return &clone
}

// OpenSession generates the opening scene for a freshly created session and
// appends it as a synthetic turn. Provider failures fall back to canned
// content; the session always opens.
func (e *Engine) OpenSession(ctx context.Context, sessionID string) (game.Turn, error) {
	if err := e.store.BeginTurn(sessionID); err != nil {
		return game.Turn{}, err
	}
	defer e.store.FinishTurn(sessionID)

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return game.Turn{}, err
	}

	prompt := openingPrompt(sess.Theme, sess.Character(sess.Owner))
	reply, metricID, err := e.generate(ctx, sessionID, "opening_scene", prompt)

	var narrative string
	var choices []string
	if err != nil {
		log.Printf("[gm] opening generation failed, using fallback: %v", err)
		narrative, choices = openingFallback()
	} else {
		narrative, choices = parseResponse(reply.Text)
	}

	turn := game.Turn{
		Actor:     gmActor,
		Narrative: narrative,
		Choices:   choices,
		MetricID:  metricID,
	}
	appended, err := e.store.AppendTurn(ctx, sessionID, turn)
	if err != nil {
		return game.Turn{}, err
	}
	e.publish(sessionID, appended)
	return appended, nil
}

// ProcessAction advances the story by one turn. The input may be a numbered
// choice (1-4) or free-form text. Provider failures produce a deterministic
// fallback narration instead of an error; validation failures leave the
// session untouched.
func (e *Engine) ProcessAction(ctx context.Context, sessionID, actor, input string) (game.Turn, error) {
	if strings.TrimSpace(input) == "" {
		return game.Turn{}, game.NewValidationError("input", input)
	}
	if err := e.store.BeginTurn(sessionID); err != nil {
		return game.Turn{}, err
	}
	defer e.store.FinishTurn(sessionID)

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return game.Turn{}, err
	}

	action := strings.TrimSpace(input)
	choiceIndex := 0
	if n, convErr := strconv.Atoi(action); convErr == nil {
		if n < 1 || n > len(sess.Choices) {
			return game.Turn{}, game.NewValidationError("choice", action, fmt.Sprintf("1-%d", len(sess.Choices)))
		}
		choiceIndex = n
		action = sess.Choices[n-1]
	}

	ch := sess.Character(actor)
	prompt := actionPrompt(&sess, ch, action, e.cfg.RecentTurns)
	reply, metricID, err := e.generate(ctx, sessionID, "player_action", prompt)

	var narrative string
	var choices []string
	if err != nil {
		log.Printf("[gm] action generation failed, using fallback: %v", err)
		narrative, choices = actionFallback(action)
	} else {
		narrative, choices = parseResponse(reply.Text)
	}

	tags := moment.Classify(narrative)
	turn := game.Turn{
		Actor:       actor,
		ChoiceIndex: choiceIndex,
		Input:       action,
		Narrative:   narrative,
		Choices:     choices,
		Tags:        moment.Strings(tags),
		MetricID:    metricID,
	}
	appended, err := e.store.AppendTurn(ctx, sessionID, turn)
	if err != nil {
		return game.Turn{}, err
	}

	if len(tags) > 0 && e.images != nil {
		e.requestImage(sessionID, narrative, ch, tags)
	}
	e.publish(sessionID, appended)
	return appended, nil
}

// ResolveRoll resolves a task roll for the acting character and commits the
// pool deduction together with the history append as one atomic unit.
func (e *Engine) ResolveRoll(ctx context.Context, sessionID, actor string, pool game.PoolName, difficulty, effort int, skillName string) (game.Turn, error) {
	if err := e.store.BeginTurn(sessionID); err != nil {
		return game.Turn{}, err
	}
	defer e.store.FinishTurn(sessionID)

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return game.Turn{}, err
	}
	ch := sess.Character(actor)
	if ch == nil {
		return game.Turn{}, game.NewValidationError("actor", actor)
	}

	skill := game.Untrained
	if skillName != "" {
		skill = ch.Skill(strings.ToLower(strings.TrimSpace(skillName)))
	}

	result, err := e.resolver.Resolve(ch, pool, difficulty, effort, skill)
	if err != nil {
		return game.Turn{}, err
	}

	turn := game.Turn{
		Actor:     actor,
		Narrative: rollNarrative(result),
		Roll:      &result,
	}
	if result.Effect == game.EffectIntrusion {
		turn.Tags = []string{string(game.EffectIntrusion)}
	}
	appended, err := e.store.CommitRoll(ctx, sessionID, actor, turn)
	if err != nil {
		return game.Turn{}, err
	}
	e.publish(sessionID, appended)
	return appended, nil
}

// RecoverPool makes a recovery roll (1d6 + tier) and restores the points to
// the chosen pool.
func (e *Engine) RecoverPool(ctx context.Context, sessionID, actor string, pool game.PoolName) (game.Turn, error) {
	if err := e.store.BeginTurn(sessionID); err != nil {
		return game.Turn{}, err
	}
	defer e.store.FinishTurn(sessionID)

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return game.Turn{}, err
	}
	ch := sess.Character(actor)
	if ch == nil {
		return game.Turn{}, game.NewValidationError("actor", actor)
	}
	if _, ok := ch.Pool(pool); !ok {
		return game.Turn{}, game.NewValidationError("pool", string(pool),
			string(game.PoolMight), string(game.PoolSpeed), string(game.PoolIntellect))
	}

	points := e.resolver.RecoveryRoll(ch.Tier)
	turn := game.Turn{
		Actor:     actor,
		Narrative: fmt.Sprintf("You take a moment to recover, restoring %d points to %s.", points, pool),
	}
	appended, err := e.store.CommitRecovery(ctx, sessionID, actor, pool, points, turn)
	if err != nil {
		return game.Turn{}, err
	}
	e.publish(sessionID, appended)
	return appended, nil
}

// ApplyDamage deducts incoming damage from the chosen pool and records it as
// a turn. Depleting the pool is called out in the narration.
func (e *Engine) ApplyDamage(ctx context.Context, sessionID, actor string, pool game.PoolName, damage int) (game.Turn, error) {
	if err := e.store.BeginTurn(sessionID); err != nil {
		return game.Turn{}, err
	}
	defer e.store.FinishTurn(sessionID)

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return game.Turn{}, err
	}
	ch := sess.Character(actor)
	if ch == nil {
		return game.Turn{}, game.NewValidationError("actor", actor)
	}

	// Preview on the snapshot for the narration; the turn slot keeps the
	// live state from drifting before the commit below.
	remaining, depleted, err := rules.ApplyDamage(ch, pool, damage)
	if err != nil {
		return game.Turn{}, err
	}

	narrative := fmt.Sprintf("You take %d damage to %s, leaving %d points.", damage, pool, remaining)
	if depleted {
		narrative += " The pool is depleted."
	}
	turn := game.Turn{
		Actor:     actor,
		Narrative: narrative,
	}
	appended, err := e.store.CommitDamage(ctx, sessionID, actor, pool, damage, turn)
	if err != nil {
		return game.Turn{}, err
	}
	e.publish(sessionID, appended)
	return appended, nil
}

// TriggerIntrusion records a GM intrusion offering the standard 2 XP.
func (e *Engine) TriggerIntrusion(ctx context.Context, sessionID, description string) (game.Turn, error) {
	if strings.TrimSpace(description) == "" {
		return game.Turn{}, game.NewValidationError("description", description)
	}
	if err := e.store.BeginTurn(sessionID); err != nil {
		return game.Turn{}, err
	}
	defer e.store.FinishTurn(sessionID)

	turn := game.Turn{
		Actor:     gmActor,
		Narrative: fmt.Sprintf("GM Intrusion: %s (accept for 2 XP)", description),
		Tags:      []string{string(game.EffectIntrusion)},
	}
	appended, err := e.store.AppendTurn(ctx, sessionID, turn)
	if err != nil {
		return game.Turn{}, err
	}
	e.publish(sessionID, appended)
	return appended, nil
}

// generate runs one instrumented provider call with a single bounded retry on
// transient failures.
func (e *Engine) generate(ctx context.Context, sessionID, operation, prompt string) (provider.Reply, string, error) {
	meta := metrics.Meta{SessionID: sessionID, ScenarioID: e.cfg.ScenarioID, Operation: operation}
	req := provider.Request{System: systemPrompt, Prompt: prompt}

	reply, metricID, err := e.metrics.Instrument(ctx, e.gateway.Name(), meta, func(ctx context.Context) (provider.Reply, error) {
		return e.gateway.Request(ctx, req)
	})
	if err == nil {
		return reply, metricID, nil
	}

	switch provider.KindOf(err) {
	case provider.KindTimeout, provider.KindRateLimited:
		// A failure caused by the caller's own context is not transient.
		if ctx.Err() != nil {
			break
		}
		log.Printf("[gm] transient provider failure, retrying once: %v", err)
		reply, metricID, err = e.metrics.Instrument(ctx, e.gateway.Name(), meta, func(ctx context.Context) (provider.Reply, error) {
			return e.gateway.Request(ctx, req)
		})
	}
	return reply, metricID, err
}

func (e *Engine) requestImage(sessionID, narrative string, ch *game.Character, tags []moment.Tag) {
	primary, ok := moment.Primary(narrative)
	if !ok {
		primary = tags[0]
	}
	characterName := ""
	if ch != nil {
		characterName = ch.Name
	}
	req := scene.ImageRequest{
		SessionID: sessionID,
		Prompt:    scene.BuildPrompt(primary, compact(narrative, 240), characterName),
		Tags:      tags,
	}
	// Fire and forget: the turn response never waits on image generation.
	go e.images.Request(req)
}

func (e *Engine) publish(sessionID string, turn game.Turn) {
	if e.feed != nil {
		e.feed.Publish(sessionID, turn)
	}
}

func rollNarrative(r game.RollResult) string {
	switch {
	case r.Effect == game.EffectMajor:
		return fmt.Sprintf("Critical success! You roll a %d, achieving an exceptional result.", r.Die)
	case r.Effect == game.EffectIntrusion:
		return "You roll a 1. Something goes wrong, and the GM may intrude."
	case r.Success && r.Effect == game.EffectMinor:
		return fmt.Sprintf("You roll a %d (target: %d) and succeed with a minor effect.", r.Die, r.Target)
	case r.Success:
		return fmt.Sprintf("You roll a %d (target: %d) and succeed.", r.Die, r.Target)
	default:
		return fmt.Sprintf("You roll a %d (target: %d) and fail.", r.Die, r.Target)
	}
}

func openingFallback() (string, []string) {
	return "You find yourself in the ruins of Melbourne, the Nexus Weave shimmering around you...",
		[]string{
			"Explore the ruins",
			"Seek other survivors",
			"Investigate the Nexus energy",
			"Take a moment to rest",
		}
}

func actionFallback(action string) (string, []string) {
	return fmt.Sprintf("The Weave flickers as you %s, and for a heartbeat the world resists telling. The moment passes; the ruins wait for your next move.", strings.ToLower(action)),
		append([]string(nil), defaultChoices...)
}
