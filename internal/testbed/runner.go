package testbed

import (
	"context"
	"fmt"
	"strings"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/character"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/metrics"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/gm"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/session"
)

// testActor is the participant id used for scripted runs.
const testActor = "test-player"

// MetricsReader queries captured records back from the queryable sink.
type MetricsReader interface {
	ByScenario(ctx context.Context, scenarioID string) ([]metrics.Record, error)
}

// StepResult reports one evaluated step.
type StepResult struct {
	Turn   int    `json:"turn"`
	Input  string `json:"input,omitempty"`
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Report is the outcome of one scenario run.
type Report struct {
	ScenarioID string       `json:"scenarioId"`
	Name       string       `json:"name"`
	SessionID  string       `json:"sessionId"`
	Provider   string       `json:"provider"`
	Passed     bool         `json:"passed"`
	Steps      []StepResult `json:"steps"`
}

// Runner drives the engine exactly as a live caller would. Every run gets a
// fresh session, so scenarios can run back-to-back without
// cross-contamination.
type Runner struct {
	engine   *gm.Engine
	store    *session.Store
	reader   MetricsReader
	provider string
	flush    func()
}

// NewRunner wires a runner around a shared engine and store. flush is called
// before metrics queries so async records are visible; it may be nil.
func NewRunner(engine *gm.Engine, store *session.Store, reader MetricsReader, providerName string, flush func()) *Runner {
	return &Runner{engine: engine, store: store, reader: reader, provider: providerName, flush: flush}
}

// Run executes one scenario and evaluates its property checks, reporting the
// offending turn and reason on failure.
func (r *Runner) Run(ctx context.Context, scenarioID string) (Report, error) {
	scenario, ok := Get(scenarioID)
	if !ok {
		return Report{}, game.NewValidationError("scenario", scenarioID, List()...)
	}

	sess, err := r.store.Create(ctx, testActor, game.ModeSolo, scenario.Theme)
	if err != nil {
		return Report{}, fmt.Errorf("create scenario session: %w", err)
	}
	// Scenario sessions always end, even on early exit.
	defer func() { _ = r.store.End(context.Background(), sess.ID) }()

	ch, err := character.Create(scenario.Character.Name, scenario.Character.Descriptor, scenario.Character.Archetype, scenario.Character.Focus)
	if err != nil {
		return Report{}, fmt.Errorf("create scenario character: %w", err)
	}
	if err := r.store.SetCharacter(ctx, sess.ID, testActor, ch); err != nil {
		return Report{}, fmt.Errorf("bind scenario character: %w", err)
	}

	engine := r.engine.WithScenario(scenario.ID)
	if _, err := engine.OpenSession(ctx, sess.ID); err != nil {
		return Report{}, fmt.Errorf("open scenario session: %w", err)
	}

	report := Report{
		ScenarioID: scenario.ID,
		Name:       scenario.Name,
		SessionID:  sess.ID,
		Provider:   r.provider,
		Passed:     true,
	}

	for i, step := range scenario.Steps {
		result := r.runStep(ctx, engine, sess.ID, scenario.ID, i+1, step)
		report.Steps = append(report.Steps, result)
		if !result.Passed {
			report.Passed = false
		}
	}
	return report, nil
}

// RunAll executes every registered scenario in id order.
func (r *Runner) RunAll(ctx context.Context) ([]Report, error) {
	var reports []Report
	for _, id := range List() {
		report, err := r.Run(ctx, id)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Runner) runStep(ctx context.Context, engine *gm.Engine, sessionID, scenarioID string, turnNo int, step Step) StepResult {
	result := StepResult{Turn: turnNo, Input: step.Input, Check: string(step.Check)}

	var turn game.Turn
	var err error
	if step.Roll != nil {
		turn, err = engine.ResolveRoll(ctx, sessionID, testActor, game.PoolName(step.Roll.Pool), step.Roll.Difficulty, step.Roll.Effort, "")
	} else if step.Intrusion != "" {
		turn, err = engine.TriggerIntrusion(ctx, sessionID, step.Intrusion)
	} else {
		turn, err = engine.ProcessAction(ctx, sessionID, testActor, step.Input)
	}
	if err != nil {
		result.Reason = fmt.Sprintf("turn failed: %v", err)
		return result
	}

	switch step.Check {
	case CheckContext:
		result.Passed, result.Reason = checkContext(turn, step.Entities)
	case CheckQuality:
		result.Passed, result.Reason = checkQuality(turn)
	case CheckRule:
		result.Passed, result.Reason = checkRule(turn, step.Roll)
	case CheckMoment:
		result.Passed, result.Reason = checkMoment(turn, step.Tag)
	case CheckMetrics:
		result.Passed, result.Reason = r.checkMetrics(ctx, scenarioID, turn)
	default:
		result.Reason = fmt.Sprintf("unknown check kind %q", step.Check)
	}
	return result
}

func checkContext(turn game.Turn, entities []string) (bool, string) {
	narrative := strings.ToLower(turn.Narrative)
	for _, entity := range entities {
		if !strings.Contains(narrative, strings.ToLower(entity)) {
			return false, fmt.Sprintf("narrative does not reference %q", entity)
		}
	}
	return true, ""
}

func checkQuality(turn game.Turn) (bool, string) {
	if len(turn.Narrative) < 40 {
		return false, fmt.Sprintf("narrative too short (%d chars)", len(turn.Narrative))
	}
	if len(turn.Choices) < 3 || len(turn.Choices) > 4 {
		return false, fmt.Sprintf("expected 3-4 choices, got %d", len(turn.Choices))
	}
	return true, ""
}

func checkRule(turn game.Turn, spec *RollSpec) (bool, string) {
	if turn.Roll == nil {
		return false, "turn carries no roll result"
	}
	if turn.Roll.Target != spec.WantTarget {
		return false, fmt.Sprintf("target number %d, want %d", turn.Roll.Target, spec.WantTarget)
	}
	if turn.Roll.Cost != spec.WantCost {
		return false, fmt.Sprintf("effort cost %d, want %d", turn.Roll.Cost, spec.WantCost)
	}
	if turn.Roll.Die < 1 || turn.Roll.Die > 20 {
		return false, fmt.Sprintf("die value %d out of range", turn.Roll.Die)
	}
	if turn.Roll.Success != (turn.Roll.Die >= turn.Roll.Target) {
		return false, "success flag disagrees with die vs target"
	}
	return true, ""
}

func checkMoment(turn game.Turn, tag string) (bool, string) {
	for _, got := range turn.Tags {
		if got == tag {
			return true, ""
		}
	}
	return false, fmt.Sprintf("tags %v do not include %q", turn.Tags, tag)
}

func (r *Runner) checkMetrics(ctx context.Context, scenarioID string, turn game.Turn) (bool, string) {
	if turn.MetricID == "" {
		return false, "turn carries no metrics reference"
	}
	if r.reader == nil {
		return false, "no metrics reader configured"
	}
	if r.flush != nil {
		r.flush()
	}
	records, err := r.reader.ByScenario(ctx, scenarioID)
	if err != nil {
		return false, fmt.Sprintf("query metrics: %v", err)
	}
	for _, rec := range records {
		if rec.ID == turn.MetricID {
			if rec.Provider != r.provider {
				return false, fmt.Sprintf("record provider %q, want %q", rec.Provider, r.provider)
			}
			return true, ""
		}
	}
	return false, fmt.Sprintf("no record %s captured for scenario", turn.MetricID)
}
