package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// ScriptedGateway is the local-model variant: a deterministic generator used
// when no remote backend is configured and as the backend for headless test
// scenarios. It produces well-formed SCENE/CHOICES responses and weaves
// entity names found in the request back into the scene, so context-retention
// checks exercise the real prompt-building path.
type ScriptedGateway struct {
	mu     sync.Mutex
	turn   int
	faults []error
}

// NewScriptedGateway returns an empty scripted gateway.
func NewScriptedGateway() *ScriptedGateway {
	return &ScriptedGateway{}
}

// Name identifies the provider variant.
func (g *ScriptedGateway) Name() string { return "local-model" }

// FailNext queues errors returned by subsequent Request calls, one each, in
// order. Used to exercise fallback paths.
func (g *ScriptedGateway) FailNext(errs ...error) {
	g.mu.Lock()
	g.faults = append(g.faults, errs...)
	g.mu.Unlock()
}

// Request generates a deterministic scene from the request content.
func (g *ScriptedGateway) Request(_ context.Context, req Request) (Reply, error) {
	g.mu.Lock()
	g.turn++
	turn := g.turn
	if len(g.faults) > 0 {
		err := g.faults[0]
		g.faults = g.faults[1:]
		g.mu.Unlock()
		return Reply{}, err
	}
	g.mu.Unlock()

	var scene strings.Builder
	fmt.Fprintf(&scene, "SCENE: The Weave shimmers over the ruined skyline as the story continues (beat %d). ", turn)
	if action := lastActionLine(req.Prompt); action != "" {
		fmt.Fprintf(&scene, "Your move to %s shifts the currents around you. ", strings.ToLower(action))
	}
	entities := knownEntities(req.Prompt)
	if len(entities) == 0 {
		entities = properNames(req.Prompt, 4)
	}
	if len(entities) > 0 {
		fmt.Fprintf(&scene, "Echoes of %s linger in the threads of the Weave.", strings.Join(entities, ", "))
	} else {
		scene.WriteString("The streets of old Melbourne hold their breath.")
	}

	scene.WriteString("\n\nCHOICES:\n")
	scene.WriteString("1. Press on through the ruins\n")
	scene.WriteString("2. Study the nearby Weave threads\n")
	scene.WriteString("3. Look for other survivors\n")
	scene.WriteString("4. Hold position and observe\n")

	text := scene.String()
	return Reply{
		Text:             text,
		PromptTokens:     len(strings.Fields(req.System)) + len(strings.Fields(req.Prompt)),
		CompletionTokens: len(strings.Fields(text)),
		TokensReported:   true,
	}, nil
}

// knownEntities reads the "Known entities:" digest line emitted by the
// prompt builder. Only entities the digest actually retained can be echoed.
func knownEntities(prompt string) []string {
	const marker = "Known entities: "
	idx := strings.LastIndex(prompt, marker)
	if idx < 0 {
		return nil
	}
	line := prompt[idx+len(marker):]
	if end := strings.IndexByte(line, '\n'); end >= 0 {
		line = line[:end]
	}
	var entities []string
	for _, part := range strings.Split(line, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			entities = append(entities, trimmed)
		}
	}
	if len(entities) > 4 {
		entities = entities[:4]
	}
	return entities
}

// lastActionLine pulls the quoted player action out of the prompt, if any.
func lastActionLine(prompt string) string {
	const marker = `takes this action: "`
	idx := strings.LastIndex(prompt, marker)
	if idx < 0 {
		return ""
	}
	rest := prompt[idx+len(marker):]
	if end := strings.Index(rest, `"`); end >= 0 {
		return rest[:end]
	}
	return ""
}

// properNames harvests up to limit capitalized names that do not open a
// sentence, preserving first-seen order.
func properNames(text string, limit int) []string {
	var names []string
	seen := make(map[string]struct{})
	sentenceStart := true
	for _, word := range strings.Fields(text) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		endsSentence := strings.ContainsAny(word, ".!?:")
		if trimmed == "" || sentenceStart || len(trimmed) < 3 {
			sentenceStart = endsSentence
			continue
		}
		sentenceStart = endsSentence
		first := []rune(trimmed)[0]
		if !unicode.IsUpper(first) {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		names = append(names, trimmed)
		if len(names) == limit {
			break
		}
	}
	return names
}
