package gm

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

// systemPrompt frames every generation request with the world bible and the
// ruleset the narrator must respect.
const systemPrompt = `You are the Game Master for a Nexus Arcanum tabletop RPG session using the Cypher System.

NEXUS ARCANUM WORLD:
- Post-apocalyptic urban fantasy set in Melbourne, Australia
- The Nexus Awakening released magic into the world
- Weavers can use Nexus Affinities (Fire, Water, Earth, Air, Ethereal abilities)
- The Nexus Weave connects all living things through magical threads
- Luminari: ethereal light beings, guardians
- Umbralari: corrupted Luminari, antagonists
- WyldePhyre communities: built on voluntary cooperation and mutual aid

CYPHER SYSTEM RULES:
- Characters have 3 stat pools: Might, Speed, Intellect
- Tasks have difficulty 0-10 (target number = difficulty x 3)
- Players roll d20 and must meet or exceed the target number
- Effort reduces difficulty and costs pool points
- Skills reduce difficulty (Trained -1, Specialized -2)
- GM Intrusions offer complications for 2 XP

YOUR ROLE:
- Generate vivid, immersive scenes and present 3-4 numbered choices
- Allow free-form actions
- Remember NPCs, locations and events from earlier in the session
- Maintain consistency with established lore`

// responseFormat tells the model how to shape output so it can be parsed.
const responseFormat = `Format your response as:
SCENE: [vivid scene description]

CHOICES:
1. [First option]
2. [Second option]
3. [Third option]
4. [Optional fourth option]`

// digestStopwords are capitalized words that appear constantly in narration
// and carry no entity value.
var digestStopwords = map[string]struct{}{
	"Might": {}, "Speed": {}, "Intellect": {}, "Nexus": {}, "Weave": {},
	"Melbourne": {}, "Luminari": {}, "Umbralari": {}, "Weaver": {},
	"Weavers": {}, "The": {}, "You": {}, "Your": {}, "SCENE": {}, "CHOICES": {},
	"Australia": {}, "WyldePhyre": {}, "Awakening": {}, "Cypher": {},
}

func openingPrompt(theme string, ch *game.Character) string {
	var b strings.Builder
	b.WriteString("Generate an opening scene for a Nexus Arcanum adventure.\n\n")
	if ch != nil {
		fmt.Fprintf(&b, "Character: %s\n", ch.Sentence())
	} else {
		b.WriteString("No character created yet\n")
	}
	if theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", theme)
	}
	b.WriteString("\nSet the scene in post-apocalyptic Melbourne, introduce an immediate situation, and present 3-4 clear choices.\n\n")
	b.WriteString(responseFormat)
	return b.String()
}

// actionPrompt assembles the bounded turn context: a digest of everything
// older than the verbatim window, the most recent turns verbatim, and the
// acting character's sheet.
func actionPrompt(sess *game.Session, ch *game.Character, action string, recentWindow int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The player takes this action: %q\n\n", action)

	older, recent := splitWindow(sess.Turns, recentWindow)
	if section := digest(older); section != "" {
		b.WriteString(section)
		b.WriteString("\n")
	}
	if len(recent) > 0 {
		b.WriteString("Recent turns:\n")
		for _, turn := range recent {
			if turn.Input != "" {
				fmt.Fprintf(&b, "Player: %s\n", turn.Input)
			}
			fmt.Fprintf(&b, "GM: %s\n", turn.Narrative)
		}
		b.WriteString("\n")
	}
	if ch != nil {
		fmt.Fprintf(&b, "Player Character: %s\n", ch.Sentence())
		fmt.Fprintf(&b, "Current Pools - Might: %d/%d, Speed: %d/%d, Intellect: %d/%d\n\n",
			ch.Might.Current, ch.Might.Max,
			ch.Speed.Current, ch.Speed.Max,
			ch.Intellect.Current, ch.Intellect.Max)
	}

	b.WriteString("Describe what happens as a result of this action, maintain consistency with previous events, and present 3-4 new choices.\n\n")
	b.WriteString(responseFormat)
	return b.String()
}

func splitWindow(turns []game.Turn, recentWindow int) (older, recent []game.Turn) {
	if recentWindow < 1 {
		recentWindow = 1
	}
	if len(turns) <= recentWindow {
		return nil, turns
	}
	return turns[:len(turns)-recentWindow], turns[len(turns)-recentWindow:]
}

// digest condenses turns beyond the verbatim window. It is derived from the
// actual prior content: one event line per turn plus the named entities
// harvested from the narration, so references survive the retention boundary
// instead of being truncated away.
func digest(older []game.Turn) string {
	if len(older) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Session digest (older events):\n")

	var entities []string
	seen := make(map[string]struct{})
	for _, turn := range older {
		line := eventLine(turn)
		if line != "" {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		for _, name := range extractEntities(turn.Input + ". " + turn.Narrative) {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			entities = append(entities, name)
		}
	}
	if len(entities) > 0 {
		fmt.Fprintf(&b, "Known entities: %s\n", strings.Join(entities, ", "))
	}
	return b.String()
}

func eventLine(turn game.Turn) string {
	switch {
	case turn.Roll != nil:
		outcome := "failed"
		if turn.Roll.Success {
			outcome = "succeeded"
		}
		return fmt.Sprintf("%s roll (difficulty %d) %s", turn.Roll.Pool, turn.Roll.Difficulty, outcome)
	case turn.Input != "":
		line := fmt.Sprintf("player: %s", compact(turn.Input, 80))
		if len(turn.Tags) > 0 {
			line += fmt.Sprintf(" [%s]", strings.Join(turn.Tags, ", "))
		}
		return line
	default:
		return compact(turn.Narrative, 80)
	}
}

// extractEntities harvests capitalized names that do not open a sentence,
// first-seen order, stopwords removed.
func extractEntities(text string) []string {
	var names []string
	seen := make(map[string]struct{})
	sentenceStart := true
	for _, word := range strings.Fields(text) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		wasStart := sentenceStart
		sentenceStart = strings.ContainsAny(word, ".!?:")
		if trimmed == "" || wasStart || len(trimmed) < 3 {
			continue
		}
		runes := []rune(trimmed)
		if !unicode.IsUpper(runes[0]) {
			continue
		}
		if _, stop := digestStopwords[trimmed]; stop {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		names = append(names, trimmed)
	}
	return names
}

func compact(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= limit {
		return text
	}
	// Back off to a rune boundary so the cut never splits a multibyte rune.
	end := limit
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
