package gm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

func turnWith(input, narrative string) game.Turn {
	return game.Turn{Actor: "player-1", Input: input, Narrative: narrative}
}

func TestSplitWindow(t *testing.T) {
	turns := make([]game.Turn, 8)

	older, recent := splitWindow(turns, 5)
	if len(older) != 3 || len(recent) != 5 {
		t.Fatalf("unexpected split: older=%d recent=%d", len(older), len(recent))
	}

	older, recent = splitWindow(turns[:4], 5)
	if older != nil || len(recent) != 4 {
		t.Fatalf("short history should be all verbatim: older=%d recent=%d", len(older), len(recent))
	}

	older, recent = splitWindow(turns, 0)
	if len(older) != 7 || len(recent) != 1 {
		t.Fatalf("window floor not applied: older=%d recent=%d", len(older), len(recent))
	}
}

func TestDigestRetainsEntities(t *testing.T) {
	older := []game.Turn{
		turnWith("", "An old trader named Kira waves you over to her stall near the Flinders arch."),
		turnWith("ask Kira about the gate", "Kira warns you that the gate beyond Docklands is sealed."),
	}

	section := digest(older)
	if !strings.Contains(section, "Known entities:") {
		t.Fatalf("digest missing entity line: %q", section)
	}
	if !strings.Contains(section, "Kira") {
		t.Fatalf("NPC name not retained: %q", section)
	}
	if !strings.Contains(section, "Session digest") {
		t.Fatalf("digest missing header: %q", section)
	}
}

func TestDigestFiltersStopwords(t *testing.T) {
	older := []game.Turn{
		turnWith("", "You study the Nexus Weave over ruined Melbourne while Sergeant Hale watches."),
	}

	section := digest(older)
	if strings.Contains(section, "Known entities: Nexus") || strings.Contains(section, ", Nexus") {
		t.Fatalf("setting noun leaked into entities: %q", section)
	}
	if !strings.Contains(section, "Hale") {
		t.Fatalf("real name filtered out: %q", section)
	}
}

func TestDigestSummarizesRolls(t *testing.T) {
	older := []game.Turn{
		{Actor: "player-1", Roll: &game.RollResult{Pool: game.PoolMight, Difficulty: 4, Success: true}},
	}

	section := digest(older)
	if !strings.Contains(section, "might roll (difficulty 4) succeeded") {
		t.Fatalf("roll not summarized: %q", section)
	}
}

func TestDigestEmptyForNoOlderTurns(t *testing.T) {
	if section := digest(nil); section != "" {
		t.Fatalf("expected empty digest, got %q", section)
	}
}

func TestActionPromptBoundedContext(t *testing.T) {
	sess := &game.Session{}
	for i := 0; i < 9; i++ {
		sess.Turns = append(sess.Turns, turnWith("walk on", "The street stretches ahead."))
	}
	sess.Turns[0].Narrative = "A scavenger called Moss points you toward the river."

	ch := &game.Character{
		Name: "Ashka", Descriptor: "awakened", Archetype: "warrior", Focus: "bears_a_heavy_weapon",
		Might: game.StatPool{Current: 8, Max: 10},
	}

	prompt := actionPrompt(sess, ch, "follow the river", 5)

	if !strings.Contains(prompt, `"follow the river"`) {
		t.Fatalf("action missing: %q", prompt)
	}
	if !strings.Contains(prompt, "Session digest") {
		t.Fatalf("older turns not digested: %q", prompt)
	}
	if !strings.Contains(prompt, "Moss") {
		t.Fatalf("entity from beyond the window lost: %q", prompt)
	}
	if !strings.Contains(prompt, "Recent turns:") {
		t.Fatalf("verbatim window missing: %q", prompt)
	}
	if !strings.Contains(prompt, "Might: 8/10") {
		t.Fatalf("pool state missing: %q", prompt)
	}
	if !strings.Contains(prompt, "SCENE:") {
		t.Fatalf("response format missing: %q", prompt)
	}
}

func TestOpeningPrompt(t *testing.T) {
	ch := &game.Character{Descriptor: "awakened", Archetype: "warrior", Focus: "bears_a_heavy_weapon"}
	prompt := openingPrompt("river crossing", ch)

	if !strings.Contains(prompt, "I am a awakened warrior who bears_a_heavy_weapon") {
		t.Fatalf("character sentence missing: %q", prompt)
	}
	if !strings.Contains(prompt, "Theme: river crossing") {
		t.Fatalf("theme missing: %q", prompt)
	}

	bare := openingPrompt("", nil)
	if !strings.Contains(bare, "No character created yet") {
		t.Fatalf("characterless prompt wrong: %q", bare)
	}
}

func TestCompact(t *testing.T) {
	if got := compact("short  text", 80); got != "short text" {
		t.Fatalf("whitespace not normalized: %q", got)
	}
	long := strings.Repeat("word ", 40)
	got := compact(long, 30)
	if len(got) > 34 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long text not truncated cleanly: %q", got)
	}
}

func TestCompactCutsOnRuneBoundary(t *testing.T) {
	// No spaces, every rune two bytes: an odd byte limit lands mid-rune.
	text := strings.Repeat("é", 50)
	got := compact(text, 31)
	if !utf8.ValidString(got) {
		t.Fatalf("cut produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") || utf8.RuneCountInString(got) > 18 {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
