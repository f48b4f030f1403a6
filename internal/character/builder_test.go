package character_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/character"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

func TestCreateWarrior(t *testing.T) {
	ch, err := character.Create("Ashka", "awakened", "warrior", "bears a heavy weapon")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	if ch.Tier != 1 {
		t.Fatalf("unexpected tier: got %d want 1", ch.Tier)
	}
	if ch.Might.Max != 10 || ch.Speed.Max != 9 || ch.Intellect.Max != 7 {
		t.Fatalf("unexpected pools: might=%d speed=%d intellect=%d", ch.Might.Max, ch.Speed.Max, ch.Intellect.Max)
	}
	if ch.Might.Current != ch.Might.Max {
		t.Fatalf("pool not full at creation: %d/%d", ch.Might.Current, ch.Might.Max)
	}
	if ch.Might.Edge != 1 || ch.Speed.Edge != 0 || ch.Intellect.Edge != 0 {
		t.Fatalf("unexpected edges: might=%d speed=%d intellect=%d", ch.Might.Edge, ch.Speed.Edge, ch.Intellect.Edge)
	}
	if ch.Skill("attacking") != game.Trained || ch.Skill("defending") != game.Trained {
		t.Fatalf("starting skills not trained: %v", ch.Skills)
	}
	if ch.Focus != "bears_a_heavy_weapon" {
		t.Fatalf("focus not normalized: %q", ch.Focus)
	}
}

func TestCreatePoolsTotalTwentySix(t *testing.T) {
	for _, archetype := range character.Archetypes() {
		ch, err := character.Create("Probe", "urban", archetype, "weaves the nexus")
		if err != nil {
			t.Fatalf("Create(%s) err: %v", archetype, err)
		}
		total := ch.Might.Max + ch.Speed.Max + ch.Intellect.Max
		if total != 26 {
			t.Fatalf("archetype %s pools total %d, want 26", archetype, total)
		}
	}
}

func TestCreateAtTierAddsPoolBonus(t *testing.T) {
	base, err := character.Create("Vex", "scholar", "adept", "shapes the weave")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	raised, err := character.CreateAtTier("Vex", "scholar", "adept", "shapes the weave", 3)
	if err != nil {
		t.Fatalf("CreateAtTier err: %v", err)
	}

	if raised.Might.Max != base.Might.Max+8 {
		t.Fatalf("unexpected tier-3 might: got %d want %d", raised.Might.Max, base.Might.Max+8)
	}
	if raised.Intellect.Max != base.Intellect.Max+8 {
		t.Fatalf("unexpected tier-3 intellect: got %d want %d", raised.Intellect.Max, base.Intellect.Max+8)
	}
}

func TestCreateIsPure(t *testing.T) {
	a, err := character.Create("Twin", "wild", "explorer", "moves like a ghost")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	b, err := character.Create("Twin", "wild", "explorer", "moves like a ghost")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	if a.Might != b.Might || a.Speed != b.Speed || a.Intellect != b.Intellect {
		t.Fatalf("identical inputs produced different sheets: %+v vs %+v", a, b)
	}
}

func TestCreateRejectsUnknownValues(t *testing.T) {
	cases := []struct {
		name       string
		descriptor string
		archetype  string
		focus      string
		field      string
	}{
		{"bad descriptor", "spooky", "warrior", "commands fire", "descriptor"},
		{"bad archetype", "awakened", "wizard", "commands fire", "archetype"},
		{"bad focus", "awakened", "warrior", "juggles knives", "focus"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := character.Create("Nope", tc.descriptor, tc.archetype, tc.focus)
			var validation *game.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validation.Field != tc.field {
				t.Fatalf("unexpected field: got %s want %s", validation.Field, tc.field)
			}
			if len(validation.Allowed) == 0 {
				t.Fatal("expected the catalog in the error")
			}
		})
	}
}

func TestCreateRejectsBlankNameAndBadTier(t *testing.T) {
	if _, err := character.Create("  ", "awakened", "warrior", "commands fire"); err == nil {
		t.Fatal("expected error for blank name")
	}
	if _, err := character.CreateAtTier("Vex", "awakened", "warrior", "commands fire", 0); err == nil {
		t.Fatal("expected error for tier 0")
	}
	if _, err := character.CreateAtTier("Vex", "awakened", "warrior", "commands fire", 7); err == nil {
		t.Fatal("expected error for tier 7")
	}
}

func TestCatalogListsSorted(t *testing.T) {
	for _, list := range [][]string{character.Archetypes(), character.Descriptors(), character.Foci()} {
		if len(list) == 0 {
			t.Fatal("empty catalog list")
		}
		joined := strings.Join(list, ",")
		for i := 1; i < len(list); i++ {
			if list[i-1] > list[i] {
				t.Fatalf("list not sorted: %s", joined)
			}
		}
	}
}
