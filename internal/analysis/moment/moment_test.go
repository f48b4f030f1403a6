package moment_test

import (
	"testing"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/analysis/moment"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []moment.Tag
	}{
		{
			name: "combat",
			text: "The assailant strikes from the rooftop and the battle begins.",
			want: []moment.Tag{moment.Combat},
		},
		{
			name: "discovery",
			text: "Behind the collapsed wall you discover a hidden artifact.",
			want: []moment.Tag{moment.Discovery},
		},
		{
			name: "luminari encounter",
			text: "A radiant emissary of the Luminari descends from the spire.",
			want: []moment.Tag{moment.Luminari},
		},
		{
			name: "umbralari corruption",
			text: "Shadow pools around the corrupted tram, umbral tendrils reaching.",
			want: []moment.Tag{moment.Umbralari},
		},
		{
			name: "weave ability",
			text: "You channel nexus energy and cast a lance of flame.",
			want: []moment.Tag{moment.WeaveAbility},
		},
		{
			name: "multiple tags in taxonomy order",
			text: "The warlord attacks as you weave a shield of light.",
			want: []moment.Tag{moment.Combat, moment.Boss, moment.WeaveAbility},
		},
		{
			name: "quiet scene",
			text: "You walk along the empty riverbank and rest.",
			want: nil,
		},
		{
			name: "empty input",
			text: "   ",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := moment.Classify(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("Classify(%q) = %v, want %v", tc.text, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("Classify(%q) = %v, want %v", tc.text, got, tc.want)
				}
			}
		})
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	lower := moment.Classify("the LUMINARI appear in BATTLE")
	if len(lower) != 2 || lower[0] != moment.Combat || lower[1] != moment.Luminari {
		t.Fatalf("unexpected tags: %v", lower)
	}
}

func TestPrimaryPrefersHigherScore(t *testing.T) {
	// Two combat keywords against one discovery keyword.
	tag, ok := moment.Primary("You attack the enemy guarding the hidden door.")
	if !ok || tag != moment.Combat {
		t.Fatalf("unexpected primary: %v ok=%v", tag, ok)
	}

	if _, ok := moment.Primary("A calm and uneventful walk."); ok {
		t.Fatal("expected no primary tag for a quiet scene")
	}
}

func TestStrings(t *testing.T) {
	if got := moment.Strings(nil); got != nil {
		t.Fatalf("expected nil for empty tags, got %v", got)
	}
	got := moment.Strings([]moment.Tag{moment.Boss, moment.Combat})
	if len(got) != 2 || got[0] != "boss" || got[1] != "combat" {
		t.Fatalf("unexpected strings: %v", got)
	}
}
