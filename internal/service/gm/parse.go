package gm

import (
	"regexp"
	"strings"
)

const (
	minChoices = 3
	maxChoices = 4
)

var (
	sceneRe   = regexp.MustCompile(`(?is)SCENE:\s*(.+?)(?:CHOICES:|$)`)
	choicesRe = regexp.MustCompile(`(?is)CHOICES:\s*(.+)$`)
	choiceRe  = regexp.MustCompile(`(?m)^\s*\d+\.\s*(.+)$`)
)

// defaultChoices keeps the turn playable when the model ignores the format.
var defaultChoices = []string{
	"Continue exploring",
	"Investigate further",
	"Take a different approach",
	"Rest and recover",
}

// parseResponse splits a generation into the scene description and the
// offered choices, topping up or clamping so the caller always gets between
// three and four options.
func parseResponse(text string) (string, []string) {
	scene := strings.TrimSpace(text)
	if m := sceneRe.FindStringSubmatch(text); m != nil {
		scene = strings.TrimSpace(m[1])
	}

	var choices []string
	if m := choicesRe.FindStringSubmatch(text); m != nil {
		for _, line := range choiceRe.FindAllStringSubmatch(m[1], -1) {
			if choice := strings.TrimSpace(line[1]); choice != "" {
				choices = append(choices, choice)
			}
		}
	}

	for i := 0; len(choices) < minChoices && i < len(defaultChoices); i++ {
		if !containsFold(choices, defaultChoices[i]) {
			choices = append(choices, defaultChoices[i])
		}
	}
	if len(choices) > maxChoices {
		choices = choices[:maxChoices]
	}
	return scene, choices
}

func containsFold(list []string, want string) bool {
	for _, item := range list {
		if strings.EqualFold(item, want) {
			return true
		}
	}
	return false
}
