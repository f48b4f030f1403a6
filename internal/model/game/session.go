package game

import "time"

// Mode selects how many participants a session hosts.
type Mode string

const (
	ModeSolo  Mode = "solo"
	ModeParty Mode = "party"
)

// Status tracks the session lifecycle.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Turn is one immutable entry in a session's history. Once appended it is
// never mutated.
type Turn struct {
	ID          string      `json:"id"`
	Actor       string      `json:"actor"`
	ChoiceIndex int         `json:"choiceIndex,omitempty"` // 1-4 when the input was a numbered choice
	Input       string      `json:"input,omitempty"`
	Narrative   string      `json:"narrative"`
	Choices     []string    `json:"choices,omitempty"`
	Roll        *RollResult `json:"roll,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	MetricID    string      `json:"metricId,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Session captures one running adventure and everything it owns.
type Session struct {
	ID           string                `json:"id"`
	Owner        string                `json:"owner"`
	Mode         Mode                  `json:"mode"`
	Theme        string                `json:"theme,omitempty"`
	Status       Status                `json:"status"`
	Characters   map[string]*Character `json:"characters,omitempty"` // participant id -> sheet
	Turns        []Turn                `json:"turns,omitempty"`
	Choices      []string              `json:"choices,omitempty"` // currently offered, 0-4 items
	CreatedAt    time.Time             `json:"createdAt"`
	LastActiveAt time.Time             `json:"lastActiveAt"`
}

// Character returns the sheet for a participant, or nil when none was created.
func (s *Session) Character(participant string) *Character {
	if s.Characters == nil {
		return nil
	}
	return s.Characters[participant]
}

// Ended reports whether the session refuses further turns.
func (s *Session) Ended() bool {
	return s.Status == StatusEnded
}
