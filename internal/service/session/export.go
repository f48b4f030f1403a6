package session

import (
	"context"
	"errors"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

// recordVersion tags exported records so future format changes can be
// detected on import.
const recordVersion = 1

// Record is the sole persisted representation of a session: metadata, full
// character state and the complete turn history.
type Record struct {
	Version int          `json:"version"`
	Session game.Session `json:"session"`
}

// Export captures a serializable record of the session.
func (s *Store) Export(ctx context.Context, id string) (Record, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, &game.PersistenceError{Op: "export session", Err: err}
	}
	return Record{Version: recordVersion, Session: sess}, nil
}

// Import reconstructs a session from a record, including exact pool values,
// inventory, skills and the turn history in original order. An existing
// session with the same id is replaced.
func (s *Store) Import(_ context.Context, rec Record) (game.Session, error) {
	if rec.Version != recordVersion {
		return game.Session{}, &game.PersistenceError{Op: "import session", Err: errors.New("unsupported record version")}
	}
	if rec.Session.ID == "" {
		return game.Session{}, &game.PersistenceError{Op: "import session", Err: errors.New("record has no session id")}
	}
	if rec.Session.Status != game.StatusActive && rec.Session.Status != game.StatusEnded {
		return game.Session{}, &game.PersistenceError{Op: "import session", Err: errors.New("record has an unknown session status")}
	}

	restored := snapshot(&rec.Session)
	if restored.Characters == nil {
		restored.Characters = make(map[string]*game.Character)
	}

	s.mu.Lock()
	s.sessions[restored.ID] = restored
	s.mu.Unlock()

	return *snapshot(restored), nil
}
