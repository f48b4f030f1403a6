// Package session owns session lifecycle and in-memory state.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
)

// Store encapsulates session state management. Mutations on one session are
// serialized under the store lock; Get hands out deep copies so callers never
// alias live state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	inFlight map[string]struct{}
}

// NewStore bootstraps the in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*game.Session),
		inFlight: make(map[string]struct{}),
	}
}

// Create provisions an active session owned by the given participant.
func (s *Store) Create(_ context.Context, owner string, mode game.Mode, theme string) (game.Session, error) {
	if owner == "" {
		return game.Session{}, game.NewValidationError("owner", owner)
	}
	if mode != game.ModeSolo && mode != game.ModeParty {
		return game.Session{}, game.NewValidationError("mode", string(mode), string(game.ModeSolo), string(game.ModeParty))
	}

	now := time.Now().UTC()
	sess := &game.Session{
		ID:           uuid.NewString(),
		Owner:        owner,
		Mode:         mode,
		Theme:        theme,
		Status:       game.StatusActive,
		Characters:   make(map[string]*game.Character),
		CreatedAt:    now,
		LastActiveAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return *snapshot(sess), nil
}

// Get retrieves a deep copy of a session by identifier.
func (s *Store) Get(_ context.Context, id string) (game.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return game.Session{}, game.ErrSessionNotFound
	}
	return *snapshot(sess), nil
}

// End transitions a session to ended. Ending an already-ended session is a
// no-op; only a missing session is an error.
func (s *Store) End(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return game.ErrSessionNotFound
	}
	sess.Status = game.StatusEnded
	sess.LastActiveAt = time.Now().UTC()
	return nil
}

// SetCharacter binds a character sheet to a participant.
func (s *Store) SetCharacter(_ context.Context, id, participant string, ch *game.Character) error {
	if participant == "" {
		return game.NewValidationError("participant", participant)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return game.ErrSessionNotFound
	}
	if sess.Ended() {
		return game.ErrSessionEnded
	}
	if sess.Characters == nil {
		sess.Characters = make(map[string]*game.Character)
	}
	sess.Characters[participant] = ch.Clone()
	sess.LastActiveAt = time.Now().UTC()
	return nil
}

// BeginTurn claims the single turn slot for a session. A second claim while
// one is outstanding fails with ErrTurnInFlight, which keeps history ordering
// and pool mutation strictly serialized per session.
func (s *Store) BeginTurn(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return game.ErrSessionNotFound
	}
	if sess.Ended() {
		return game.ErrSessionEnded
	}
	if _, busy := s.inFlight[id]; busy {
		return game.ErrTurnInFlight
	}
	s.inFlight[id] = struct{}{}
	return nil
}

// FinishTurn releases the turn slot claimed by BeginTurn.
func (s *Store) FinishTurn(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// AppendTurn appends one turn to an active session. A turn that offers
// choices replaces the session's offered choices; one that offers none leaves
// them in place. Turns are never appended to an ended session.
func (s *Store) AppendTurn(_ context.Context, id string, turn game.Turn) (game.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return game.Turn{}, game.ErrSessionNotFound
	}
	if sess.Ended() {
		return game.Turn{}, game.ErrSessionEnded
	}
	appendTurnLocked(sess, &turn)
	return turn, nil
}

// CommitRoll applies a resolved roll as one atomic unit: the effort cost is
// deducted from the acting character's pool and the turn recording the roll is
// appended under the same lock. If the session ended in the meantime, neither
// happens.
func (s *Store) CommitRoll(_ context.Context, id, actor string, turn game.Turn) (game.Turn, error) {
	if turn.Roll == nil {
		return game.Turn{}, game.NewValidationError("roll", "")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return game.Turn{}, game.ErrSessionNotFound
	}
	if sess.Ended() {
		return game.Turn{}, game.ErrSessionEnded
	}
	ch := sess.Character(actor)
	if ch == nil {
		return game.Turn{}, game.NewValidationError("actor", actor)
	}
	pool, ok := ch.Pool(turn.Roll.Pool)
	if !ok {
		return game.Turn{}, game.NewValidationError("pool", string(turn.Roll.Pool))
	}
	if turn.Roll.Cost > pool.Current {
		return game.Turn{}, &game.InsufficientPoolError{Pool: turn.Roll.Pool, Cost: turn.Roll.Cost, Current: pool.Current}
	}
	pool.Spend(turn.Roll.Cost)
	appendTurnLocked(sess, &turn)
	return turn, nil
}

// CommitRecovery restores points to a pool and appends the turn recording the
// recovery, atomically.
func (s *Store) CommitRecovery(_ context.Context, id, actor string, pool game.PoolName, points int, turn game.Turn) (game.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return game.Turn{}, game.ErrSessionNotFound
	}
	if sess.Ended() {
		return game.Turn{}, game.ErrSessionEnded
	}
	ch := sess.Character(actor)
	if ch == nil {
		return game.Turn{}, game.NewValidationError("actor", actor)
	}
	statPool, ok := ch.Pool(pool)
	if !ok {
		return game.Turn{}, game.NewValidationError("pool", string(pool))
	}
	statPool.Restore(points)
	appendTurnLocked(sess, &turn)
	return turn, nil
}

// CommitDamage deducts incoming damage from a pool, never below zero, and
// appends the turn recording it, atomically.
func (s *Store) CommitDamage(_ context.Context, id, actor string, pool game.PoolName, damage int, turn game.Turn) (game.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return game.Turn{}, game.ErrSessionNotFound
	}
	if sess.Ended() {
		return game.Turn{}, game.ErrSessionEnded
	}
	ch := sess.Character(actor)
	if ch == nil {
		return game.Turn{}, game.NewValidationError("actor", actor)
	}
	statPool, ok := ch.Pool(pool)
	if !ok {
		return game.Turn{}, game.NewValidationError("pool", string(pool))
	}
	statPool.Spend(damage)
	appendTurnLocked(sess, &turn)
	return turn, nil
}

// Active lists ids of sessions still accepting turns.
func (s *Store) Active(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if !sess.Ended() {
			ids = append(ids, id)
		}
	}
	return ids
}

func appendTurnLocked(sess *game.Session, turn *game.Turn) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	sess.Turns = append(sess.Turns, *turn)
	// Rolls, recoveries and intrusions carry no choices; the ones on offer
	// stay valid until a narrative turn replaces them.
	if turn.Choices != nil {
		sess.Choices = append([]string(nil), turn.Choices...)
	}
	sess.LastActiveAt = turn.CreatedAt
}

// snapshot deep-copies a session.
func snapshot(sess *game.Session) *game.Session {
	clone := *sess
	clone.Turns = append([]game.Turn(nil), sess.Turns...)
	for i := range clone.Turns {
		clone.Turns[i].Choices = append([]string(nil), clone.Turns[i].Choices...)
		clone.Turns[i].Tags = append([]string(nil), clone.Turns[i].Tags...)
		if clone.Turns[i].Roll != nil {
			roll := *clone.Turns[i].Roll
			clone.Turns[i].Roll = &roll
		}
	}
	clone.Choices = append([]string(nil), sess.Choices...)
	clone.Characters = make(map[string]*game.Character, len(sess.Characters))
	for participant, ch := range sess.Characters {
		clone.Characters[participant] = ch.Clone()
	}
	return &clone
}
