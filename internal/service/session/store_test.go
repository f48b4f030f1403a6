package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/character"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/session"
)

func newSessionWithCharacter(t *testing.T, store *session.Store) (game.Session, *game.Character) {
	t.Helper()
	ctx := context.Background()

	sess, err := store.Create(ctx, "player-1", game.ModeSolo, "post-apocalyptic Melbourne")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	ch, err := character.Create("Ashka", "awakened", "warrior", "bears a heavy weapon")
	if err != nil {
		t.Fatalf("character.Create err: %v", err)
	}
	if err := store.SetCharacter(ctx, sess.ID, "player-1", ch); err != nil {
		t.Fatalf("SetCharacter err: %v", err)
	}
	return sess, ch
}

func TestCreateAndGet(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, "player-1", game.ModeSolo, "ruins")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if sess.Status != game.StatusActive {
		t.Fatalf("unexpected status: %s", sess.Status)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.ID != sess.ID || got.Theme != "ruins" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	store := session.NewStore()
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, game.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "", game.ModeSolo, ""); err == nil {
		t.Fatal("expected error for empty owner")
	}
	if _, err := store.Create(ctx, "player-1", game.Mode("duo"), ""); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestEndIsIdempotent(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, _ := newSessionWithCharacter(t, store)

	if err := store.End(ctx, sess.ID); err != nil {
		t.Fatalf("End err: %v", err)
	}
	if err := store.End(ctx, sess.ID); err != nil {
		t.Fatalf("second End err: %v", err)
	}
	if err := store.End(ctx, "missing"); !errors.Is(err, game.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if !got.Ended() {
		t.Fatal("session still active after End")
	}
}

func TestAppendTurnAfterEndFails(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, _ := newSessionWithCharacter(t, store)

	if err := store.End(ctx, sess.ID); err != nil {
		t.Fatalf("End err: %v", err)
	}
	_, err := store.AppendTurn(ctx, sess.ID, game.Turn{Actor: "gm", Narrative: "too late"})
	if !errors.Is(err, game.ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
}

func TestTurnSlotSerializes(t *testing.T) {
	store := session.NewStore()
	sess, _ := newSessionWithCharacter(t, store)

	if err := store.BeginTurn(sess.ID); err != nil {
		t.Fatalf("BeginTurn err: %v", err)
	}
	if err := store.BeginTurn(sess.ID); !errors.Is(err, game.ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}

	store.FinishTurn(sess.ID)
	if err := store.BeginTurn(sess.ID); err != nil {
		t.Fatalf("BeginTurn after release err: %v", err)
	}
}

func TestAppendTurnUpdatesChoices(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, _ := newSessionWithCharacter(t, store)

	first, err := store.AppendTurn(ctx, sess.ID, game.Turn{
		Actor:     "gm",
		Narrative: "A gate looms ahead.",
		Choices:   []string{"Open it", "Climb over", "Turn back"},
	})
	if err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("turn not stamped: %+v", first)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if len(got.Turns) != 1 {
		t.Fatalf("unexpected turn count: %d", len(got.Turns))
	}
	if len(got.Choices) != 3 || got.Choices[0] != "Open it" {
		t.Fatalf("choices not replaced: %v", got.Choices)
	}
}

func TestChoicelessTurnKeepsOfferedChoices(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, _ := newSessionWithCharacter(t, store)

	if _, err := store.AppendTurn(ctx, sess.ID, game.Turn{
		Actor:     "gm",
		Narrative: "A gate looms ahead.",
		Choices:   []string{"Open it", "Climb over", "Turn back"},
	}); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	roll := &game.RollResult{Pool: game.PoolMight, Difficulty: 3, Die: 14, Target: 9, Success: true, Cost: 0}
	if _, err := store.CommitRoll(ctx, sess.ID, "player-1", game.Turn{Actor: "player-1", Roll: roll}); err != nil {
		t.Fatalf("CommitRoll err: %v", err)
	}
	if _, err := store.AppendTurn(ctx, sess.ID, game.Turn{Actor: "gm", Narrative: "The gate groans."}); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if len(got.Choices) != 3 || got.Choices[0] != "Open it" {
		t.Fatalf("choices lost across choiceless turns: %v", got.Choices)
	}
}

func TestCommitRollDeductsAtomically(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, ch := newSessionWithCharacter(t, store)

	roll := &game.RollResult{Pool: game.PoolMight, Difficulty: 4, Effort: 1, Die: 12, Target: 9, Success: true, Cost: 3}
	turn, err := store.CommitRoll(ctx, sess.ID, "player-1", game.Turn{Actor: "player-1", Roll: roll})
	if err != nil {
		t.Fatalf("CommitRoll err: %v", err)
	}
	if turn.ID == "" {
		t.Fatal("turn not stamped")
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	want := ch.Might.Max - 3
	if got.Characters["player-1"].Might.Current != want {
		t.Fatalf("pool not deducted: got %d want %d", got.Characters["player-1"].Might.Current, want)
	}
	if len(got.Turns) != 1 || got.Turns[0].Roll == nil {
		t.Fatalf("roll turn not recorded: %+v", got.Turns)
	}
}

func TestCommitRollRejectsUnaffordableCost(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, ch := newSessionWithCharacter(t, store)

	roll := &game.RollResult{Pool: game.PoolMight, Cost: ch.Might.Max + 1}
	_, err := store.CommitRoll(ctx, sess.ID, "player-1", game.Turn{Actor: "player-1", Roll: roll})
	var insufficient *game.InsufficientPoolError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientPoolError, got %v", err)
	}

	got, _ := store.Get(ctx, sess.ID)
	if got.Characters["player-1"].Might.Current != ch.Might.Max {
		t.Fatal("pool touched by rejected commit")
	}
	if len(got.Turns) != 0 {
		t.Fatal("turn recorded by rejected commit")
	}
}

func TestCommitRollAfterEndLeavesPoolUntouched(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, ch := newSessionWithCharacter(t, store)

	if err := store.End(ctx, sess.ID); err != nil {
		t.Fatalf("End err: %v", err)
	}

	roll := &game.RollResult{Pool: game.PoolMight, Cost: 3}
	_, err := store.CommitRoll(ctx, sess.ID, "player-1", game.Turn{Actor: "player-1", Roll: roll})
	if !errors.Is(err, game.ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}

	got, _ := store.Get(ctx, sess.ID)
	if got.Characters["player-1"].Might.Current != ch.Might.Max {
		t.Fatal("pool deducted after session end")
	}
}

func TestCommitRecoveryRestoresUpToMax(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, ch := newSessionWithCharacter(t, store)

	roll := &game.RollResult{Pool: game.PoolMight, Cost: 4}
	if _, err := store.CommitRoll(ctx, sess.ID, "player-1", game.Turn{Actor: "player-1", Roll: roll}); err != nil {
		t.Fatalf("CommitRoll err: %v", err)
	}

	if _, err := store.CommitRecovery(ctx, sess.ID, "player-1", game.PoolMight, 100, game.Turn{Actor: "player-1", Narrative: "rest"}); err != nil {
		t.Fatalf("CommitRecovery err: %v", err)
	}

	got, _ := store.Get(ctx, sess.ID)
	if got.Characters["player-1"].Might.Current != ch.Might.Max {
		t.Fatalf("recovery overshot or undershot: got %d want %d", got.Characters["player-1"].Might.Current, ch.Might.Max)
	}
}

func TestCommitDamageDeductsAtomically(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, ch := newSessionWithCharacter(t, store)

	if _, err := store.CommitDamage(ctx, sess.ID, "player-1", game.PoolMight, 4, game.Turn{Actor: "player-1", Narrative: "hit"}); err != nil {
		t.Fatalf("CommitDamage err: %v", err)
	}

	got, _ := store.Get(ctx, sess.ID)
	want := ch.Might.Max - 4
	if got.Characters["player-1"].Might.Current != want {
		t.Fatalf("damage not applied: got %d want %d", got.Characters["player-1"].Might.Current, want)
	}
	if len(got.Turns) != 1 {
		t.Fatalf("damage turn not recorded: %d", len(got.Turns))
	}

	// Overkill floors at zero.
	if _, err := store.CommitDamage(ctx, sess.ID, "player-1", game.PoolMight, 100, game.Turn{Actor: "player-1", Narrative: "crushed"}); err != nil {
		t.Fatalf("CommitDamage err: %v", err)
	}
	got, _ = store.Get(ctx, sess.ID)
	if got.Characters["player-1"].Might.Current != 0 {
		t.Fatalf("pool went below zero: %d", got.Characters["player-1"].Might.Current)
	}
}

func TestCommitDamageAfterEndLeavesPoolUntouched(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, ch := newSessionWithCharacter(t, store)

	if err := store.End(ctx, sess.ID); err != nil {
		t.Fatalf("End err: %v", err)
	}

	_, err := store.CommitDamage(ctx, sess.ID, "player-1", game.PoolMight, 3, game.Turn{Actor: "player-1"})
	if !errors.Is(err, game.ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}

	got, _ := store.Get(ctx, sess.ID)
	if got.Characters["player-1"].Might.Current != ch.Might.Max {
		t.Fatal("damage applied after session end")
	}
}

func TestGetReturnsDeepCopy(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, _ := newSessionWithCharacter(t, store)

	first, _ := store.Get(ctx, sess.ID)
	first.Characters["player-1"].Might.Current = 1
	first.Theme = "mutated"

	second, _ := store.Get(ctx, sess.ID)
	if second.Characters["player-1"].Might.Current == 1 {
		t.Fatal("snapshot aliases live character state")
	}
	if second.Theme == "mutated" {
		t.Fatal("snapshot aliases live session state")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess, _ := newSessionWithCharacter(t, store)

	roll := &game.RollResult{Pool: game.PoolMight, Difficulty: 4, Effort: 1, Die: 18, Target: 9, Success: true, Cost: 3, Effect: game.EffectMinor}
	if _, err := store.CommitRoll(ctx, sess.ID, "player-1", game.Turn{Actor: "player-1", Roll: roll}); err != nil {
		t.Fatalf("CommitRoll err: %v", err)
	}
	if _, err := store.AppendTurn(ctx, sess.ID, game.Turn{
		Actor:     "gm",
		Narrative: "The blade bites deep.",
		Choices:   []string{"Press on", "Fall back", "Call out"},
		Tags:      []string{"combat"},
	}); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	rec, err := store.Export(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Export err: %v", err)
	}

	// Round-trip through JSON the way a client saving the record would.
	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal err: %v", err)
	}
	var decoded session.Record
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal err: %v", err)
	}

	fresh := session.NewStore()
	restored, err := fresh.Import(ctx, decoded)
	if err != nil {
		t.Fatalf("Import err: %v", err)
	}

	if restored.ID != sess.ID {
		t.Fatalf("id changed on import: got %s want %s", restored.ID, sess.ID)
	}
	if len(restored.Turns) != 2 {
		t.Fatalf("turn history truncated: got %d want 2", len(restored.Turns))
	}
	if restored.Turns[0].Roll == nil || restored.Turns[0].Roll.Die != 18 {
		t.Fatalf("roll detail lost: %+v", restored.Turns[0].Roll)
	}
	ch := restored.Characters["player-1"]
	if ch == nil {
		t.Fatal("character lost on import")
	}
	if ch.Might.Current != ch.Might.Max-3 {
		t.Fatalf("pool state lost: got %d want %d", ch.Might.Current, ch.Might.Max-3)
	}
	if ch.Skill("attacking") != game.Trained {
		t.Fatal("skills lost on import")
	}
}

func TestImportRejectsBadRecords(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()

	var persistence *game.PersistenceError

	_, err := store.Import(ctx, session.Record{Version: 99})
	if !errors.As(err, &persistence) {
		t.Fatalf("expected PersistenceError for bad version, got %v", err)
	}

	_, err = store.Import(ctx, session.Record{Version: 1, Session: game.Session{Status: game.StatusActive}})
	if !errors.As(err, &persistence) {
		t.Fatalf("expected PersistenceError for missing id, got %v", err)
	}

	_, err = store.Import(ctx, session.Record{Version: 1, Session: game.Session{ID: "x", Status: game.Status("paused")}})
	if !errors.As(err, &persistence) {
		t.Fatalf("expected PersistenceError for unknown status, got %v", err)
	}
}

func TestActiveListsOnlyLiveSessions(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()

	a, _ := store.Create(ctx, "player-1", game.ModeSolo, "")
	b, _ := store.Create(ctx, "player-2", game.ModeSolo, "")
	if err := store.End(ctx, b.ID); err != nil {
		t.Fatalf("End err: %v", err)
	}

	active := store.Active(ctx)
	if len(active) != 1 || active[0] != a.ID {
		t.Fatalf("unexpected active list: %v", active)
	}
}
