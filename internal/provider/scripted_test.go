package provider_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/provider"
)

func TestScriptedGatewayProducesWellFormedScenes(t *testing.T) {
	gw := provider.NewScriptedGateway()

	reply, err := gw.Request(context.Background(), provider.Request{
		System: "You are the game master.",
		Prompt: "Begin the adventure in the ruins of Melbourne.",
	})
	if err != nil {
		t.Fatalf("Request err: %v", err)
	}

	if !strings.HasPrefix(reply.Text, "SCENE:") {
		t.Fatalf("missing scene header: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "CHOICES:") {
		t.Fatalf("missing choices block: %q", reply.Text)
	}
	if !reply.TokensReported || reply.PromptTokens == 0 || reply.CompletionTokens == 0 {
		t.Fatalf("token counts not reported: %+v", reply)
	}
}

func TestScriptedGatewayEchoesKnownEntities(t *testing.T) {
	gw := provider.NewScriptedGateway()

	reply, err := gw.Request(context.Background(), provider.Request{
		Prompt: "Session digest (older events):\n- You met a trader.\nKnown entities: Kira, Shard Market\n\nThe player takes this action: \"ask about the gate\"",
	})
	if err != nil {
		t.Fatalf("Request err: %v", err)
	}

	if !strings.Contains(reply.Text, "Kira") {
		t.Fatalf("digest entity not echoed: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "Shard Market") {
		t.Fatalf("multi-word entity not echoed: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "ask about the gate") {
		t.Fatalf("player action not reflected: %q", reply.Text)
	}
}

func TestScriptedGatewayFailNext(t *testing.T) {
	gw := provider.NewScriptedGateway()
	fault := &provider.Error{Provider: gw.Name(), Kind: provider.KindTimeout, Err: errors.New("injected")}
	gw.FailNext(fault)

	_, err := gw.Request(context.Background(), provider.Request{Prompt: "anything"})
	if provider.KindOf(err) != provider.KindTimeout {
		t.Fatalf("expected injected timeout, got %v", err)
	}

	// The fault queue is drained; the next call succeeds.
	reply, err := gw.Request(context.Background(), provider.Request{Prompt: "anything"})
	if err != nil {
		t.Fatalf("Request after fault err: %v", err)
	}
	if reply.Text == "" {
		t.Fatal("empty reply after fault drained")
	}
}

func TestKindOf(t *testing.T) {
	wrapped := &provider.Error{Provider: "ark", Kind: provider.KindRateLimited, Err: errors.New("429")}
	if provider.KindOf(wrapped) != provider.KindRateLimited {
		t.Fatalf("unexpected kind: %s", provider.KindOf(wrapped))
	}
	if provider.KindOf(errors.New("plain")) != "" {
		t.Fatal("expected empty kind for plain error")
	}
	if provider.KindOf(nil) != "" {
		t.Fatal("expected empty kind for nil error")
	}
}
