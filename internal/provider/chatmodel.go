package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ChatModelGateway adapts an eino chat model (the Ark variant in production)
// to the Gateway interface through a prompt-template + model chain.
type ChatModelGateway struct {
	name  string
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChatModelGateway compiles the generation chain around the supplied chat
// model. The gateway name identifies the variant in metrics records.
func NewChatModelGateway(ctx context.Context, name string, chatModel model.ChatModel) (*ChatModelGateway, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation chain: %w", err)
	}

	return &ChatModelGateway{name: name, chain: runnable}, nil
}

// Name identifies the provider variant.
func (g *ChatModelGateway) Name() string { return g.name }

// Request runs one generation. Upstream failures are classified into provider
// error kinds; the caller decides whether to retry or fall back.
func (g *ChatModelGateway) Request(ctx context.Context, req Request) (Reply, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{
		"system": req.System,
		"query":  req.Prompt,
	})
	if err != nil {
		return Reply{}, &Error{Provider: g.name, Kind: classify(err), Err: err}
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return Reply{}, &Error{Provider: g.name, Kind: KindMalformed, Err: errors.New("empty completion")}
	}

	reply := Reply{Text: response.Content}
	if response.ResponseMeta != nil && response.ResponseMeta.Usage != nil {
		reply.PromptTokens = response.ResponseMeta.Usage.PromptTokens
		reply.CompletionTokens = response.ResponseMeta.Usage.CompletionTokens
		reply.TokensReported = true
	}
	return reply, nil
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return KindRateLimited
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return KindTimeout
	case strings.Contains(msg, "unmarshal") || strings.Contains(msg, "decode") || strings.Contains(msg, "parse"):
		return KindMalformed
	default:
		return KindUnavailable
	}
}
