package content

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/ssupercloud/nextdawn/internal/grok"
)

// Completer sends one chat completion to the LLM endpoint.
type Completer interface {
	Chat(ctx context.Context, req grok.ChatRequest) (*grok.ChatResponse, error)
}

// BackgroundSource returns a short news background for a market, or "" when none is found.
type BackgroundSource interface {
	Background(ctx context.Context, query, category string) (string, error)
}
