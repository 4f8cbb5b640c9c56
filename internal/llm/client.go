// Package llm implements the enemy content provider on top of the Anthropic
// Messages API: enemy stat blocks and per-turn decisions are requested as JSON.
package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessageCreator is the subset of the Anthropic client used by EnemyProvider.
// *anthropic.MessageService satisfies it.
type MessageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// NewMessageCreator builds an Anthropic Messages client.
//
// Precondition: apiKey must be non-empty.
func NewMessageCreator(apiKey string, maxRetries int) MessageCreator {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	)
	return &client.Messages
}
