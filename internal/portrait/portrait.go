// Package portrait resolves combatant portraits asynchronously, substituting a
// deterministic placeholder whenever generation is disabled or fails.
package portrait

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSize is the edge length in pixels of every resolved portrait.
const DefaultSize = 256

// Handle is a resolved portrait.
type Handle struct {
	ID      uuid.UUID
	Subject string
	// PNG is the encoded square portrait.
	PNG []byte
	// Placeholder is true when PNG is the generated fallback rather than
	// provider artwork.
	Placeholder bool
}

// Generator produces raw image bytes for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Resolver turns prompts into portrait handles without blocking the caller.
type Resolver struct {
	gen    Generator
	size   int
	logger *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: gen may be nil, in which case every portrait is a placeholder.
// size <= 0 selects DefaultSize. A nil logger disables logging.
func NewResolver(gen Generator, size int, logger *zap.Logger) *Resolver {
	if size <= 0 {
		size = DefaultSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{gen: gen, size: size, logger: logger}
}

// Resolve starts resolving a portrait for subject and returns immediately.
//
// Postcondition: The returned channel yields exactly one Handle and is then
// closed. Generation errors and cancellation of ctx yield a placeholder.
func (r *Resolver) Resolve(ctx context.Context, subject, prompt string) <-chan Handle {
	out := make(chan Handle, 1)
	go func() {
		defer close(out)
		out <- r.resolve(ctx, subject, prompt)
	}()
	return out
}

func (r *Resolver) resolve(ctx context.Context, subject, prompt string) Handle {
	h := Handle{ID: uuid.New(), Subject: subject}
	if r.gen != nil && prompt != "" {
		raw, err := r.gen.Generate(ctx, prompt)
		if err == nil {
			raw, err = Normalize(raw, r.size)
		}
		if err == nil {
			h.PNG = raw
			return h
		}
		r.logger.Warn("portrait generation failed, using placeholder",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
	png, err := Placeholder(subject, r.size)
	if err != nil {
		r.logger.Error("rendering placeholder portrait", zap.String("subject", subject), zap.Error(err))
	}
	h.PNG = png
	h.Placeholder = true
	return h
}
