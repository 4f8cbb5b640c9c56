package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
)

// Service loads and saves the single local player's profile.
type Service struct {
	store   Store
	id      string
	starter Profile
	logger  *zap.Logger

	mu     sync.Mutex
	prompt string
}

// NewService creates a Service for profile id.
//
// Precondition: store must be non-nil; id must be non-empty; starter must be
// valid. A nil logger disables logging.
func NewService(store Store, id string, starter Profile, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, id: id, starter: starter, logger: logger, prompt: starter.PortraitPrompt}
}

// ID returns the profile id this Service manages.
func (s *Service) ID() string { return s.id }

// Load returns the stored profile. A missing or corrupted profile yields the
// starting character instead of an error.
//
// Postcondition: Returns a valid Profile, or a non-nil error only when the
// store itself failed.
func (s *Service) Load(ctx context.Context) (Profile, error) {
	p, err := s.store.Load(ctx, s.id)
	switch {
	case err == nil:
		if p.PortraitPrompt != "" {
			s.setPrompt(p.PortraitPrompt)
		}
		return p, nil
	case errors.Is(err, ErrNotFound):
		s.logger.Info("no saved profile, using starting character", zap.String("profile_id", s.id))
		return s.starter, nil
	case errors.Is(err, ErrCorrupted):
		s.logger.Warn("saved profile corrupted, resetting to starting character",
			zap.String("profile_id", s.id),
			zap.Error(err),
		)
		return s.starter, nil
	default:
		return Profile{}, fmt.Errorf("loading profile %s: %w", s.id, err)
	}
}

// LoadPlayer loads the profile and builds a full-health player combatant.
func (s *Service) LoadPlayer(ctx context.Context) (*combat.Combatant, Profile, error) {
	p, err := s.Load(ctx)
	if err != nil {
		return nil, Profile{}, err
	}
	return p.ToCombatant(), p, nil
}

// SavePlayer persists the player's progression.
//
// Precondition: player must be non-nil.
func (s *Service) SavePlayer(ctx context.Context, player *combat.Combatant) error {
	p := FromCombatant(player, s.PortraitPrompt())
	if err := s.store.Save(ctx, s.id, p); err != nil {
		return fmt.Errorf("saving profile %s: %w", s.id, err)
	}
	s.logger.Debug("profile saved",
		zap.String("profile_id", s.id),
		zap.Int("level", p.Level),
		zap.Int("coins", p.Coins),
	)
	return nil
}

// PortraitPrompt returns the prompt of the most recently loaded profile.
func (s *Service) PortraitPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

func (s *Service) setPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
}

// Reset overwrites the stored profile with the starting character.
func (s *Service) Reset(ctx context.Context) (Profile, error) {
	if err := s.store.Save(ctx, s.id, s.starter); err != nil {
		return Profile{}, fmt.Errorf("resetting profile %s: %w", s.id, err)
	}
	s.setPrompt(s.starter.PortraitPrompt)
	s.logger.Info("profile reset", zap.String("profile_id", s.id))
	return s.starter, nil
}
