package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/profile"
)

// ProfileRepository implements profile.Store on the player_profiles table.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a ProfileRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Load retrieves the profile stored under id.
//
// Postcondition: Returns the Profile, profile.ErrNotFound, or an error
// wrapping profile.ErrCorrupted when the stored row fails validation.
func (r *ProfileRepository) Load(ctx context.Context, id string) (profile.Profile, error) {
	var (
		p         profile.Profile
		abilities []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT name, max_hp, attack, defense, speed, abilities,
		       level, xp, xp_to_next_level, coins, potions, portrait_prompt
		FROM player_profiles WHERE id = $1`,
		id,
	).Scan(
		&p.Name, &p.MaxHP, &p.Attack, &p.Defense, &p.Speed, &abilities,
		&p.Level, &p.XP, &p.XPToNextLevel, &p.Coins, &p.Potions, &p.PortraitPrompt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, fmt.Errorf("querying profile: %w", err)
	}
	if err := json.Unmarshal(abilities, &p.Abilities); err != nil {
		return profile.Profile{}, fmt.Errorf("%w: abilities column: %w", profile.ErrCorrupted, err)
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// Save inserts or replaces the profile stored under id.
//
// Precondition: id must be non-empty.
// Postcondition: Exactly one row exists for id, holding p.
func (r *ProfileRepository) Save(ctx context.Context, id string, p profile.Profile) error {
	abilities := p.Abilities
	if abilities == nil {
		abilities = []combat.Ability{}
	}
	raw, err := json.Marshal(abilities)
	if err != nil {
		return fmt.Errorf("encoding abilities: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO player_profiles
			(id, name, max_hp, attack, defense, speed, abilities,
			 level, xp, xp_to_next_level, coins, potions, portrait_prompt)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			max_hp = EXCLUDED.max_hp,
			attack = EXCLUDED.attack,
			defense = EXCLUDED.defense,
			speed = EXCLUDED.speed,
			abilities = EXCLUDED.abilities,
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			xp_to_next_level = EXCLUDED.xp_to_next_level,
			coins = EXCLUDED.coins,
			potions = EXCLUDED.potions,
			portrait_prompt = EXCLUDED.portrait_prompt,
			updated_at = NOW()`,
		id, p.Name, p.MaxHP, p.Attack, p.Defense, p.Speed, raw,
		p.Level, p.XP, p.XPToNextLevel, p.Coins, p.Potions, p.PortraitPrompt,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// Delete removes the profile stored under id.
//
// Postcondition: Returns profile.ErrNotFound if no row existed.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM player_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}
	return nil
}
