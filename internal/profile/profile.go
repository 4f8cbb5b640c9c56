// Package profile defines the persisted player profile, the default starting
// character, and the Service that loads and saves it through a Store.
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/progression"
)

var (
	// ErrNotFound is returned by a Store when no profile exists for an id.
	ErrNotFound = errors.New("profile not found")
	// ErrCorrupted is returned when persisted data cannot be parsed or fails
	// validation.
	ErrCorrupted = errors.New("profile corrupted")
)

// DefaultPortraitPrompt describes the starting character's portrait.
const DefaultPortraitPrompt = "A heroic humanoid robot, the Code Warrior, gleaming with polished chrome " +
	"and circuits of pulsing blue light. Dynamic pose, ready for battle in a cyberspace arena, synthwave art style."

// Profile is the persisted subset of the player combatant. Battle-only state
// (current HP, defensive stance, statuses, cooldowns) is never stored.
type Profile struct {
	Name           string           `json:"name" yaml:"name"`
	MaxHP          int              `json:"max_hp" yaml:"max_hp"`
	Attack         int              `json:"attack" yaml:"attack"`
	Defense        int              `json:"defense" yaml:"defense"`
	Speed          int              `json:"speed" yaml:"speed"`
	Abilities      []combat.Ability `json:"abilities" yaml:"abilities"`
	Level          int              `json:"level" yaml:"level"`
	XP             int              `json:"xp" yaml:"xp"`
	XPToNextLevel  int              `json:"xp_to_next_level" yaml:"xp_to_next_level"`
	Coins          int              `json:"coins" yaml:"coins"`
	Potions        int              `json:"potions" yaml:"potions"`
	PortraitPrompt string           `json:"portrait_prompt,omitempty" yaml:"portrait_prompt"`
}

// Default returns the starting character.
func Default() Profile {
	return Profile{
		Name:    "Code Warrior",
		MaxHP:   150,
		Attack:  20,
		Defense: 10,
		Speed:   25,
		Abilities: []combat.Ability{
			{
				Name:         "Laser Pulse",
				Description:  "A focused beam of energy. Chance to Weaken the target, lowering their attack.",
				Power:        15,
				BaseCooldown: 0,
				AppliedStatus: &combat.AppliedStatus{
					Type:     combat.Weaken,
					Chance:   0.5,
					Duration: 2,
				},
			},
			{
				Name:         "Debug & Reboot",
				Description:  "Purge minor errors to heal.",
				Power:        -40,
				BaseCooldown: 4,
			},
		},
		Level:          1,
		XP:             0,
		XPToNextLevel:  progression.LevelXPBase,
		Coins:          0,
		Potions:        3,
		PortraitPrompt: DefaultPortraitPrompt,
	}
}

// Validate reports whether p is usable as a player profile.
//
// Postcondition: Returns nil or an error wrapping ErrCorrupted.
func (p Profile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if p.MaxHP <= 0 {
		errs = append(errs, fmt.Errorf("max_hp must be positive, got %d", p.MaxHP))
	}
	if p.Attack < 0 || p.Defense < 0 || p.Speed < 0 {
		errs = append(errs, errors.New("attack, defense and speed must not be negative"))
	}
	if p.Level < 1 {
		errs = append(errs, fmt.Errorf("level must be >= 1, got %d", p.Level))
	}
	if p.XP < 0 || p.XPToNextLevel <= 0 {
		errs = append(errs, fmt.Errorf("invalid xp %d/%d", p.XP, p.XPToNextLevel))
	}
	if p.Coins < 0 || p.Potions < 0 {
		errs = append(errs, errors.New("coins and potions must not be negative"))
	}
	for _, a := range p.Abilities {
		if a.Name == "" {
			errs = append(errs, errors.New("ability name must not be empty"))
		}
		if a.AppliedStatus != nil {
			if _, err := combat.ParseStatusType(string(a.AppliedStatus.Type)); err != nil {
				errs = append(errs, fmt.Errorf("ability %q: %w", a.Name, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCorrupted, errors.Join(errs...))
	}
	return nil
}

// ToCombatant builds a fresh player combatant at full health.
func (p Profile) ToCombatant() *combat.Combatant {
	c := &combat.Combatant{
		Kind:      combat.KindPlayer,
		Name:      p.Name,
		MaxHP:     p.MaxHP,
		Attack:    p.Attack,
		Defense:   p.Defense,
		Speed:     p.Speed,
		Abilities: cloneAbilities(p.Abilities),
		Progress: &combat.Progress{
			Level:         p.Level,
			XP:            p.XP,
			XPToNextLevel: p.XPToNextLevel,
			Coins:         p.Coins,
			Potions:       p.Potions,
		},
	}
	c.Reset()
	return c
}

// FromCombatant captures the persistable fields of a player combatant.
// portraitPrompt is carried over unchanged since the combatant has no
// portrait of its own.
//
// Precondition: c must be non-nil.
func FromCombatant(c *combat.Combatant, portraitPrompt string) Profile {
	p := Profile{
		Name:           c.Name,
		MaxHP:          c.MaxHP,
		Attack:         c.Attack,
		Defense:        c.Defense,
		Speed:          c.Speed,
		Abilities:      cloneAbilities(c.Abilities),
		PortraitPrompt: portraitPrompt,
	}
	for i := range p.Abilities {
		p.Abilities[i].CurrentCooldown = 0
	}
	if c.Progress != nil {
		p.Level = c.Progress.Level
		p.XP = c.Progress.XP
		p.XPToNextLevel = c.Progress.XPToNextLevel
		p.Coins = c.Progress.Coins
		p.Potions = c.Progress.Potions
	}
	return p
}

func cloneAbilities(in []combat.Ability) []combat.Ability {
	out := make([]combat.Ability, len(in))
	copy(out, in)
	for i, a := range in {
		if a.AppliedStatus != nil {
			as := *a.AppliedStatus
			out[i].AppliedStatus = &as
		}
	}
	return out
}

// Encode serializes p as JSON for key-value and file stores.
func Encode(p Profile) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding profile: %w", err)
	}
	return data, nil
}

// Decode parses and validates a JSON profile.
//
// Postcondition: Returns a valid Profile or an error wrapping ErrCorrupted.
func Decode(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadStarter reads a starting character from a YAML file.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns a valid Profile or a non-nil error.
func LoadStarter(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading starter %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var p Profile
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("parsing starter %s: %w", path, err)
	}
	if p.XPToNextLevel == 0 {
		p.XPToNextLevel = progression.XPToNextLevel(p.Level)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("starter %s: %w", path, err)
	}
	return p, nil
}
