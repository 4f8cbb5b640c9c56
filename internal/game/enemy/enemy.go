// Package enemy defines the contract between the battle controller and the
// external systems that supply enemy stat blocks and per-turn decisions, plus
// the static fallbacks used when those systems fail.
package enemy

import (
	"context"
	"errors"
	"fmt"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
)

//go:generate mockgen -destination=mocks/provider.go -package=enemymocks -source=enemy.go

// ErrProvider matches every *ProviderError via errors.Is.
var ErrProvider = errors.New("enemy provider failure")

// ProviderError reports a failed fetch from an enemy content provider.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("enemy provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is reports whether target is ErrProvider.
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Definition is an enemy stat block. Values are used as supplied; no range
// validation is applied.
type Definition struct {
	Name           string           `json:"name" yaml:"name"`
	Level          int              `json:"level" yaml:"level"`
	MaxHP          int              `json:"hp" yaml:"hp"`
	Attack         int              `json:"attack" yaml:"attack"`
	Defense        int              `json:"defense" yaml:"defense"`
	Speed          int              `json:"speed" yaml:"speed"`
	Abilities      []combat.Ability `json:"abilities" yaml:"abilities"`
	PortraitPrompt string           `json:"imagePrompt" yaml:"portrait_prompt"`
}

// Hint carries context a provider may use to tailor the enemy it generates.
type Hint struct {
	PlayerName  string
	PlayerLevel int
}

// LogLine is one battle log entry as seen by a decision provider.
type LogLine struct {
	Turn    int
	Message string
}

// DecisionRequest is the snapshot a provider decides from. Enemy and Player
// are copies; providers may not retain or mutate live battle state.
type DecisionRequest struct {
	Enemy     *combat.Combatant
	Player    *combat.Combatant
	RecentLog []LogLine
}

// DecisionKind is the action an enemy chooses.
type DecisionKind int

const (
	DecideAttack DecisionKind = iota
	DecideAbility
	DecideDefend
)

// String returns a human-readable decision label.
func (k DecisionKind) String() string {
	switch k {
	case DecideAttack:
		return "attack"
	case DecideAbility:
		return "use_ability"
	case DecideDefend:
		return "defend"
	default:
		return "unknown"
	}
}

// Decision is the enemy's chosen action for one turn.
type Decision struct {
	Kind           DecisionKind
	AbilityIndex   int
	Narration      string
	NextIntentHint string
}

// DefinitionSource produces enemy stat blocks.
type DefinitionSource interface {
	FetchDefinition(ctx context.Context, hint Hint) (Definition, error)
}

// Decider produces per-turn enemy decisions.
type Decider interface {
	FetchDecision(ctx context.Context, req DecisionRequest) (Decision, error)
}

// Provider is the full enemy content contract consumed by the battle controller.
type Provider interface {
	DefinitionSource
	Decider
}

type composite struct {
	DefinitionSource
	Decider
}

// Compose pairs a definition source with a decider.
//
// Precondition: defs and decider must be non-nil.
func Compose(defs DefinitionSource, decider Decider) Provider {
	return composite{DefinitionSource: defs, Decider: decider}
}

// FallbackName is the name of the baseline enemy.
const FallbackName = "Fallback Glitch"

// Fallback returns the static baseline enemy used when a definition fetch fails.
func Fallback() Definition {
	return Definition{
		Name:    FallbackName,
		Level:   1,
		MaxHP:   100,
		Attack:  15,
		Defense: 5,
		Speed:   10,
		Abilities: []combat.Ability{{
			Name:         "Crash",
			Description:  "A sudden fault that slams into the target.",
			Power:        10,
			BaseCooldown: 0,
		}},
	}
}

// FallbackDecision returns the plain attack used when a decision fetch fails.
func FallbackDecision(enemyName string) Decision {
	return Decision{
		Kind:      DecideAttack,
		Narration: fmt.Sprintf("%s lashes out.", enemyName),
	}
}

// NewCombatant builds a fresh enemy combatant at full health from def.
//
// Postcondition: HP == MaxHP; every ability is ready; Progress is nil.
func NewCombatant(def Definition) *combat.Combatant {
	c := &combat.Combatant{
		Kind:    combat.KindEnemy,
		Name:    def.Name,
		MaxHP:   max(def.MaxHP, 0),
		HP:      max(def.MaxHP, 0),
		Attack:  def.Attack,
		Defense: def.Defense,
		Speed:   def.Speed,
	}
	for _, a := range def.Abilities {
		a.CurrentCooldown = 0
		if a.AppliedStatus != nil {
			as := *a.AppliedStatus
			a.AppliedStatus = &as
		}
		c.Abilities = append(c.Abilities, a)
	}
	return c
}
