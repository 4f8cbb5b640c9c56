// Package battle drives a single player-versus-enemy encounter from start to a
// terminal phase, serialising player input, enemy decisions, and bookkeeping.
package battle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/progression"
	"github.com/cory-johannsen/codebattle/internal/portrait"
)

// Phase is the encounter lifecycle stage.
type Phase int

const (
	PreBattle Phase = iota
	InBattle
	PostBattle
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PreBattle:
		return "pre_battle"
	case InBattle:
		return "in_battle"
	case PostBattle:
		return "post_battle"
	default:
		return "unknown"
	}
}

// Outcome is the result of a finished encounter.
type Outcome int

const (
	Undecided Outcome = iota
	PlayerWon
	EnemyWon
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case Undecided:
		return "undecided"
	case PlayerWon:
		return "player_won"
	case EnemyWon:
		return "enemy_won"
	default:
		return "unknown"
	}
}

// LogEntry is one line of the battle log.
type LogEntry struct {
	Turn       int
	Message    string
	IsCritical bool
}

// ActionKind enumerates player actions.
type ActionKind int

const (
	ActionAttack ActionKind = iota
	ActionDefend
	ActionUseAbility
	ActionUsePotion
)

// String returns a human-readable action label.
func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionDefend:
		return "defend"
	case ActionUseAbility:
		return "ability"
	case ActionUsePotion:
		return "potion"
	default:
		return "unknown"
	}
}

// Action is a player command. AbilityIndex is only meaningful for ActionUseAbility.
type Action struct {
	Kind         ActionKind
	AbilityIndex int
}

// Attack returns a basic attack action.
func Attack() Action { return Action{Kind: ActionAttack} }

// Defend returns a defend action.
func Defend() Action { return Action{Kind: ActionDefend} }

// UseAbility returns an action invoking the ability at index i.
func UseAbility(i int) Action { return Action{Kind: ActionUseAbility, AbilityIndex: i} }

// UsePotion returns a potion action.
func UsePotion() Action { return Action{Kind: ActionUsePotion} }

// ErrInvalidAction matches every rejection reason via errors.Is.
var ErrInvalidAction = errors.New("invalid action")

// Rejection reasons surfaced as UI hints. Each wraps ErrInvalidAction.
var (
	ErrNotInBattle     = fmt.Errorf("%w: no battle in progress", ErrInvalidAction)
	ErrNotPlayerTurn   = fmt.Errorf("%w: not your turn", ErrInvalidAction)
	ErrAwaitingEnemy   = fmt.Errorf("%w: waiting for the enemy", ErrInvalidAction)
	ErrUnknownAbility  = fmt.Errorf("%w: no such ability", ErrInvalidAction)
	ErrAbilityCooling  = fmt.Errorf("%w: ability is cooling down", ErrInvalidAction)
	ErrNoPotions       = fmt.Errorf("%w: no potions left", ErrInvalidAction)
	ErrFullHealth      = fmt.Errorf("%w: already at full health", ErrInvalidAction)
	ErrUnknownAction   = fmt.Errorf("%w: unknown action", ErrInvalidAction)
	ErrNotEnemyTurn    = errors.New("no enemy turn pending")
	ErrStaleDecision   = errors.New("enemy decision arrived for a superseded step")
	ErrNoPlayer        = errors.New("no player attached")
	ErrEncounterActive = errors.New("an encounter is already starting")
)

// EncounterState is a point-in-time copy of an encounter. Mutating it has no
// effect on the controller.
type EncounterState struct {
	ID            uuid.UUID
	Phase         Phase
	Outcome       Outcome
	Player        *combat.Combatant
	Enemy         *combat.Combatant
	EnemyLevel    int
	EnemyIntent   string
	TurnOrder     [2]string
	ActiveIndex   int
	Turn          int
	AwaitingEnemy bool
	Log           []LogEntry
	Reward        *progression.Reward
	EnemyPortrait *portrait.Handle
}

// ActiveName returns the name of the combatant whose turn it is, or "" when no
// battle is in progress.
func (s EncounterState) ActiveName() string {
	if s.Phase != InBattle {
		return ""
	}
	return s.TurnOrder[s.ActiveIndex]
}
