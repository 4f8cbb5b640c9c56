package combat

import (
	"math"

	"github.com/cory-johannsen/codebattle/internal/game/dice"
)

const (
	// CritChance is the probability that a damaging action is a critical hit.
	CritChance = 0.15
	// CritMultiplier scales critical-hit damage.
	CritMultiplier = 1.5
	// WeakenMultiplier scales the outgoing damage of a Weakened attacker.
	WeakenMultiplier = 0.75
	// DefendMultiplier scales damage taken by a defending combatant.
	DefendMultiplier = 0.5
	// DefenseScale is the denominator offset of the defense mitigation curve.
	DefenseScale = 100
)

// AttackResult holds the outcome of one damaging action.
type AttackResult struct {
	// Amount is the damage to apply. Always >= 1.
	Amount     int
	IsCritical bool
}

// DefenseFactor returns the multiplier a defender's Defense applies to incoming
// damage: 1 - defense/(defense+100).
//
// Postcondition: Returns a value in (0, 1].
func DefenseFactor(defense int) float64 {
	if defense <= 0 {
		return 1
	}
	d := float64(defense)
	return 1 - d/(d+DefenseScale)
}

// ResolveAttack computes the damage attacker deals to defender, either with a
// basic attack (ability == nil) or with a damaging ability.
//
// Pipeline: base (ability power or attack) → crit roll (×1.5) → attacker
// Weaken (×0.75) → defense factor → defending (×0.5) → round → min 1.
//
// Precondition: ability, if non-nil, is not a heal; src must be non-nil.
// Postcondition: Consumes exactly one draw from src; result.Amount >= 1.
// No combatant is mutated.
func ResolveAttack(attacker, defender *Combatant, ability *Ability, src dice.Source) AttackResult {
	base := attacker.Attack
	if ability != nil {
		base = ability.Power
	}
	dmg := float64(base)

	crit := src.Float64() < CritChance
	if crit {
		dmg *= CritMultiplier
	}
	if attacker.HasStatus(Weaken) {
		dmg *= WeakenMultiplier
	}
	dmg *= DefenseFactor(defender.Defense)
	if defender.IsDefending {
		dmg *= DefendMultiplier
	}

	amount := int(math.Round(dmg))
	if amount < 1 {
		amount = 1
	}
	return AttackResult{Amount: amount, IsCritical: crit}
}

// HealAmount returns the self-heal granted by a negative-power ability.
// Healing bypasses crit and mitigation entirely.
//
// Postcondition: Returns -ability.Power when Power < 0, otherwise 0.
func HealAmount(ability *Ability) int {
	if ability == nil || ability.Power >= 0 {
		return 0
	}
	return -ability.Power
}

// StatusOutcome reports the result of a status-application roll.
type StatusOutcome struct {
	Type StatusType
	// Applied is true when the roll succeeded.
	Applied bool
	// Refreshed is true when the target already carried the status and only its
	// duration was replaced.
	Refreshed bool
}

// RollStatus rolls ability's AppliedStatus against defender and applies it on
// success.
//
// Precondition: called after the ability's damage was applied.
// Postcondition: Consumes one draw from src iff ability carries an AppliedStatus
// and defender is not defeated.
func RollStatus(ability *Ability, defender *Combatant, src dice.Source) StatusOutcome {
	if ability == nil || ability.AppliedStatus == nil || defender.IsDefeated() {
		return StatusOutcome{}
	}
	as := ability.AppliedStatus
	out := StatusOutcome{Type: as.Type}
	if src.Float64() >= as.Chance || as.Duration <= 0 {
		return out
	}
	out.Applied = true
	out.Refreshed = !defender.AddStatus(StatusEffect{Type: as.Type, RemainingTurns: as.Duration})
	return out
}
