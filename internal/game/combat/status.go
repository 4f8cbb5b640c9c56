package combat

import "fmt"

// StatusType identifies a timed condition.
type StatusType string

const (
	Stun      StatusType = "Stun"
	Corrosion StatusType = "Corrosion"
	Weaken    StatusType = "Weaken"
)

// CorrosionPercent is the share of MaxHP dealt by each Corrosion tick.
const CorrosionPercent = 5

// ParseStatusType validates s as a known StatusType.
func ParseStatusType(s string) (StatusType, error) {
	switch t := StatusType(s); t {
	case Stun, Corrosion, Weaken:
		return t, nil
	default:
		return "", fmt.Errorf("unknown status type %q", s)
	}
}

// StatusEffect is one active condition on a combatant.
type StatusEffect struct {
	Type           StatusType
	RemainingTurns int
}

// StatusTick reports what one status effect did during a start-of-turn tick.
type StatusTick struct {
	Type    StatusType
	Damage  int
	Expired bool
}

// HasStatus reports whether a status of type t is currently active.
func (c *Combatant) HasStatus(t StatusType) bool {
	for _, e := range c.StatusEffects {
		if e.Type == t {
			return true
		}
	}
	return false
}

// AddStatus applies effect. If a status of the same type is already present its
// remaining duration is replaced; otherwise the effect is appended.
//
// Precondition: effect.RemainingTurns > 0; non-positive durations are ignored.
// Postcondition: at most one entry per StatusType exists.
// Returns true when the effect was newly added, false on refresh or no-op.
func (c *Combatant) AddStatus(effect StatusEffect) bool {
	if c.IsDefeated() || effect.RemainingTurns <= 0 {
		return false
	}
	for i := range c.StatusEffects {
		if c.StatusEffects[i].Type == effect.Type {
			c.StatusEffects[i].RemainingTurns = effect.RemainingTurns
			return false
		}
	}
	c.StatusEffects = append(c.StatusEffects, effect)
	return true
}

// CorrosionDamage returns the per-tick Corrosion damage: floor(MaxHP * 5%).
func (c *Combatant) CorrosionDamage() int {
	return c.MaxHP * CorrosionPercent / 100
}

// TickStatuses applies one start-of-turn tick to every active status in order:
// Corrosion deals CorrosionDamage, every effect loses one remaining turn, and
// effects reaching zero are removed.
//
// Postcondition: no remaining effect has RemainingTurns <= 0.
func (c *Combatant) TickStatuses() []StatusTick {
	if len(c.StatusEffects) == 0 {
		return nil
	}
	ticks := make([]StatusTick, 0, len(c.StatusEffects))
	kept := c.StatusEffects[:0]
	for _, e := range c.StatusEffects {
		tick := StatusTick{Type: e.Type}
		if e.Type == Corrosion {
			tick.Damage = c.CorrosionDamage()
			c.ApplyDamage(tick.Damage)
		}
		e.RemainingTurns--
		if e.RemainingTurns <= 0 {
			tick.Expired = true
		} else {
			kept = append(kept, e)
		}
		ticks = append(ticks, tick)
	}
	if len(kept) == 0 {
		c.StatusEffects = nil
	} else {
		c.StatusEffects = kept
	}
	return ticks
}
