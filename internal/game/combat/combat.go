// Package combat implements the combatant model, the damage and effect
// calculator, and the two-party turn scheduler for codebattle encounters.
package combat

// Kind distinguishes the player combatant from the enemy combatant.
type Kind int

const (
	KindPlayer Kind = iota
	KindEnemy
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// AppliedStatus describes a status effect an ability may inflict on its target.
type AppliedStatus struct {
	Type     StatusType `json:"type" yaml:"type"`
	Chance   float64    `json:"chance" yaml:"chance"`
	Duration int        `json:"duration" yaml:"duration"`
}

// Ability is a cooldown-gated special action.
//
// Power > 0 deals damage, Power < 0 heals the user for -Power,
// Power == 0 is a pure status utility.
type Ability struct {
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description" yaml:"description"`
	Power           int            `json:"power" yaml:"power"`
	BaseCooldown    int            `json:"cooldown" yaml:"cooldown"`
	CurrentCooldown int            `json:"-" yaml:"-"`
	AppliedStatus   *AppliedStatus `json:"status_effect,omitempty" yaml:"status_effect,omitempty"`
}

// Ready reports whether the ability can be used this turn.
func (a *Ability) Ready() bool { return a.CurrentCooldown == 0 }

// IsHeal reports whether the ability heals its user instead of dealing damage.
func (a *Ability) IsHeal() bool { return a.Power < 0 }

// Trigger puts the ability on cooldown.
//
// Postcondition: CurrentCooldown == max(BaseCooldown, 0).
func (a *Ability) Trigger() {
	a.CurrentCooldown = max(a.BaseCooldown, 0)
}

// Progress holds player-only progression and inventory fields.
type Progress struct {
	Level         int
	XP            int
	XPToNextLevel int
	Coins         int
	Potions       int
}

// Combatant is the mutable battle record for either the player or the enemy.
//
// Invariant: 0 <= HP <= MaxHP. Once HP reaches 0 the combatant is defeated and
// ApplyDamage, ApplyHeal, and AddStatus become no-ops until Reset.
type Combatant struct {
	Kind          Kind
	Name          string
	HP            int
	MaxHP         int
	Attack        int
	Defense       int
	Speed         int
	IsDefending   bool
	StatusEffects []StatusEffect
	Abilities     []Ability
	// Progress is nil for enemies.
	Progress *Progress
}

// IsPlayer reports whether this combatant is the player character.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// IsDefeated reports whether the combatant has been reduced to 0 HP.
func (c *Combatant) IsDefeated() bool { return c.HP <= 0 }

// ApplyDamage reduces HP by amount, flooring at zero, and returns the new HP.
//
// Precondition: amount >= 0; negative amounts are treated as 0.
// Postcondition: 0 <= HP <= MaxHP.
func (c *Combatant) ApplyDamage(amount int) int {
	if c.IsDefeated() || amount <= 0 {
		return c.HP
	}
	c.HP = max(c.HP-amount, 0)
	return c.HP
}

// ApplyHeal raises HP by amount, capped at MaxHP, and returns the new HP.
//
// Postcondition: 0 <= HP <= MaxHP.
func (c *Combatant) ApplyHeal(amount int) int {
	if c.IsDefeated() || amount <= 0 {
		return c.HP
	}
	c.HP = min(c.HP+amount, c.MaxHP)
	return c.HP
}

// TickCooldowns decrements every ability cooldown by one, flooring at zero.
func (c *Combatant) TickCooldowns() {
	for i := range c.Abilities {
		if c.Abilities[i].CurrentCooldown > 0 {
			c.Abilities[i].CurrentCooldown--
		}
	}
}

// ClearDefending drops the defensive stance.
func (c *Combatant) ClearDefending() { c.IsDefending = false }

// Reset restores battle-only state: full HP, no stance, no statuses, all
// abilities ready.
func (c *Combatant) Reset() {
	c.HP = c.MaxHP
	c.IsDefending = false
	c.StatusEffects = nil
	for i := range c.Abilities {
		c.Abilities[i].CurrentCooldown = 0
	}
}

// Ability returns the ability at index i, or nil when i is out of range.
func (c *Combatant) Ability(i int) *Ability {
	if i < 0 || i >= len(c.Abilities) {
		return nil
	}
	return &c.Abilities[i]
}

// Clone returns a deep copy of c.
func (c *Combatant) Clone() *Combatant {
	cp := *c
	cp.StatusEffects = append([]StatusEffect(nil), c.StatusEffects...)
	cp.Abilities = append([]Ability(nil), c.Abilities...)
	for i, a := range c.Abilities {
		if a.AppliedStatus != nil {
			as := *a.AppliedStatus
			cp.Abilities[i].AppliedStatus = &as
		}
	}
	if c.Progress != nil {
		p := *c.Progress
		cp.Progress = &p
	}
	return &cp
}
