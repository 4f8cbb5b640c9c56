package combat

// TurnState is the scheduler's position within a single turn.
type TurnState int

const (
	// AdvancingTurn means the active combatant's start-of-turn effects have not
	// been processed yet.
	AdvancingTurn TurnState = iota
	// WaitingForActor means the active combatant may choose an action.
	WaitingForActor
	// ResolvingAction means the active combatant's action is being applied.
	ResolvingAction
	// ResolvingEndOfTurnEffects means cooldown decay is being applied.
	ResolvingEndOfTurnEffects
	// BattleOver is terminal.
	BattleOver
)

// String returns a human-readable state label.
func (s TurnState) String() string {
	switch s {
	case AdvancingTurn:
		return "advancing_turn"
	case WaitingForActor:
		return "waiting_for_actor"
	case ResolvingAction:
		return "resolving_action"
	case ResolvingEndOfTurnEffects:
		return "resolving_end_of_turn_effects"
	case BattleOver:
		return "battle_over"
	default:
		return "unknown"
	}
}

// TurnStart reports what happened while opening a combatant's turn.
type TurnStart struct {
	Actor *Combatant
	Ticks []StatusTick
	// Stunned is true when the actor carried Stun at turn start and forfeits
	// its action. Stun still ticks and may have expired in Ticks.
	Stunned bool
	// Defeated is true when start-of-turn damage reduced the actor to 0 HP.
	Defeated bool
}

// Scheduler alternates two combatants, ticking statuses at the start of each
// turn and cooldowns at the end.
//
// Invariant: ActiveIndex() is 0 or 1; Turn() >= 1 and increments exactly once
// each time control wraps from the second combatant back to the first.
// It is not safe for concurrent use; the owning controller serialises access.
type Scheduler struct {
	order  [2]*Combatant
	active int
	turn   int
	state  TurnState
}

// NewScheduler computes the turn order once: higher Speed acts first, ties go
// to player.
//
// Precondition: player and enemy must be non-nil.
// Postcondition: State() == AdvancingTurn; Turn() == 1; ActiveIndex() == 0.
func NewScheduler(player, enemy *Combatant) *Scheduler {
	order := [2]*Combatant{player, enemy}
	if enemy.Speed > player.Speed {
		order = [2]*Combatant{enemy, player}
	}
	return &Scheduler{order: order, turn: 1, state: AdvancingTurn}
}

// Order returns the turn order.
func (s *Scheduler) Order() [2]*Combatant { return s.order }

// ActiveIndex returns the index into Order of the combatant whose turn it is.
func (s *Scheduler) ActiveIndex() int { return s.active }

// Active returns the combatant whose turn it is.
func (s *Scheduler) Active() *Combatant { return s.order[s.active] }

// Opponent returns the combatant who is not active.
func (s *Scheduler) Opponent() *Combatant { return s.order[1-s.active] }

// Turn returns the current round number, starting at 1.
func (s *Scheduler) Turn() int { return s.turn }

// State returns the current scheduler state.
func (s *Scheduler) State() TurnState { return s.state }

// Over reports whether the scheduler has reached BattleOver.
func (s *Scheduler) Over() bool { return s.state == BattleOver }

// BeginTurn opens the active combatant's turn: its defensive stance lapses and
// its statuses tick. A defeated combatant on either side ends the battle; a
// stunned actor forfeits and control passes on.
//
// Precondition: State() == AdvancingTurn; otherwise BeginTurn is a no-op
// returning only the actor.
// Postcondition: State() is WaitingForActor, AdvancingTurn (stun skip, next
// actor active), or BattleOver.
func (s *Scheduler) BeginTurn() TurnStart {
	actor := s.Active()
	if s.state != AdvancingTurn {
		return TurnStart{Actor: actor}
	}
	if s.CheckDefeat() {
		return TurnStart{Actor: actor, Defeated: true}
	}
	actor.ClearDefending()
	stunned := actor.HasStatus(Stun)
	ts := TurnStart{Actor: actor, Ticks: actor.TickStatuses(), Stunned: stunned}
	if s.CheckDefeat() {
		ts.Defeated = true
		return ts
	}
	if stunned {
		s.endTurn()
		return ts
	}
	s.state = WaitingForActor
	return ts
}

// BeginAction marks the active combatant's chosen action as resolving.
//
// Postcondition: Returns true and State() == ResolvingAction iff State() was
// WaitingForActor.
func (s *Scheduler) BeginAction() bool {
	if s.state != WaitingForActor {
		return false
	}
	s.state = ResolvingAction
	return true
}

// EndTurn closes the active combatant's turn. If either combatant is defeated
// the battle ends and no end-of-turn bookkeeping is applied.
//
// Precondition: State() == ResolvingAction; otherwise EndTurn is a no-op.
// Postcondition: State() is AdvancingTurn or BattleOver.
func (s *Scheduler) EndTurn() {
	if s.state != ResolvingAction {
		return
	}
	if s.CheckDefeat() {
		return
	}
	s.endTurn()
}

func (s *Scheduler) endTurn() {
	s.state = ResolvingEndOfTurnEffects
	s.Active().TickCooldowns()
	s.state = AdvancingTurn
	s.active = (s.active + 1) % len(s.order)
	if s.active == 0 {
		s.turn++
	}
}

// CheckDefeat moves to BattleOver if either combatant is at 0 HP.
//
// Postcondition: Returns true iff State() == BattleOver.
func (s *Scheduler) CheckDefeat() bool {
	if s.order[0].IsDefeated() || s.order[1].IsDefeated() {
		s.state = BattleOver
	}
	return s.state == BattleOver
}

// Finish forces the scheduler into BattleOver.
func (s *Scheduler) Finish() { s.state = BattleOver }
