package battle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/dice"
	"github.com/cory-johannsen/codebattle/internal/game/enemy"
	"github.com/cory-johannsen/codebattle/internal/game/progression"
	"github.com/cory-johannsen/codebattle/internal/portrait"
)

// RecentLogSize is the number of trailing log entries handed to the enemy
// decision provider.
const RecentLogSize = 5

// Saver persists the player between encounters.
type Saver interface {
	SavePlayer(ctx context.Context, player *combat.Combatant) error
}

// PortraitResolver produces enemy and player portraits asynchronously.
type PortraitResolver interface {
	Resolve(ctx context.Context, subject, prompt string) <-chan portrait.Handle
}

// Settings bounds the time spent on collaborator calls.
type Settings struct {
	DefinitionTimeout time.Duration
	DecisionTimeout   time.Duration
	SaveTimeout       time.Duration
	PortraitTimeout   time.Duration
}

// DefaultSettings returns the timeouts used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		DefinitionTimeout: 15 * time.Second,
		DecisionTimeout:   10 * time.Second,
		SaveTimeout:       5 * time.Second,
		PortraitTimeout:   30 * time.Second,
	}
}

// Controller owns one player's encounters.
//
// mu serialises every read and write of encounter state. Provider calls are
// made without holding mu; awaitingEnemy and step guard against a decision
// being applied twice or after the encounter it was requested for.
type Controller struct {
	provider  enemy.Provider
	src       dice.Source
	saver     Saver
	portraits PortraitResolver
	sink      Sink
	settings  Settings
	logger    *zap.Logger

	bg sync.WaitGroup

	// saveMu orders background saves; savedSeq is the newest snapshot
	// written so far.
	saveMu   sync.Mutex
	savedSeq uint64

	mu             sync.Mutex
	id             uuid.UUID
	phase          Phase
	outcome        Outcome
	player         *combat.Combatant
	foe            *combat.Combatant
	enemyLevel     int
	enemyIntent    string
	sched          *combat.Scheduler
	log            []LogEntry
	reward         *progression.Reward
	enemyPortrait  *portrait.Handle
	playerPortrait *portrait.Handle
	awaitingEnemy  bool
	starting       bool
	step           uint64
	saveSeq        uint64
}

// NewController creates a Controller in PreBattle.
//
// Precondition: provider and src must be non-nil. saver, portraits, and sink
// may be nil, disabling persistence, portraits, and events respectively. A nil
// logger disables logging. Zero timeouts in settings take DefaultSettings values.
// Postcondition: Returns a non-nil Controller with no player attached.
func NewController(
	provider enemy.Provider,
	src dice.Source,
	saver Saver,
	portraits PortraitResolver,
	sink Sink,
	settings Settings,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = nopSink{}
	}
	def := DefaultSettings()
	if settings.DefinitionTimeout <= 0 {
		settings.DefinitionTimeout = def.DefinitionTimeout
	}
	if settings.DecisionTimeout <= 0 {
		settings.DecisionTimeout = def.DecisionTimeout
	}
	if settings.SaveTimeout <= 0 {
		settings.SaveTimeout = def.SaveTimeout
	}
	if settings.PortraitTimeout <= 0 {
		settings.PortraitTimeout = def.PortraitTimeout
	}
	return &Controller{
		provider:  provider,
		src:       src,
		saver:     saver,
		portraits: portraits,
		sink:      sink,
		settings:  settings,
		logger:    logger,
	}
}

// AttachPlayer makes player available to the shop before the first encounter.
//
// Postcondition: Returns false without change while a battle is in progress.
func (c *Controller) AttachPlayer(player *combat.Combatant) bool {
	if player == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == InBattle {
		return false
	}
	ensureProgress(player)
	c.player = player
	return true
}

// StartEncounter fetches an enemy for player and opens a new battle. Any
// encounter in progress is abandoned. A failed or slow definition fetch is
// replaced by the fallback enemy.
//
// Precondition: player must be non-nil.
// Postcondition: On nil error, Phase is InBattle (or PostBattle if
// start-of-turn effects already decided it) and the first actor's start of
// turn has been processed.
func (c *Controller) StartEncounter(ctx context.Context, player *combat.Combatant) error {
	if player == nil {
		return ErrNoPlayer
	}
	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		return ErrEncounterActive
	}
	c.starting = true
	c.step++
	hint := enemy.Hint{PlayerName: player.Name, PlayerLevel: 1}
	if player.Progress != nil {
		hint.PlayerLevel = player.Progress.Level
	}
	c.mu.Unlock()

	def := c.fetchDefinition(ctx, hint)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.starting = false
	c.step++

	ensureProgress(player)
	player.Reset()
	c.player = player
	c.foe = enemy.NewCombatant(def)
	c.enemyLevel = max(def.Level, 1)
	c.id = uuid.New()
	c.log = nil
	c.outcome = Undecided
	c.reward = nil
	c.enemyIntent = ""
	c.enemyPortrait = nil
	c.awaitingEnemy = false
	c.sched = combat.NewScheduler(player, c.foe)
	c.phase = InBattle

	c.logger.Info("encounter started",
		zap.String("encounter_id", c.id.String()),
		zap.String("player", player.Name),
		zap.String("enemy", c.foe.Name),
		zap.Int("enemy_level", c.enemyLevel),
		zap.String("first", c.sched.Active().Name),
	)
	c.emit(Event{Kind: EventEncounterStarted, Actor: player.Name, Target: c.foe.Name, Level: c.enemyLevel})
	c.requestPortraitLocked(c.id, c.foe.Name, def.PortraitPrompt, false)
	c.advanceLocked()
	return nil
}

// NextEncounter starts a new battle for the attached player, who keeps their
// progress from earlier encounters.
//
// Postcondition: Returns ErrNoPlayer when no player has been attached or
// started; otherwise behaves as StartEncounter.
func (c *Controller) NextEncounter(ctx context.Context) error {
	c.mu.Lock()
	player := c.player
	c.mu.Unlock()
	if player == nil {
		return ErrNoPlayer
	}
	return c.StartEncounter(ctx, player)
}

func (c *Controller) fetchDefinition(ctx context.Context, hint enemy.Hint) enemy.Definition {
	ctx, cancel := context.WithTimeout(ctx, c.settings.DefinitionTimeout)
	defer cancel()
	def, err := c.provider.FetchDefinition(ctx, hint)
	if err != nil {
		c.logger.Warn("enemy definition unavailable, using fallback",
			zap.String("fallback", enemy.FallbackName),
			zap.Error(err),
		)
		return enemy.Fallback()
	}
	return def
}

// CheckAction reports why action would be rejected, or nil if it would be
// accepted. It never mutates state.
func (c *Controller) CheckAction(action Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked(action)
}

func (c *Controller) validateLocked(a Action) error {
	if c.phase != InBattle || c.sched == nil || c.sched.Over() {
		return ErrNotInBattle
	}
	if c.awaitingEnemy {
		return ErrAwaitingEnemy
	}
	if c.sched.State() != combat.WaitingForActor || !c.sched.Active().IsPlayer() {
		return ErrNotPlayerTurn
	}
	switch a.Kind {
	case ActionAttack, ActionDefend:
		return nil
	case ActionUseAbility:
		ab := c.player.Ability(a.AbilityIndex)
		if ab == nil {
			return ErrUnknownAbility
		}
		if !ab.Ready() {
			return ErrAbilityCooling
		}
		return nil
	case ActionUsePotion:
		if c.player.Progress.Potions <= 0 {
			return ErrNoPotions
		}
		if c.player.HP >= c.player.MaxHP {
			return ErrFullHealth
		}
		return nil
	default:
		return ErrUnknownAction
	}
}

// SubmitPlayerAction resolves action as the player's turn.
//
// Postcondition: Returns false, with no state change and no log entry, when the
// action is invalid (see CheckAction). Otherwise the action, the end of the
// player's turn, and any following start-of-turn effects have been applied.
func (c *Controller) SubmitPlayerAction(action Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.validateLocked(action); err != nil {
		c.logger.Debug("player action rejected",
			zap.String("action", action.Kind.String()),
			zap.Error(err),
		)
		return false
	}
	c.sched.BeginAction()
	turn := c.sched.Turn()
	p := c.player
	switch action.Kind {
	case ActionAttack:
		c.strikeLocked(turn, p, c.foe, nil)
	case ActionDefend:
		c.defendLocked(turn, p)
	case ActionUseAbility:
		c.useAbilityLocked(turn, p, c.foe, action.AbilityIndex)
	case ActionUsePotion:
		p.Progress.Potions--
		before := p.HP
		healed := p.ApplyHeal(progression.PotionHealAmount) - before
		c.appendLogLocked(turn, fmt.Sprintf("%s uses a potion and restores %d HP.", p.Name, healed), false)
		c.emit(Event{Kind: EventPotionUsed, Turn: turn, Actor: p.Name, Amount: healed})
	}
	c.endTurnLocked()
	return true
}

// PendingEnemyTurn reports whether RunEnemyTurn would act.
func (c *Controller) PendingEnemyTurn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingEnemyLocked()
}

func (c *Controller) pendingEnemyLocked() bool {
	return c.phase == InBattle &&
		!c.awaitingEnemy &&
		c.sched.State() == combat.WaitingForActor &&
		!c.sched.Active().IsPlayer()
}

// RunEnemyTurn asks the provider for the enemy's decision and resolves it. A
// failed or slow fetch becomes a plain attack; an unusable ability choice is
// downgraded to a plain attack.
//
// Postcondition: Returns ErrNotEnemyTurn when no enemy turn is pending, and
// ErrStaleDecision when the encounter moved on while the decision was being
// fetched; in both cases nothing is applied.
func (c *Controller) RunEnemyTurn(ctx context.Context) error {
	c.mu.Lock()
	if !c.pendingEnemyLocked() {
		c.mu.Unlock()
		return ErrNotEnemyTurn
	}
	c.awaitingEnemy = true
	c.step++
	token := c.step
	req := enemy.DecisionRequest{
		Enemy:     c.foe.Clone(),
		Player:    c.player.Clone(),
		RecentLog: c.recentLogLocked(RecentLogSize),
	}
	c.mu.Unlock()

	dec := c.fetchDecision(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.step || !c.awaitingEnemy {
		c.logger.Debug("discarding stale enemy decision", zap.Uint64("step", token))
		return ErrStaleDecision
	}
	c.awaitingEnemy = false
	c.sched.BeginAction()
	turn := c.sched.Turn()
	foe := c.foe
	dec = c.validateDecisionLocked(dec)
	if dec.Narration != "" {
		c.appendLogLocked(turn, dec.Narration, false)
	}
	c.enemyIntent = dec.NextIntentHint
	switch dec.Kind {
	case enemy.DecideDefend:
		c.defendLocked(turn, foe)
	case enemy.DecideAbility:
		c.useAbilityLocked(turn, foe, c.player, dec.AbilityIndex)
	default:
		c.strikeLocked(turn, foe, c.player, nil)
	}
	c.endTurnLocked()
	return nil
}

func (c *Controller) fetchDecision(ctx context.Context, req enemy.DecisionRequest) enemy.Decision {
	ctx, cancel := context.WithTimeout(ctx, c.settings.DecisionTimeout)
	defer cancel()
	dec, err := c.provider.FetchDecision(ctx, req)
	if err != nil {
		c.logger.Warn("enemy decision unavailable, attacking", zap.Error(err))
		return enemy.FallbackDecision(req.Enemy.Name)
	}
	return dec
}

func (c *Controller) validateDecisionLocked(dec enemy.Decision) enemy.Decision {
	switch dec.Kind {
	case enemy.DecideAttack, enemy.DecideDefend:
		return dec
	case enemy.DecideAbility:
		ab := c.foe.Ability(dec.AbilityIndex)
		if ab != nil && ab.Ready() {
			return dec
		}
		c.logger.Warn("enemy chose an unusable ability, attacking",
			zap.Int("ability_index", dec.AbilityIndex),
		)
	default:
		c.logger.Warn("enemy chose an unknown action, attacking",
			zap.String("kind", dec.Kind.String()),
		)
	}
	dec.Kind = enemy.DecideAttack
	dec.AbilityIndex = 0
	return dec
}

func (c *Controller) recentLogLocked(n int) []enemy.LogLine {
	start := max(len(c.log)-n, 0)
	out := make([]enemy.LogLine, 0, len(c.log)-start)
	for _, e := range c.log[start:] {
		out = append(out, enemy.LogLine{Turn: e.Turn, Message: e.Message})
	}
	return out
}

func (c *Controller) strikeLocked(turn int, attacker, defender *combat.Combatant, ab *combat.Ability) {
	res := combat.ResolveAttack(attacker, defender, ab, c.src)
	if res.IsCritical {
		c.appendLogLocked(turn, "Critical Hit!", true)
	}
	defender.ApplyDamage(res.Amount)
	name := "a basic attack"
	if ab != nil {
		name = ab.Name
	}
	c.appendLogLocked(turn, fmt.Sprintf("%s uses %s on %s, dealing %d damage.", attacker.Name, name, defender.Name, res.Amount), false)
	c.emit(Event{Kind: EventDamage, Turn: turn, Actor: attacker.Name, Target: defender.Name, Amount: res.Amount, Critical: res.IsCritical})

	out := combat.RollStatus(ab, defender, c.src)
	switch {
	case out.Refreshed:
		c.appendLogLocked(turn, fmt.Sprintf("%s's %s is renewed.", defender.Name, out.Type), false)
		c.emit(Event{Kind: EventStatusRefreshed, Turn: turn, Actor: attacker.Name, Target: defender.Name, Status: out.Type})
	case out.Applied:
		c.appendLogLocked(turn, fmt.Sprintf("%s is now %s!", defender.Name, out.Type), false)
		c.emit(Event{Kind: EventStatusApplied, Turn: turn, Actor: attacker.Name, Target: defender.Name, Status: out.Type})
	}
}

func (c *Controller) useAbilityLocked(turn int, actor, target *combat.Combatant, idx int) {
	ab := actor.Ability(idx)
	ab.Trigger()
	if !ab.IsHeal() {
		c.strikeLocked(turn, actor, target, ab)
		return
	}
	before := actor.HP
	healed := actor.ApplyHeal(combat.HealAmount(ab)) - before
	c.appendLogLocked(turn, fmt.Sprintf("%s uses %s and heals for %d HP.", actor.Name, ab.Name, healed), false)
	c.emit(Event{Kind: EventHeal, Turn: turn, Actor: actor.Name, Target: actor.Name, Amount: healed})
}

func (c *Controller) defendLocked(turn int, actor *combat.Combatant) {
	actor.IsDefending = true
	c.appendLogLocked(turn, fmt.Sprintf("%s is defending.", actor.Name), false)
	c.emit(Event{Kind: EventDefend, Turn: turn, Actor: actor.Name})
}

func (c *Controller) endTurnLocked() {
	c.sched.EndTurn()
	if c.sched.Over() {
		c.finishLocked()
		return
	}
	c.advanceLocked()
}

// advanceLocked opens turns until an actor may act or the battle ends. Stunned
// actors forfeit and are passed over.
func (c *Controller) advanceLocked() {
	for c.phase == InBattle && c.sched.State() == combat.AdvancingTurn {
		turn := c.sched.Turn()
		ts := c.sched.BeginTurn()
		actor := ts.Actor
		for _, tick := range ts.Ticks {
			if tick.Damage > 0 {
				c.appendLogLocked(turn, fmt.Sprintf("%s takes %d damage from %s.", actor.Name, tick.Damage, tick.Type), false)
				c.emit(Event{Kind: EventDamage, Turn: turn, Target: actor.Name, Amount: tick.Damage, Status: tick.Type})
			}
			if tick.Expired {
				c.appendLogLocked(turn, fmt.Sprintf("%s wore off for %s.", tick.Type, actor.Name), false)
				c.emit(Event{Kind: EventStatusExpired, Turn: turn, Target: actor.Name, Status: tick.Type})
			}
		}
		switch {
		case ts.Defeated:
			c.finishLocked()
			return
		case ts.Stunned:
			c.appendLogLocked(turn, fmt.Sprintf("%s is stunned and cannot act!", actor.Name), false)
			c.emit(Event{Kind: EventTurnSkipped, Turn: turn, Actor: actor.Name, Status: combat.Stun})
		default:
			c.emit(Event{Kind: EventTurnAdvanced, Turn: turn, Actor: actor.Name})
		}
	}
}

func (c *Controller) finishLocked() {
	c.sched.Finish()
	c.phase = PostBattle
	c.awaitingEnemy = false
	turn := c.sched.Turn()
	p := c.player
	if p.IsDefeated() {
		c.outcome = EnemyWon
		c.appendLogLocked(turn, fmt.Sprintf("%s has been defeated!", p.Name), false)
	} else {
		c.outcome = PlayerWon
		c.appendLogLocked(turn, fmt.Sprintf("%s has been defeated!", c.foe.Name), false)
		r := progression.AwardVictory(p, c.enemyLevel)
		c.reward = &r
		c.appendLogLocked(turn, fmt.Sprintf("You gained %d XP and %d coins!", r.XP, r.Coins), false)
		for _, lvl := range r.LevelsGained {
			c.appendLogLocked(turn, fmt.Sprintf("%s leveled up to Level %d! Stats increased!", p.Name, lvl), false)
			c.emit(Event{Kind: EventLevelUp, Turn: turn, Actor: p.Name, Level: lvl})
		}
	}
	c.emit(Event{Kind: EventBattleEnded, Turn: turn, Actor: p.Name, Target: c.foe.Name, Outcome: c.outcome})
	c.logger.Info("encounter ended",
		zap.String("encounter_id", c.id.String()),
		zap.String("outcome", c.outcome.String()),
		zap.Int("turn", turn),
	)
	c.saveLocked()
}

// saveLocked persists a snapshot of the player in the background. A snapshot
// that loses the race to a newer one is discarded, so the store never moves
// backwards.
func (c *Controller) saveLocked() {
	if c.saver == nil || c.player == nil {
		return
	}
	snap := c.player.Clone()
	c.saveSeq++
	seq := c.saveSeq
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		c.saveMu.Lock()
		defer c.saveMu.Unlock()
		if seq <= c.savedSeq {
			c.logger.Debug("skipping superseded save", zap.Uint64("seq", seq))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.settings.SaveTimeout)
		defer cancel()
		if err := c.saver.SavePlayer(ctx, snap); err != nil {
			c.logger.Warn("saving player failed", zap.String("player", snap.Name), zap.Error(err))
			return
		}
		c.savedSeq = seq
	}()
}

// RequestPlayerPortrait resolves the player's portrait in the background.
func (c *Controller) RequestPlayerPortrait(name, prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestPortraitLocked(c.id, name, prompt, true)
}

func (c *Controller) requestPortraitLocked(id uuid.UUID, subject, prompt string, player bool) {
	if c.portraits == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.settings.PortraitTimeout)
	ch := c.portraits.Resolve(ctx, subject, prompt)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		defer cancel()
		h, ok := <-ch
		if !ok {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if player {
			c.playerPortrait = &h
		} else {
			if c.id != id {
				return
			}
			c.enemyPortrait = &h
		}
		c.emit(Event{Kind: EventPortraitReady, Actor: subject})
	}()
}

// PlayerPortrait returns the most recently resolved player portrait, if any.
func (c *Controller) PlayerPortrait() (portrait.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playerPortrait == nil {
		return portrait.Handle{}, false
	}
	return *c.playerPortrait, true
}

// Wait blocks until every background save and portrait lookup has finished.
func (c *Controller) Wait() { c.bg.Wait() }

// State returns a copy of the current encounter.
func (c *Controller) State() EncounterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := EncounterState{
		ID:            c.id,
		Phase:         c.phase,
		Outcome:       c.outcome,
		EnemyLevel:    c.enemyLevel,
		EnemyIntent:   c.enemyIntent,
		AwaitingEnemy: c.awaitingEnemy,
		Log:           append([]LogEntry(nil), c.log...),
	}
	if c.player != nil {
		s.Player = c.player.Clone()
	}
	if c.foe != nil {
		s.Enemy = c.foe.Clone()
	}
	if c.sched != nil {
		order := c.sched.Order()
		s.TurnOrder = [2]string{order[0].Name, order[1].Name}
		s.ActiveIndex = c.sched.ActiveIndex()
		s.Turn = c.sched.Turn()
	}
	if c.reward != nil {
		r := *c.reward
		r.LevelsGained = append([]int(nil), c.reward.LevelsGained...)
		s.Reward = &r
	}
	if c.enemyPortrait != nil {
		h := *c.enemyPortrait
		s.EnemyPortrait = &h
	}
	return s
}

func (c *Controller) appendLogLocked(turn int, msg string, critical bool) {
	c.log = append(c.log, LogEntry{Turn: turn, Message: msg, IsCritical: critical})
}

func (c *Controller) emit(e Event) {
	e.EncounterID = c.id
	c.sink.Emit(e)
}

func ensureProgress(p *combat.Combatant) {
	if p.Progress == nil {
		p.Progress = &combat.Progress{Level: 1, XPToNextLevel: progression.XPToNextLevel(1)}
	}
}
