package battle_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/game/battle"
	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/dice"
	"github.com/cory-johannsen/codebattle/internal/game/enemy"
	enemymocks "github.com/cory-johannsen/codebattle/internal/game/enemy/mocks"
	"github.com/cory-johannsen/codebattle/internal/portrait"
)

func newPlayer() *combat.Combatant {
	return &combat.Combatant{
		Kind: combat.KindPlayer, Name: "Code Warrior",
		HP: 150, MaxHP: 150, Attack: 20, Defense: 10, Speed: 25,
		Abilities: []combat.Ability{
			{Name: "Laser Pulse", Power: 15, BaseCooldown: 3,
				AppliedStatus: &combat.AppliedStatus{Type: combat.Weaken, Chance: 0.5, Duration: 2}},
			{Name: "Debug & Reboot", Power: -40, BaseCooldown: 4},
		},
		Progress: &combat.Progress{Level: 1, XPToNextLevel: 100, Potions: 3},
	}
}

func nullPointer(speed int) enemy.Definition {
	return enemy.Definition{
		Name: "Null Pointer", Level: 2, MaxHP: 100, Attack: 15, Defense: 5, Speed: speed,
		Abilities: []combat.Ability{
			{Name: "Freeze", Power: 5, BaseCooldown: 2,
				AppliedStatus: &combat.AppliedStatus{Type: combat.Stun, Chance: 1, Duration: 1}},
			{Name: "Garbage Collect", Power: -30, BaseCooldown: 3},
		},
	}
}

type recordingSaver struct {
	mu    sync.Mutex
	saved []*combat.Combatant
}

func (s *recordingSaver) SavePlayer(_ context.Context, p *combat.Combatant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, p)
	return nil
}

func (s *recordingSaver) all() []*combat.Combatant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*combat.Combatant(nil), s.saved...)
}

type stubPortraits struct{}

func (stubPortraits) Resolve(_ context.Context, subject, _ string) <-chan portrait.Handle {
	ch := make(chan portrait.Handle, 1)
	ch <- portrait.Handle{ID: uuid.New(), Subject: subject, Placeholder: true}
	close(ch)
	return ch
}

type fixture struct {
	ctrl   *battle.Controller
	prov   *enemymocks.MockProvider
	saver  *recordingSaver
	sink   *battle.ChannelSink
	player *combat.Combatant
}

func newFixture(t *testing.T, draws ...float64) *fixture {
	t.Helper()
	if len(draws) == 0 {
		draws = []float64{0.5}
	}
	mc := gomock.NewController(t)
	f := &fixture{
		prov:   enemymocks.NewMockProvider(mc),
		saver:  &recordingSaver{},
		sink:   battle.NewChannelSink(256),
		player: newPlayer(),
	}
	f.ctrl = battle.NewController(f.prov, dice.NewSequence(draws...), f.saver, nil, f.sink, battle.Settings{}, zap.NewNop())
	return f
}

func (f *fixture) start(t *testing.T, def enemy.Definition) {
	t.Helper()
	f.prov.EXPECT().FetchDefinition(gomock.Any(), gomock.Any()).Return(def, nil)
	require.NoError(t, f.ctrl.StartEncounter(context.Background(), f.player))
}

func (f *fixture) decide(d enemy.Decision) {
	f.prov.EXPECT().FetchDecision(gomock.Any(), gomock.Any()).Return(d, nil)
}

func (f *fixture) events() []battle.Event {
	var out []battle.Event
	for {
		select {
		case e := <-f.sink.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func messages(s battle.EncounterState) []string {
	out := make([]string, len(s.Log))
	for i, e := range s.Log {
		out[i] = e.Message
	}
	return out
}

func TestStartEncounter_FallbackOnProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.prov.EXPECT().FetchDefinition(gomock.Any(), gomock.Any()).
		Return(enemy.Definition{}, &enemy.ProviderError{Op: "definition", Err: errors.New("boom")})
	require.NoError(t, f.ctrl.StartEncounter(context.Background(), f.player))

	s := f.ctrl.State()
	assert.Equal(t, battle.InBattle, s.Phase)
	assert.Equal(t, battle.Undecided, s.Outcome)
	require.NotNil(t, s.Enemy)
	assert.Equal(t, enemy.FallbackName, s.Enemy.Name)
	assert.Equal(t, 100, s.Enemy.HP)
	assert.Equal(t, 15, s.Enemy.Attack)
	assert.Equal(t, 1, s.Turn)
	assert.Equal(t, "Code Warrior", s.ActiveName())
	assert.NotEqual(t, uuid.Nil, s.ID)
}

func TestStartEncounter_ResetsPlayer(t *testing.T) {
	f := newFixture(t)
	f.player.HP = 3
	f.player.IsDefending = true
	f.player.StatusEffects = []combat.StatusEffect{{Type: combat.Weaken, RemainingTurns: 2}}
	f.player.Abilities[0].CurrentCooldown = 2
	f.start(t, nullPointer(10))

	s := f.ctrl.State()
	assert.Equal(t, 150, s.Player.HP)
	assert.False(t, s.Player.IsDefending)
	assert.Empty(t, s.Player.StatusEffects)
	assert.Equal(t, 0, s.Player.Abilities[0].CurrentCooldown)
	assert.Empty(t, s.Log)
}

func TestStartEncounter_PassesPlayerLevelHint(t *testing.T) {
	f := newFixture(t)
	f.player.Progress.Level = 4
	f.prov.EXPECT().FetchDefinition(gomock.Any(), enemy.Hint{PlayerName: "Code Warrior", PlayerLevel: 4}).
		Return(nullPointer(10), nil)
	require.NoError(t, f.ctrl.StartEncounter(context.Background(), f.player))
}

func TestStartEncounter_NilPlayer(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ctrl.StartEncounter(context.Background(), nil), battle.ErrNoPlayer)
}

func TestSubmitPlayerAction_Attack(t *testing.T) {
	f := newFixture(t)
	f.start(t, enemy.Fallback())

	require.True(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
	s := f.ctrl.State()
	assert.Equal(t, 81, s.Enemy.HP)
	assert.Contains(t, messages(s), "Code Warrior uses a basic attack on Fallback Glitch, dealing 19 damage.")
	assert.Equal(t, enemy.FallbackName, s.ActiveName())
	assert.True(t, f.ctrl.PendingEnemyTurn())
}

func TestSubmitPlayerAction_CriticalHitIsLogged(t *testing.T) {
	f := newFixture(t, 0.1)
	f.start(t, enemy.Fallback())

	require.True(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
	s := f.ctrl.State()
	require.NotEmpty(t, s.Log)
	assert.Equal(t, battle.LogEntry{Turn: 1, Message: "Critical Hit!", IsCritical: true}, s.Log[0])
	// round(30 * 100/105) = 29
	assert.Equal(t, 71, s.Enemy.HP)
}

func TestSubmitPlayerAction_RejectsCoolingAbility(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(10))

	require.True(t, f.ctrl.SubmitPlayerAction(battle.UseAbility(0)))
	f.decide(enemy.Decision{Kind: enemy.DecideAttack})
	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))

	before := f.ctrl.State()
	require.Equal(t, 2, before.Player.Abilities[0].CurrentCooldown)
	assert.ErrorIs(t, f.ctrl.CheckAction(battle.UseAbility(0)), battle.ErrAbilityCooling)
	assert.False(t, f.ctrl.SubmitPlayerAction(battle.UseAbility(0)))

	after := f.ctrl.State()
	assert.Equal(t, before.Log, after.Log)
	assert.Equal(t, 2, after.Player.Abilities[0].CurrentCooldown)
	assert.Equal(t, before.Enemy.HP, after.Enemy.HP)
	assert.Equal(t, "Code Warrior", after.ActiveName())
}

func TestSubmitPlayerAction_Rejections(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.ctrl.SubmitPlayerAction(battle.Attack()), "before any encounter")
	assert.ErrorIs(t, f.ctrl.CheckAction(battle.Attack()), battle.ErrNotInBattle)

	f.start(t, nullPointer(10))
	before := f.ctrl.State()

	cases := []struct {
		name   string
		action battle.Action
		want   error
	}{
		{"ability out of range", battle.UseAbility(5), battle.ErrUnknownAbility},
		{"negative ability index", battle.UseAbility(-1), battle.ErrUnknownAbility},
		{"potion at full health", battle.UsePotion(), battle.ErrFullHealth},
		{"unknown action", battle.Action{Kind: battle.ActionKind(42)}, battle.ErrUnknownAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.ctrl.CheckAction(tc.action)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, battle.ErrInvalidAction)
			assert.False(t, f.ctrl.SubmitPlayerAction(tc.action))
		})
	}
	after := f.ctrl.State()
	assert.Equal(t, before.Player, after.Player)
	assert.Equal(t, before.Enemy, after.Enemy)
	assert.Empty(t, after.Log)

	require.True(t, f.ctrl.SubmitPlayerAction(battle.Defend()))
	assert.ErrorIs(t, f.ctrl.CheckAction(battle.Attack()), battle.ErrNotPlayerTurn)
	assert.False(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
}

func TestSubmitPlayerAction_NoPotions(t *testing.T) {
	f := newFixture(t)
	f.player.Progress.Potions = 0
	f.start(t, nullPointer(30))
	f.decide(enemy.Decision{Kind: enemy.DecideAttack})
	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))

	assert.ErrorIs(t, f.ctrl.CheckAction(battle.UsePotion()), battle.ErrNoPotions)
	assert.False(t, f.ctrl.SubmitPlayerAction(battle.UsePotion()))
}

func TestSubmitPlayerAction_Potion(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))
	f.decide(enemy.Decision{Kind: enemy.DecideAttack})
	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	// round(15 * 100/110) = 14
	require.Equal(t, 136, f.ctrl.State().Player.HP)

	require.True(t, f.ctrl.SubmitPlayerAction(battle.UsePotion()))
	s := f.ctrl.State()
	assert.Equal(t, 150, s.Player.HP)
	assert.Equal(t, 2, s.Player.Progress.Potions)
	assert.Contains(t, messages(s), "Code Warrior uses a potion and restores 14 HP.")
	assert.Equal(t, 14, eventAmount(t, f.events(), battle.EventPotionUsed))
}

func TestSubmitPlayerAction_HealAbility(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))
	f.decide(enemy.Decision{Kind: enemy.DecideAttack})
	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))

	require.True(t, f.ctrl.SubmitPlayerAction(battle.UseAbility(1)))
	s := f.ctrl.State()
	assert.Equal(t, 150, s.Player.HP)
	assert.Equal(t, 3, s.Player.Abilities[1].CurrentCooldown)
	assert.Contains(t, messages(s), "Code Warrior uses Debug & Reboot and heals for 14 HP.")
	assert.Equal(t, 14, eventAmount(t, f.events(), battle.EventHeal))
}

func TestRunEnemyTurn_NotPending(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(10))
	assert.False(t, f.ctrl.PendingEnemyTurn())
	assert.ErrorIs(t, f.ctrl.RunEnemyTurn(context.Background()), battle.ErrNotEnemyTurn)
}

func TestRunEnemyTurn_DecisionFailureFallsBackToAttack(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))
	f.prov.EXPECT().FetchDecision(gomock.Any(), gomock.Any()).
		Return(enemy.Decision{}, &enemy.ProviderError{Op: "decision", Err: context.DeadlineExceeded})

	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	s := f.ctrl.State()
	assert.Equal(t, 136, s.Player.HP)
	assert.Contains(t, messages(s), "Null Pointer lashes out.")
	assert.Equal(t, "Code Warrior", s.ActiveName())
}

func TestRunEnemyTurn_InvalidAbilityFallsBackToAttack(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))
	f.decide(enemy.Decision{Kind: enemy.DecideAbility, AbilityIndex: 7, NextIntentHint: "scheming"})

	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	s := f.ctrl.State()
	assert.Contains(t, messages(s), "Null Pointer uses a basic attack on Code Warrior, dealing 14 damage.")
	assert.Equal(t, "scheming", s.EnemyIntent)
}

func TestRunEnemyTurn_StunSkipsPlayer(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))
	f.decide(enemy.Decision{Kind: enemy.DecideAbility, AbilityIndex: 0, Narration: "Null Pointer dereferences you."})

	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	s := f.ctrl.State()
	msgs := messages(s)
	assert.Contains(t, msgs, "Null Pointer dereferences you.")
	assert.Contains(t, msgs, "Code Warrior is now Stun!")
	assert.Contains(t, msgs, "Stun wore off for Code Warrior.")
	assert.Contains(t, msgs, "Code Warrior is stunned and cannot act!")
	assert.Equal(t, 2, s.Turn)
	assert.Equal(t, "Null Pointer", s.ActiveName())
	assert.Empty(t, s.Player.StatusEffects)
	// Freeze: cooldown 2, ticked at the end of turn 1.
	assert.Equal(t, 1, s.Enemy.Abilities[0].CurrentCooldown)
	assert.True(t, f.ctrl.PendingEnemyTurn())

	var skipped bool
	for _, e := range f.events() {
		if e.Kind == battle.EventTurnSkipped {
			skipped = true
			assert.Equal(t, "Code Warrior", e.Actor)
		}
	}
	assert.True(t, skipped)
}

func TestRunEnemyTurn_DefendHalvesPlayerAttack(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))
	f.decide(enemy.Decision{Kind: enemy.DecideDefend})
	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	require.True(t, f.ctrl.State().Enemy.IsDefending)

	require.True(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
	s := f.ctrl.State()
	// round(20 * 100/105 * 0.5) = 10
	assert.Equal(t, 90, s.Enemy.HP)
	assert.False(t, s.Enemy.IsDefending, "stance lapses when the enemy's next turn opens")
}

func TestRunEnemyTurn_HealAbility(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(10))
	require.True(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
	f.decide(enemy.Decision{Kind: enemy.DecideAbility, AbilityIndex: 1})

	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	s := f.ctrl.State()
	assert.Equal(t, 100, s.Enemy.HP)
	assert.Contains(t, messages(s), "Null Pointer uses Garbage Collect and heals for 19 HP.")
	assert.Equal(t, 19, eventAmount(t, f.events(), battle.EventHeal))
}

func TestHeal_ReportsAmountRestoredNotNewHP(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))
	f.decide(enemy.Decision{Kind: enemy.DecideAttack})
	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	hp := f.ctrl.State().Player.HP
	f.events()

	require.True(t, f.ctrl.SubmitPlayerAction(battle.UsePotion()))
	s := f.ctrl.State()
	restored := eventAmount(t, f.events(), battle.EventPotionUsed)
	assert.Equal(t, s.Player.HP-hp, restored)
	assert.Less(t, restored, s.Player.HP)
}

// eventAmount returns the Amount of the last event of kind.
func eventAmount(t *testing.T, events []battle.Event, kind battle.EventKind) int {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == kind {
			return events[i].Amount
		}
	}
	t.Fatalf("no %s event", kind)
	return 0
}

func TestRunEnemyTurn_RequestCarriesRecentLog(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(10))

	var last enemy.DecisionRequest
	f.prov.EXPECT().FetchDecision(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req enemy.DecisionRequest) (enemy.Decision, error) {
			last = req
			return enemy.Decision{Kind: enemy.DecideDefend}, nil
		}).Times(4)

	for range 4 {
		require.True(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
		require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	}

	require.Len(t, last.RecentLog, battle.RecentLogSize)
	log := f.ctrl.State().Log
	assert.Equal(t, log[len(log)-2].Message, last.RecentLog[len(last.RecentLog)-1].Message)

	last.Enemy.HP = -999
	assert.NotEqual(t, -999, f.ctrl.State().Enemy.HP, "request carries copies")
}

func TestRunEnemyTurn_RejectsPlayerWhileAwaiting(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))

	started := make(chan struct{})
	release := make(chan struct{})
	f.prov.EXPECT().FetchDecision(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ enemy.DecisionRequest) (enemy.Decision, error) {
			close(started)
			<-release
			return enemy.Decision{Kind: enemy.DecideAttack}, nil
		})

	done := make(chan error, 1)
	go func() { done <- f.ctrl.RunEnemyTurn(context.Background()) }()
	<-started

	assert.True(t, f.ctrl.State().AwaitingEnemy)
	assert.False(t, f.ctrl.PendingEnemyTurn())
	assert.ErrorIs(t, f.ctrl.RunEnemyTurn(context.Background()), battle.ErrNotEnemyTurn)
	assert.ErrorIs(t, f.ctrl.CheckAction(battle.Attack()), battle.ErrAwaitingEnemy)
	assert.False(t, f.ctrl.SubmitPlayerAction(battle.Attack()))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 136, f.ctrl.State().Player.HP, "decision applied exactly once")
}

func TestRunEnemyTurn_StaleDecisionDiscarded(t *testing.T) {
	f := newFixture(t)
	f.prov.EXPECT().FetchDefinition(gomock.Any(), gomock.Any()).Return(nullPointer(30), nil).Times(2)
	require.NoError(t, f.ctrl.StartEncounter(context.Background(), f.player))
	first := f.ctrl.State().ID

	f.prov.EXPECT().FetchDecision(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ enemy.DecisionRequest) (enemy.Decision, error) {
			require.NoError(t, f.ctrl.StartEncounter(ctx, f.player))
			return enemy.Decision{Kind: enemy.DecideAttack}, nil
		})

	assert.ErrorIs(t, f.ctrl.RunEnemyTurn(context.Background()), battle.ErrStaleDecision)
	s := f.ctrl.State()
	assert.NotEqual(t, first, s.ID)
	assert.Equal(t, 150, s.Player.HP)
	assert.Empty(t, s.Log)
	assert.True(t, f.ctrl.PendingEnemyTurn())
}

func TestVictory_AwardsAndSaves(t *testing.T) {
	f := newFixture(t)
	f.player.Progress.XP = 95
	def := nullPointer(10)
	def.MaxHP = 1
	def.Level = 3
	f.start(t, def)

	require.True(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
	s := f.ctrl.State()
	assert.Equal(t, battle.PostBattle, s.Phase)
	assert.Equal(t, battle.PlayerWon, s.Outcome)
	require.NotNil(t, s.Reward)
	assert.Equal(t, 80, s.Reward.XP)
	assert.Equal(t, 50, s.Reward.Coins)
	assert.Equal(t, []int{2}, s.Reward.LevelsGained)
	assert.Equal(t, 2, s.Player.Progress.Level)
	assert.Equal(t, 75, s.Player.Progress.XP)
	assert.Equal(t, 170, s.Player.MaxHP)
	assert.Equal(t, 170, s.Player.HP)
	assert.Equal(t, "", s.ActiveName())

	msgs := messages(s)
	assert.Contains(t, msgs, "Null Pointer has been defeated!")
	assert.Contains(t, msgs, "You gained 80 XP and 50 coins!")
	assert.Contains(t, msgs, "Code Warrior leveled up to Level 2! Stats increased!")

	assert.False(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
	assert.False(t, f.ctrl.PendingEnemyTurn())

	f.ctrl.Wait()
	saved := f.saver.all()
	require.Len(t, saved, 1)
	assert.Equal(t, 50, saved[0].Progress.Coins)
	assert.Equal(t, 2, saved[0].Progress.Level)

	var ended, leveled bool
	for _, e := range f.events() {
		switch e.Kind {
		case battle.EventBattleEnded:
			ended = true
			assert.Equal(t, battle.PlayerWon, e.Outcome)
			assert.Equal(t, s.ID, e.EncounterID)
		case battle.EventLevelUp:
			leveled = true
			assert.Equal(t, 2, e.Level)
		}
	}
	assert.True(t, ended)
	assert.True(t, leveled)
}

func TestStartEncounter_EnemyWithoutHPEndsImmediately(t *testing.T) {
	f := newFixture(t)
	def := nullPointer(1)
	def.MaxHP = 0
	f.start(t, def)

	s := f.ctrl.State()
	assert.Equal(t, battle.PostBattle, s.Phase)
	assert.Equal(t, battle.PlayerWon, s.Outcome)
	assert.Equal(t, 0, s.Enemy.HP)
	assert.Contains(t, messages(s), "Null Pointer has been defeated!")
	assert.ErrorIs(t, f.ctrl.CheckAction(battle.UsePotion()), battle.ErrNotInBattle)
	assert.False(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
	assert.False(t, f.ctrl.PendingEnemyTurn())
	f.ctrl.Wait()
}

func TestNextEncounter_UsesAttachedPlayer(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ctrl.NextEncounter(context.Background()), battle.ErrNoPlayer)

	f.player.Progress.Coins = 40
	require.True(t, f.ctrl.AttachPlayer(f.player))
	f.prov.EXPECT().FetchDefinition(gomock.Any(), gomock.Any()).Return(nullPointer(10), nil)
	require.NoError(t, f.ctrl.NextEncounter(context.Background()))

	s := f.ctrl.State()
	assert.Equal(t, battle.InBattle, s.Phase)
	assert.Equal(t, 40, s.Player.Progress.Coins)
	require.True(t, f.ctrl.SubmitPlayerAction(battle.Attack()))
	f.decide(enemy.Decision{Kind: enemy.DecideAttack})
	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	assert.Less(t, f.player.HP, 150)
	assert.Equal(t, f.player.HP, f.ctrl.State().Player.HP, "the attached combatant is the one in battle")
}

func TestDefeat(t *testing.T) {
	f := newFixture(t)
	f.player.MaxHP = 10
	def := nullPointer(30)
	def.Attack = 1000
	f.start(t, def)
	f.decide(enemy.Decision{Kind: enemy.DecideAttack})

	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	s := f.ctrl.State()
	assert.Equal(t, battle.PostBattle, s.Phase)
	assert.Equal(t, battle.EnemyWon, s.Outcome)
	assert.Equal(t, 0, s.Player.HP)
	assert.Nil(t, s.Reward)
	assert.Equal(t, 0, s.Player.Progress.Coins)
	assert.Contains(t, messages(s), "Code Warrior has been defeated!")
}

func TestCorrosionCanEndBattleAtTurnStart(t *testing.T) {
	f := newFixture(t)
	def := nullPointer(10)
	def.MaxHP = 20
	def.Defense = 0
	f.player.Abilities[0] = combat.Ability{Name: "Rust Spray", Power: 19,
		AppliedStatus: &combat.AppliedStatus{Type: combat.Corrosion, Chance: 1, Duration: 3}}
	f.start(t, def)

	require.True(t, f.ctrl.SubmitPlayerAction(battle.UseAbility(0)))
	s := f.ctrl.State()
	assert.Equal(t, battle.PostBattle, s.Phase)
	assert.Equal(t, battle.PlayerWon, s.Outcome)
	assert.Equal(t, 0, s.Enemy.HP)
	assert.Contains(t, messages(s), "Null Pointer takes 1 damage from Corrosion.")
}

func TestShop(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.ctrl.BuyPotion(), "no player attached")

	f.player.Progress.Coins = 100
	require.True(t, f.ctrl.AttachPlayer(f.player))
	assert.True(t, f.ctrl.BuyPotion())
	assert.True(t, f.ctrl.BuyUpgradeAttack())
	assert.False(t, f.ctrl.BuyUpgradeDefense())

	s := f.ctrl.State()
	assert.Equal(t, 0, s.Player.Progress.Coins)
	assert.Equal(t, 4, s.Player.Progress.Potions)
	assert.Equal(t, 23, s.Player.Attack)
	assert.Equal(t, 10, s.Player.Defense)

	f.ctrl.Wait()
	saved := f.saver.all()
	require.NotEmpty(t, saved)
	require.LessOrEqual(t, len(saved), 2)
	last := saved[len(saved)-1]
	assert.Equal(t, 0, last.Progress.Coins, "newest snapshot is persisted last")
	assert.Equal(t, 23, last.Attack)

	var items []string
	for _, e := range f.events() {
		if e.Kind == battle.EventPurchase {
			items = append(items, e.Item)
		}
	}
	assert.Equal(t, []string{"potion", "attack"}, items)
}

func TestShop_DuringBattle(t *testing.T) {
	f := newFixture(t)
	f.player.Progress.Coins = 25
	f.start(t, nullPointer(10))
	assert.False(t, f.ctrl.AttachPlayer(newPlayer()), "cannot swap players mid-battle")
	assert.True(t, f.ctrl.BuyPotion())
	assert.Equal(t, 4, f.ctrl.State().Player.Progress.Potions)
}

func TestEnemyPortraitResolves(t *testing.T) {
	mc := gomock.NewController(t)
	prov := enemymocks.NewMockProvider(mc)
	prov.EXPECT().FetchDefinition(gomock.Any(), gomock.Any()).Return(nullPointer(10), nil)
	sink := battle.NewChannelSink(64)
	ctrl := battle.NewController(prov, dice.NewSequence(0.5), nil, stubPortraits{}, sink, battle.Settings{}, nil)

	require.NoError(t, ctrl.StartEncounter(context.Background(), newPlayer()))
	ctrl.RequestPlayerPortrait("Code Warrior", "a cyber knight")
	ctrl.Wait()

	s := ctrl.State()
	require.NotNil(t, s.EnemyPortrait)
	assert.Equal(t, "Null Pointer", s.EnemyPortrait.Subject)
	assert.True(t, s.EnemyPortrait.Placeholder)
	h, ok := ctrl.PlayerPortrait()
	require.True(t, ok)
	assert.Equal(t, "Code Warrior", h.Subject)
}

func TestChannelSink_DropsWhenFull(t *testing.T) {
	sink := battle.NewChannelSink(1)
	sink.Emit(battle.Event{Kind: battle.EventDamage})
	sink.Emit(battle.Event{Kind: battle.EventHeal})
	assert.Equal(t, int64(1), sink.Dropped())
	e := <-sink.Events()
	assert.Equal(t, battle.EventDamage, e.Kind)
}

func TestSubmitPlayerAction_EmitsOrderedEvents(t *testing.T) {
	f := newFixture(t)
	f.start(t, enemy.Fallback())
	require.True(t, f.ctrl.SubmitPlayerAction(battle.Attack()))

	var kinds []battle.EventKind
	for _, e := range f.events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []battle.EventKind{
		battle.EventEncounterStarted,
		battle.EventTurnAdvanced,
		battle.EventDamage,
		battle.EventTurnAdvanced,
	}, kinds)
}

func TestLogNeverContainsFormatArtifacts(t *testing.T) {
	f := newFixture(t)
	f.start(t, nullPointer(30))
	f.decide(enemy.Decision{Kind: enemy.DecideAbility, AbilityIndex: 0})
	require.NoError(t, f.ctrl.RunEnemyTurn(context.Background()))
	for _, m := range messages(f.ctrl.State()) {
		assert.False(t, strings.Contains(m, "%!"), m)
	}
}
