package combat_test

import (
	"testing"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func duel(playerSpeed, enemySpeed int) (*combat.Combatant, *combat.Combatant) {
	p := &combat.Combatant{Kind: combat.KindPlayer, Name: "Code Warrior", HP: 150, MaxHP: 150, Speed: playerSpeed}
	e := &combat.Combatant{Kind: combat.KindEnemy, Name: "Glitch", HP: 100, MaxHP: 100, Speed: enemySpeed}
	return p, e
}

// act plays one ordinary (non-stunned) turn.
func act(t require.TestingT, s *combat.Scheduler) {
	ts := s.BeginTurn()
	require.False(t, ts.Stunned)
	require.True(t, s.BeginAction())
	s.EndTurn()
}

func TestNewScheduler_Order(t *testing.T) {
	p, e := duel(25, 10)
	s := combat.NewScheduler(p, e)
	assert.Same(t, p, s.Active())

	p, e = duel(10, 25)
	s = combat.NewScheduler(p, e)
	assert.Same(t, e, s.Active())

	p, e = duel(10, 10)
	s = combat.NewScheduler(p, e)
	assert.Same(t, p, s.Active(), "ties go to the player")
	assert.Equal(t, 1, s.Turn())
	assert.Equal(t, combat.AdvancingTurn, s.State())
}

func TestScheduler_Property_Alternation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p, e := duel(rapid.IntRange(0, 50).Draw(rt, "ps"), rapid.IntRange(0, 50).Draw(rt, "es"))
		s := combat.NewScheduler(p, e)
		n := rapid.IntRange(1, 40).Draw(rt, "turns")
		for i := 0; i < n; i++ {
			require.Equal(rt, i%2, s.ActiveIndex())
			require.Equal(rt, 1+i/2, s.Turn())
			act(rt, s)
		}
	})
}

func TestScheduler_StunSkipsAction(t *testing.T) {
	p, e := duel(25, 10)
	p.AddStatus(combat.StatusEffect{Type: combat.Stun, RemainingTurns: 1})
	s := combat.NewScheduler(p, e)

	ts := s.BeginTurn()
	assert.True(t, ts.Stunned)
	require.Len(t, ts.Ticks, 1)
	assert.True(t, ts.Ticks[0].Expired, "stun decrements and expires the same turn")
	assert.Same(t, e, s.Active(), "control passes to the opponent")
	assert.Equal(t, combat.AdvancingTurn, s.State())
	assert.False(t, s.BeginAction())
}

func TestScheduler_StunSkipStillDecaysCooldowns(t *testing.T) {
	p, e := duel(25, 10)
	p.Abilities = []combat.Ability{{Name: "Reboot", CurrentCooldown: 2}}
	p.AddStatus(combat.StatusEffect{Type: combat.Stun, RemainingTurns: 2})
	s := combat.NewScheduler(p, e)
	s.BeginTurn()
	assert.Equal(t, 1, p.Abilities[0].CurrentCooldown)
}

func TestScheduler_DefendingLapsesAtOwnTurnStart(t *testing.T) {
	p, e := duel(25, 10)
	s := combat.NewScheduler(p, e)
	s.BeginTurn()
	s.BeginAction()
	p.IsDefending = true
	s.EndTurn()
	assert.True(t, p.IsDefending, "stance holds through the opponent's turn")
	act(t, s)
	assert.True(t, p.IsDefending)
	s.BeginTurn()
	assert.False(t, p.IsDefending)
}

func TestScheduler_CorrosionDefeatEndsBattle(t *testing.T) {
	p, e := duel(25, 10)
	e.HP = 3
	e.AddStatus(combat.StatusEffect{Type: combat.Corrosion, RemainingTurns: 3})
	e.Abilities = []combat.Ability{{Name: "Crash", CurrentCooldown: 1}}
	s := combat.NewScheduler(p, e)
	act(t, s)

	ts := s.BeginTurn()
	assert.True(t, ts.Defeated)
	assert.True(t, s.Over())
	assert.Equal(t, 1, e.Abilities[0].CurrentCooldown, "end-of-turn bookkeeping is skipped")
}

func TestScheduler_EndTurnDetectsDefeat(t *testing.T) {
	p, e := duel(25, 10)
	s := combat.NewScheduler(p, e)
	s.BeginTurn()
	s.BeginAction()
	e.ApplyDamage(1000)
	s.EndTurn()
	assert.Equal(t, combat.BattleOver, s.State())
	assert.Same(t, p, s.Active())
}

func TestScheduler_DefeatedOpponentEndsBattleAtTurnStart(t *testing.T) {
	p, e := duel(25, 10)
	e.HP = 0
	p.IsDefending = true
	s := combat.NewScheduler(p, e)

	ts := s.BeginTurn()
	assert.True(t, ts.Defeated)
	assert.Same(t, p, ts.Actor)
	assert.Empty(t, ts.Ticks)
	assert.True(t, s.Over())
	assert.True(t, p.IsDefending, "no start-of-turn effects once the battle is decided")
	assert.False(t, s.BeginAction())
}
