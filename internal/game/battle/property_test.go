package battle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/codebattle/internal/game/battle"
	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/dice"
	"github.com/cory-johannsen/codebattle/internal/game/enemy"
)

type staticDefinitions struct{ def enemy.Definition }

func (s staticDefinitions) FetchDefinition(context.Context, enemy.Hint) (enemy.Definition, error) {
	return s.def, nil
}

func checkCombatant(t *rapid.T, c *combat.Combatant) {
	if c.HP < 0 || c.HP > c.MaxHP {
		t.Fatalf("%s hp %d outside [0, %d]", c.Name, c.HP, c.MaxHP)
	}
	seen := map[combat.StatusType]bool{}
	for _, e := range c.StatusEffects {
		if seen[e.Type] {
			t.Fatalf("%s carries duplicate %s", c.Name, e.Type)
		}
		seen[e.Type] = true
		if e.RemainingTurns <= 0 {
			t.Fatalf("%s carries expired %s", c.Name, e.Type)
		}
	}
	for _, a := range c.Abilities {
		if a.CurrentCooldown < 0 || a.CurrentCooldown > max(a.BaseCooldown, 0) {
			t.Fatalf("%s cooldown %d outside [0, %d]", a.Name, a.CurrentCooldown, a.BaseCooldown)
		}
	}
}

func TestController_Property_BattleInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		draws := rapid.SliceOfN(rapid.Float64Range(0, 0.999), 1, 64).Draw(rt, "draws")
		def := enemy.Definition{
			Name:    "Heisenbug",
			Level:   rapid.IntRange(1, 5).Draw(rt, "level"),
			MaxHP:   rapid.IntRange(1, 200).Draw(rt, "hp"),
			Attack:  rapid.IntRange(0, 40).Draw(rt, "attack"),
			Defense: rapid.IntRange(0, 20).Draw(rt, "defense"),
			Speed:   rapid.IntRange(0, 50).Draw(rt, "speed"),
			Abilities: []combat.Ability{
				{Name: "Race Condition", Power: 25, BaseCooldown: 2,
					AppliedStatus: &combat.AppliedStatus{Type: combat.Stun, Chance: 0.4, Duration: 1}},
				{Name: "Memory Leak", Power: 8, BaseCooldown: 1,
					AppliedStatus: &combat.AppliedStatus{Type: combat.Corrosion, Chance: 0.6, Duration: 3}},
				{Name: "Hotfix", Power: -10, BaseCooldown: 3},
			},
		}
		prov := enemy.Compose(staticDefinitions{def: def}, enemy.Tactician{})
		ctrl := battle.NewController(prov, dice.NewSequence(draws...), nil, nil, nil, battle.Settings{}, nil)
		player := newPlayer()
		require.NoError(rt, ctrl.StartEncounter(context.Background(), player))

		lastTurn := 1
		for step := 0; step < 2000; step++ {
			s := ctrl.State()
			checkCombatant(rt, s.Player)
			checkCombatant(rt, s.Enemy)
			if s.Turn < lastTurn {
				rt.Fatalf("turn went backwards: %d -> %d", lastTurn, s.Turn)
			}
			lastTurn = s.Turn
			if s.Phase == battle.PostBattle {
				if s.Outcome == battle.Undecided {
					rt.Fatalf("battle ended undecided")
				}
				if (s.Outcome == battle.PlayerWon) != (s.Enemy.HP == 0) {
					rt.Fatalf("outcome %s with enemy hp %d", s.Outcome, s.Enemy.HP)
				}
				return
			}
			if ctrl.PendingEnemyTurn() {
				require.NoError(rt, ctrl.RunEnemyTurn(context.Background()))
				continue
			}
			choice := rapid.SampledFrom([]battle.Action{
				battle.Attack(), battle.Defend(), battle.UseAbility(0), battle.UseAbility(1), battle.UsePotion(),
			}).Draw(rt, "action")
			if !ctrl.SubmitPlayerAction(choice) {
				require.True(rt, ctrl.SubmitPlayerAction(battle.Attack()))
			}
		}
		rt.Fatalf("battle did not finish within 2000 steps")
	})
}
