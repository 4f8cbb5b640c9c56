// Package progression implements the XP curve, level-up stat growth, victory
// rewards, and the shop economy. It has no knowledge of battle flow.
package progression

import (
	"math"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
)

const (
	LevelXPBase   = 100
	LevelXPGrowth = 1.5

	StatGainHP  = 20
	StatGainATK = 3
	StatGainDEF = 2

	CoinsPerVictory = 50
	VictoryXPBase   = 50
	VictoryXPLevel  = 10

	PotionHealAmount = 50

	PotionCost         = 25
	AttackUpgradeCost  = 75
	DefenseUpgradeCost = 75
)

// XPToNextLevel returns floor(100 * 1.5^(level-1)).
//
// Precondition: level >= 1; lower values are treated as 1.
func XPToNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(LevelXPBase * math.Pow(LevelXPGrowth, float64(level-1))))
}

// VictoryXP returns the XP granted for defeating an enemy of the given level.
//
// Postcondition: Returns 50 + 10*max(level, 1).
func VictoryXP(enemyLevel int) int {
	return VictoryXPBase + max(enemyLevel, 1)*VictoryXPLevel
}

// Reward is the outcome of AwardVictory.
type Reward struct {
	XP    int
	Coins int
	// LevelsGained lists each new level reached, in order.
	LevelsGained []int
}

// AwardVictory credits coins and XP to player and applies every level-up the
// new XP total crosses.
//
// Precondition: player.Progress must be non-nil.
// Postcondition: player.Progress.XP < player.Progress.XPToNextLevel.
func AwardVictory(player *combat.Combatant, enemyLevel int) Reward {
	r := Reward{XP: VictoryXP(enemyLevel), Coins: CoinsPerVictory}
	p := player.Progress
	p.Coins += r.Coins
	p.XP += r.XP
	for p.XPToNextLevel > 0 && p.XP >= p.XPToNextLevel {
		LevelUp(player)
		r.LevelsGained = append(r.LevelsGained, p.Level)
	}
	return r
}

// LevelUp consumes one level's worth of XP and applies the per-level stat gains,
// restoring the player to full health.
//
// Precondition: player.Progress must be non-nil and XP >= XPToNextLevel.
func LevelUp(player *combat.Combatant) {
	p := player.Progress
	p.XP -= p.XPToNextLevel
	p.Level++
	p.XPToNextLevel = XPToNextLevel(p.Level)
	player.MaxHP += StatGainHP
	player.Attack += StatGainATK
	player.Defense += StatGainDEF
	player.HP = player.MaxHP
}
