package battle

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/game/progression"
)

// Buy purchases item for the attached player. Purchases are allowed in any
// phase, including mid-battle.
//
// Postcondition: Returns true iff a player is attached, the item is known, and
// the player could afford it. A successful purchase is persisted in the
// background.
func (c *Controller) Buy(item progression.Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player == nil {
		return false
	}
	if !progression.Buy(c.player, item) {
		c.logger.Debug("purchase declined",
			zap.String("item", item.String()),
			zap.Int("coins", c.player.Progress.Coins),
		)
		return false
	}
	c.logger.Info("purchase",
		zap.String("item", item.String()),
		zap.Int("cost", item.Cost()),
		zap.Int("coins", c.player.Progress.Coins),
	)
	c.emit(Event{Kind: EventPurchase, Actor: c.player.Name, Item: item.String(), Amount: item.Cost()})
	c.saveLocked()
	return true
}

// BuyPotion purchases one potion.
func (c *Controller) BuyPotion() bool { return c.Buy(progression.ItemPotion) }

// BuyUpgradeAttack purchases a permanent attack upgrade.
func (c *Controller) BuyUpgradeAttack() bool { return c.Buy(progression.ItemAttackUpgrade) }

// BuyUpgradeDefense purchases a permanent defense upgrade.
func (c *Controller) BuyUpgradeDefense() bool { return c.Buy(progression.ItemDefenseUpgrade) }
