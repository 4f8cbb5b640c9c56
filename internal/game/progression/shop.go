package progression

import (
	"fmt"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
)

// Item is a shop offering.
type Item int

const (
	ItemUnknown Item = iota
	ItemPotion
	ItemAttackUpgrade
	ItemDefenseUpgrade
)

// String returns the item's catalog name.
func (i Item) String() string {
	switch i {
	case ItemPotion:
		return "potion"
	case ItemAttackUpgrade:
		return "attack"
	case ItemDefenseUpgrade:
		return "defense"
	default:
		return "unknown"
	}
}

// ParseItem maps a catalog name to an Item.
func ParseItem(s string) (Item, error) {
	for _, it := range []Item{ItemPotion, ItemAttackUpgrade, ItemDefenseUpgrade} {
		if it.String() == s {
			return it, nil
		}
	}
	return ItemUnknown, fmt.Errorf("unknown shop item %q", s)
}

// Cost returns the coin price of the item, or 0 for ItemUnknown.
func (i Item) Cost() int {
	switch i {
	case ItemPotion:
		return PotionCost
	case ItemAttackUpgrade:
		return AttackUpgradeCost
	case ItemDefenseUpgrade:
		return DefenseUpgradeCost
	default:
		return 0
	}
}

// Buy deducts the item's cost from player and grants its effect.
//
// Precondition: player.Progress must be non-nil.
// Postcondition: Returns true iff coins were sufficient and the purchase was
// applied; on false player is unchanged.
func Buy(player *combat.Combatant, item Item) bool {
	p := player.Progress
	cost := item.Cost()
	if item == ItemUnknown || p.Coins < cost {
		return false
	}
	p.Coins -= cost
	switch item {
	case ItemPotion:
		p.Potions++
	case ItemAttackUpgrade:
		player.Attack += StatGainATK
	case ItemDefenseUpgrade:
		player.Defense += StatGainDEF
	}
	return true
}
