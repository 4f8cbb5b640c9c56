package enemy

import (
	"context"
	"fmt"
)

// LowHealthPercent is the HP share below which the Tactician prefers healing
// or defending.
const LowHealthPercent = 30

// Tactician is a local rule-based Decider:
//   - low HP: heal if a heal is ready, otherwise defend
//   - a ready ability whose status the player lacks is used next
//   - otherwise the strongest ready damaging ability beats a basic attack
type Tactician struct{}

// FetchDecision never fails.
func (Tactician) FetchDecision(_ context.Context, req DecisionRequest) (Decision, error) {
	e, p := req.Enemy, req.Player
	low := e.MaxHP > 0 && e.HP*100 < e.MaxHP*LowHealthPercent

	heal, status, strongest := -1, -1, -1
	for i := range e.Abilities {
		a := &e.Abilities[i]
		if !a.Ready() {
			continue
		}
		switch {
		case a.IsHeal():
			if heal < 0 {
				heal = i
			}
		case a.AppliedStatus != nil && !p.HasStatus(a.AppliedStatus.Type):
			if status < 0 {
				status = i
			}
		case a.Power > e.Attack && (strongest < 0 || a.Power > e.Abilities[strongest].Power):
			strongest = i
		}
	}

	switch {
	case low && heal >= 0:
		return abilityDecision(heal, fmt.Sprintf("%s reroutes power into its damaged core.", e.Name)), nil
	case low:
		return Decision{Kind: DecideDefend, Narration: fmt.Sprintf("%s raises its firewall.", e.Name), NextIntentHint: "recovering"}, nil
	case status >= 0:
		return abilityDecision(status, fmt.Sprintf("%s unleashes %s!", e.Name, e.Abilities[status].Name)), nil
	case strongest >= 0:
		return abilityDecision(strongest, fmt.Sprintf("%s charges %s!", e.Name, e.Abilities[strongest].Name)), nil
	default:
		return Decision{Kind: DecideAttack, Narration: fmt.Sprintf("%s strikes.", e.Name), NextIntentHint: "attacking"}, nil
	}
}

func abilityDecision(idx int, narration string) Decision {
	return Decision{
		Kind:           DecideAbility,
		AbilityIndex:   idx,
		Narration:      narration,
		NextIntentHint: "charging an ability",
	}
}
