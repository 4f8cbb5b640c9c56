package llm

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/enemy"
)

const definitionSystem = `You design enemies for a synthwave-themed turn-based RPG where the hero is a "Code Warrior".
Reply with a single JSON object and nothing else, using exactly these fields:
{"name": string, "hp": int (80-200), "attack": int (10-25), "defense": int (5-20), "speed": int (10-40),
 "imagePrompt": string (a vivid prompt for an image generator, vibrant synthwave robot style),
 "abilities": [1-2 items of {"name": string, "description": string,
   "damage": int (negative heals the user, 0 for a pure status move), "cooldown": int (turns),
   "statusEffect": optional {"type": "Stun"|"Corrosion"|"Weaken", "chance": number (0.1-1.0), "duration": int (1-3)}}]}`

const decisionSystem = `You control an enemy in a turn-based RPG battle.
Reply with a single JSON object and nothing else:
{"action": "attack"|"defend"|"use_ability", "abilityName": string (required for use_ability; must be one of the available abilities),
 "narration": string (one short dramatic sentence from the enemy's perspective),
 "nextIntent": string (a two-to-four word hint of what the enemy plans next)}
Guidance: defend or heal when your HP is low; prefer status abilities against a defending player;
never choose an ability that is not listed as available.`

func definitionPrompt(hint enemy.Hint) string {
	var b strings.Builder
	b.WriteString("Generate a unique, challenging enemy")
	if hint.PlayerName != "" {
		fmt.Fprintf(&b, " for %s", hint.PlayerName)
	}
	fmt.Fprintf(&b, ", who is level %d.", max(hint.PlayerLevel, 1))
	return b.String()
}

func statusList(c *combat.Combatant) string {
	if len(c.StatusEffects) == 0 {
		return "none"
	}
	names := make([]string, len(c.StatusEffects))
	for i, e := range c.StatusEffects {
		names[i] = string(e.Type)
	}
	return strings.Join(names, ", ")
}

const recentLines = 5

// decisionPrompt lists only abilities that are ready and at most the last
// recentLines log lines.
func decisionPrompt(req enemy.DecisionRequest) string {
	e, p := req.Enemy, req.Player
	var ready []string
	for _, a := range e.Abilities {
		if a.Ready() {
			ready = append(ready, fmt.Sprintf("%s (power %d, cooldown %d)", a.Name, a.Power, a.BaseCooldown))
		}
	}
	available := "none"
	if len(ready) > 0 {
		available = strings.Join(ready, ", ")
	}
	stance := "not defending"
	if p.IsDefending {
		stance = "defending"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s with %d/%d HP. Your status effects: %s.\n", e.Name, e.HP, e.MaxHP, statusList(e))
	fmt.Fprintf(&b, "Available abilities: %s.\n", available)
	fmt.Fprintf(&b, "The player %s has %d/%d HP, status effects: %s, and is %s.\n", p.Name, p.HP, p.MaxHP, statusList(p), stance)
	lines := req.RecentLog
	if len(lines) > recentLines {
		lines = lines[len(lines)-recentLines:]
	}
	if len(lines) > 0 {
		b.WriteString("Recent battle events:\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "Turn %d: %s\n", l.Turn, l.Message)
		}
	}
	b.WriteString("Choose your next action.")
	return b.String()
}
