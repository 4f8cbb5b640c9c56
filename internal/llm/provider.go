package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/enemy"
)

// DefaultMaxTokens bounds every completion.
const DefaultMaxTokens = 1024

// EnemyProvider implements enemy.Provider with a language model.
type EnemyProvider struct {
	msgs      MessageCreator
	model     string
	maxTokens int64
	logger    *zap.Logger
}

// NewEnemyProvider creates an EnemyProvider.
//
// Precondition: msgs must be non-nil; model must be non-empty. maxTokens <= 0
// selects DefaultMaxTokens. A nil logger disables logging.
func NewEnemyProvider(msgs MessageCreator, model string, maxTokens int, logger *zap.Logger) *EnemyProvider {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnemyProvider{msgs: msgs, model: model, maxTokens: int64(maxTokens), logger: logger}
}

type statusPayload struct {
	Type     string  `json:"type"`
	Chance   float64 `json:"chance"`
	Duration int     `json:"duration"`
}

type abilityPayload struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Damage       int            `json:"damage"`
	Cooldown     int            `json:"cooldown"`
	StatusEffect *statusPayload `json:"statusEffect"`
}

type definitionPayload struct {
	Name        string           `json:"name"`
	HP          int              `json:"hp"`
	Attack      int              `json:"attack"`
	Defense     int              `json:"defense"`
	Speed       int              `json:"speed"`
	ImagePrompt string           `json:"imagePrompt"`
	Abilities   []abilityPayload `json:"abilities"`
}

type decisionPayload struct {
	Action      string `json:"action"`
	AbilityName string `json:"abilityName"`
	Narration   string `json:"narration"`
	NextIntent  string `json:"nextIntent"`
}

// FetchDefinition asks the model for a new enemy. Stats are used as returned;
// abilities naming an unknown status keep their damage but lose the status.
func (p *EnemyProvider) FetchDefinition(ctx context.Context, hint enemy.Hint) (enemy.Definition, error) {
	text, err := p.complete(ctx, definitionSystem, definitionPrompt(hint), 1.0)
	if err != nil {
		return enemy.Definition{}, &enemy.ProviderError{Op: "llm definition", Err: err}
	}
	var out definitionPayload
	if err := decodeJSON(text, &out); err != nil {
		return enemy.Definition{}, &enemy.ProviderError{Op: "llm definition", Err: err}
	}
	if out.Name == "" {
		return enemy.Definition{}, &enemy.ProviderError{Op: "llm definition", Err: errors.New("response has no enemy name")}
	}

	def := enemy.Definition{
		Name:           out.Name,
		Level:          max(hint.PlayerLevel, 1),
		MaxHP:          out.HP,
		Attack:         out.Attack,
		Defense:        out.Defense,
		Speed:          out.Speed,
		PortraitPrompt: out.ImagePrompt,
	}
	for _, a := range out.Abilities {
		ab := combat.Ability{
			Name:         a.Name,
			Description:  a.Description,
			Power:        a.Damage,
			BaseCooldown: max(a.Cooldown, 0),
		}
		if a.StatusEffect != nil {
			st, err := combat.ParseStatusType(a.StatusEffect.Type)
			if err != nil {
				p.logger.Warn("dropping unknown status from generated ability",
					zap.String("ability", a.Name),
					zap.String("status", a.StatusEffect.Type),
				)
			} else {
				ab.AppliedStatus = &combat.AppliedStatus{Type: st, Chance: a.StatusEffect.Chance, Duration: a.StatusEffect.Duration}
			}
		}
		def.Abilities = append(def.Abilities, ab)
	}
	p.logger.Debug("generated enemy", zap.String("name", def.Name), zap.Int("abilities", len(def.Abilities)))
	return def, nil
}

// FetchDecision asks the model for the enemy's next action. An ability name
// that matches none of the enemy's abilities yields AbilityIndex -1, which the
// battle controller downgrades to a basic attack.
func (p *EnemyProvider) FetchDecision(ctx context.Context, req enemy.DecisionRequest) (enemy.Decision, error) {
	text, err := p.complete(ctx, decisionSystem, decisionPrompt(req), 0.9)
	if err != nil {
		return enemy.Decision{}, &enemy.ProviderError{Op: "llm decision", Err: err}
	}
	var out decisionPayload
	if err := decodeJSON(text, &out); err != nil {
		return enemy.Decision{}, &enemy.ProviderError{Op: "llm decision", Err: err}
	}
	dec := enemy.Decision{Narration: out.Narration, NextIntentHint: out.NextIntent}
	switch strings.ToLower(strings.TrimSpace(out.Action)) {
	case "attack":
		dec.Kind = enemy.DecideAttack
	case "defend":
		dec.Kind = enemy.DecideDefend
	case "use_ability", "ability":
		dec.Kind = enemy.DecideAbility
		dec.AbilityIndex = abilityIndex(req.Enemy, out.AbilityName)
	default:
		return enemy.Decision{}, &enemy.ProviderError{Op: "llm decision", Err: fmt.Errorf("unknown action %q", out.Action)}
	}
	return dec, nil
}

func abilityIndex(c *combat.Combatant, name string) int {
	name = strings.TrimSpace(name)
	for i, a := range c.Abilities {
		if strings.EqualFold(a.Name, name) {
			return i
		}
	}
	return -1
}

func (p *EnemyProvider) complete(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	msg, err := p.msgs.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: anthropic.Float(temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("creating message: %w", err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("response contained no text")
	}
	return b.String(), nil
}

// decodeJSON unmarshals the outermost JSON object in text, tolerating prose
// or code fences around it.
func decodeJSON(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in response %q", truncate(text, 120))
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
