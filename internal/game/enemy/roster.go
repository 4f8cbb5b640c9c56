package enemy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/dice"
)

// Template is a roster entry loaded from YAML. Stat fields are dice
// expressions ("2d20+80") or plain integers ("15").
type Template struct {
	ID             string           `yaml:"id"`
	Name           string           `yaml:"name"`
	MinLevel       int              `yaml:"min_level"`
	MaxLevel       int              `yaml:"max_level"`
	HP             string           `yaml:"hp"`
	Attack         string           `yaml:"attack"`
	Defense        string           `yaml:"defense"`
	Speed          string           `yaml:"speed"`
	PortraitPrompt string           `yaml:"portrait_prompt"`
	Abilities      []combat.Ability `yaml:"abilities"`
}

// Validate checks that every stat expression parses and statuses are known.
func (t *Template) Validate() error {
	if t.ID == "" || t.Name == "" {
		return errors.New("template id and name must not be empty")
	}
	for field, expr := range map[string]string{"hp": t.HP, "attack": t.Attack, "defense": t.Defense, "speed": t.Speed} {
		if _, err := dice.Parse(expr); err != nil {
			return fmt.Errorf("template %q %s: %w", t.ID, field, err)
		}
	}
	for _, a := range t.Abilities {
		if a.AppliedStatus == nil {
			continue
		}
		if _, err := combat.ParseStatusType(string(a.AppliedStatus.Type)); err != nil {
			return fmt.Errorf("template %q ability %q: %w", t.ID, a.Name, err)
		}
	}
	return nil
}

// eligible reports whether the template may be fielded against level.
func (t *Template) eligible(level int) bool {
	if t.MinLevel > 0 && level < t.MinLevel {
		return false
	}
	if t.MaxLevel > 0 && level > t.MaxLevel {
		return false
	}
	return true
}

// Roster is an offline DefinitionSource backed by YAML templates.
type Roster struct {
	templates []*Template
	roller    *dice.Roller
}

// NewRoster creates a Roster over templates, rolling stats with roller.
//
// Precondition: templates must be non-empty and valid; roller must be non-nil.
func NewRoster(templates []*Template, roller *dice.Roller) *Roster {
	return &Roster{templates: templates, roller: roller}
}

// LoadTemplates reads every *.yaml file in dir as a Template.
//
// Postcondition: Returns at least one validated template sorted by ID, or an error.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading roster dir %q: %w", dir, err)
	}
	var out []*Template
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var tmpl Template
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&tmpl); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		out = append(out, &tmpl)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("roster dir %q contains no templates", dir)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FetchDefinition picks a template eligible for hint.PlayerLevel (any template
// when none is eligible) and rolls its stats.
func (r *Roster) FetchDefinition(ctx context.Context, hint Hint) (Definition, error) {
	if err := ctx.Err(); err != nil {
		return Definition{}, &ProviderError{Op: "roster definition", Err: err}
	}
	pool := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		if t.eligible(hint.PlayerLevel) {
			pool = append(pool, t)
		}
	}
	if len(pool) == 0 {
		pool = r.templates
	}
	if len(pool) == 0 {
		return Definition{}, &ProviderError{Op: "roster definition", Err: errors.New("roster is empty")}
	}
	tmpl := pool[dice.Intn(r.roller, len(pool))]

	stats := make([]int, 4)
	for i, expr := range []string{tmpl.HP, tmpl.Attack, tmpl.Defense, tmpl.Speed} {
		res, err := r.roller.RollExpr(expr)
		if err != nil {
			return Definition{}, &ProviderError{Op: "roster definition", Err: err}
		}
		stats[i] = res.Total()
	}
	return Definition{
		Name:           tmpl.Name,
		Level:          max(hint.PlayerLevel, 1),
		MaxHP:          stats[0],
		Attack:         stats[1],
		Defense:        stats[2],
		Speed:          stats[3],
		Abilities:      append([]combat.Ability(nil), tmpl.Abilities...),
		PortraitPrompt: tmpl.PortraitPrompt,
	}, nil
}
