package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/game/battle"
	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/progression"
	"github.com/cory-johannsen/codebattle/internal/portrait"
)

// Game drives the battle controller from line-oriented terminal input.
type Game struct {
	app         *App
	in          *bufio.Scanner
	out         io.Writer
	portraitDir string

	encounter  uuid.UUID
	printed    int
	summarized bool
}

// NewGame creates a Game reading commands from in and rendering to out.
// Resolved portraits are written to the configured portrait.output_dir.
func NewGame(a *App, in io.Reader, out io.Writer) *Game {
	return &Game{
		app:         a,
		in:          bufio.NewScanner(in),
		out:         out,
		portraitDir: a.Config.Portrait.OutputDir,
	}
}

const (
	helpIdle   = "Commands: [f]ight, [b]uy <potion|attack|defense>, [s]tats, [q]uit"
	helpBattle = "Commands: [a]ttack, [d]efend, [1-9] ability, [p]otion, [b]uy <item>, [s]tats, [q]uit"
)

// Run loads the player and processes commands until quit, end of input, or
// ctx is cancelled.
//
// Postcondition: Every background save has finished when Run returns.
func (g *Game) Run(ctx context.Context) error {
	defer g.app.Controller.Wait()

	player, p, err := g.app.Profiles.LoadPlayer(ctx)
	if err != nil {
		return err
	}
	g.app.Controller.AttachPlayer(player)
	g.app.Controller.RequestPlayerPortrait(p.Name, p.PortraitPrompt)

	fmt.Fprintf(g.out, "Welcome, %s (Level %d).\n", p.Name, p.Level)
	fmt.Fprintln(g.out, helpIdle)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.runEnemyTurns(ctx); err != nil {
			return err
		}
		g.flush()

		fmt.Fprint(g.out, "> ")
		if !g.in.Scan() {
			fmt.Fprintln(g.out)
			return g.in.Err()
		}
		quit, err := g.handle(ctx, strings.Fields(strings.ToLower(g.in.Text())))
		if err != nil {
			return err
		}
		if quit {
			g.flush()
			fmt.Fprintln(g.out, "Goodbye.")
			return nil
		}
	}
}

func (g *Game) runEnemyTurns(ctx context.Context) error {
	for g.app.Controller.PendingEnemyTurn() {
		err := g.app.Controller.RunEnemyTurn(ctx)
		if errors.Is(err, battle.ErrStaleDecision) || errors.Is(err, battle.ErrNotEnemyTurn) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) handle(ctx context.Context, args []string) (quit bool, err error) {
	if len(args) == 0 {
		return false, nil
	}
	ctrl := g.app.Controller
	switch cmd := args[0]; cmd {
	case "q", "quit", "exit":
		return true, nil
	case "h", "help", "?":
		g.help()
	case "s", "stats":
		g.stats()
	case "f", "fight":
		if ctrl.State().Phase == battle.InBattle {
			fmt.Fprintln(g.out, "You are already in a battle.")
			return false, nil
		}
		fmt.Fprintln(g.out, "Searching for an opponent...")
		if err := ctrl.NextEncounter(ctx); err != nil {
			fmt.Fprintln(g.out, "Could not find an opponent, try again.")
			g.app.Logger.Warn("starting encounter", zap.Error(err))
			return false, nil
		}
		s := ctrl.State()
		fmt.Fprintf(g.out, "A wild %s (Level %d) appears!\n", s.Enemy.Name, s.EnemyLevel)
	case "b", "buy":
		if len(args) < 2 {
			fmt.Fprintln(g.out, "Buy what? potion (25), attack (75), defense (75)")
			return false, nil
		}
		item, err := progression.ParseItem(args[1])
		if err != nil {
			fmt.Fprintln(g.out, err)
			return false, nil
		}
		if ctrl.Buy(item) {
			fmt.Fprintf(g.out, "Purchased %s.\n", item)
		} else {
			fmt.Fprintf(g.out, "Cannot afford %s (%d coins).\n", item, item.Cost())
		}
	default:
		action, ok := parseAction(cmd)
		if !ok {
			fmt.Fprintf(g.out, "Unknown command %q.\n", cmd)
			g.help()
			return false, nil
		}
		if err := ctrl.CheckAction(action); err != nil {
			fmt.Fprintln(g.out, hint(err))
			return false, nil
		}
		ctrl.SubmitPlayerAction(action)
	}
	return false, nil
}

func parseAction(cmd string) (battle.Action, bool) {
	switch cmd {
	case "a", "attack":
		return battle.Attack(), true
	case "d", "defend":
		return battle.Defend(), true
	case "p", "potion":
		return battle.UsePotion(), true
	}
	if n, err := strconv.Atoi(cmd); err == nil && n >= 1 {
		return battle.UseAbility(n - 1), true
	}
	return battle.Action{}, false
}

func hint(err error) string {
	switch {
	case errors.Is(err, battle.ErrNotInBattle):
		return "There is no battle. Type 'fight' to find an opponent."
	case errors.Is(err, battle.ErrAbilityCooling):
		return "That ability is still cooling down."
	case errors.Is(err, battle.ErrNoPotions):
		return "You have no potions left."
	case errors.Is(err, battle.ErrFullHealth):
		return "You are already at full health."
	case errors.Is(err, battle.ErrUnknownAbility):
		return "You have no such ability."
	default:
		return "You cannot do that right now."
	}
}

func (g *Game) help() {
	if g.app.Controller.State().Phase == battle.InBattle {
		fmt.Fprintln(g.out, helpBattle)
		return
	}
	fmt.Fprintln(g.out, helpIdle)
}

func (g *Game) stats() {
	s := g.app.Controller.State()
	if s.Player != nil {
		fmt.Fprintln(g.out, describe(s.Player))
	}
	if s.Phase == battle.InBattle && s.Enemy != nil {
		fmt.Fprintln(g.out, describe(s.Enemy))
		if s.EnemyIntent != "" {
			fmt.Fprintf(g.out, "  Intent: %s\n", s.EnemyIntent)
		}
	}
}

func describe(c *combat.Combatant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  HP %d/%d  ATK %d  DEF %d  SPD %d", c.Name, c.HP, c.MaxHP, c.Attack, c.Defense, c.Speed)
	if c.IsDefending {
		b.WriteString("  [defending]")
	}
	for _, e := range c.StatusEffects {
		fmt.Fprintf(&b, "  [%s %d]", e.Type, e.RemainingTurns)
	}
	if p := c.Progress; p != nil {
		fmt.Fprintf(&b, "\n  Level %d  XP %d/%d  Coins %d  Potions %d", p.Level, p.XP, p.XPToNextLevel, p.Coins, p.Potions)
	}
	for i, a := range c.Abilities {
		state := "ready"
		if !a.Ready() {
			state = fmt.Sprintf("%d turns", a.CurrentCooldown)
		}
		fmt.Fprintf(&b, "\n  %d. %s (%s)", i+1, a.Name, state)
	}
	return b.String()
}

// flush prints log entries not yet shown and handles pending events.
func (g *Game) flush() {
	s := g.app.Controller.State()
	if s.ID != g.encounter {
		g.encounter = s.ID
		g.printed = 0
		g.summarized = false
	}
	for _, e := range s.Log[g.printed:] {
		if e.IsCritical {
			fmt.Fprintf(g.out, "[Turn %d] *** %s ***\n", e.Turn, e.Message)
			continue
		}
		fmt.Fprintf(g.out, "[Turn %d] %s\n", e.Turn, e.Message)
	}
	g.printed = len(s.Log)

	g.drainEvents()

	switch {
	case s.Phase == battle.PostBattle && !g.summarized:
		g.summarized = true
		if s.Outcome == battle.PlayerWon {
			fmt.Fprintln(g.out, "Victory! Type 'fight' for the next opponent.")
		} else {
			fmt.Fprintln(g.out, "Defeat. Type 'fight' to try again.")
		}
	case s.Phase == battle.InBattle && s.ActiveName() == s.Player.Name:
		fmt.Fprintf(g.out, "%s HP %d/%d vs %s HP %d/%d\n",
			s.Player.Name, s.Player.HP, s.Player.MaxHP, s.Enemy.Name, s.Enemy.HP, s.Enemy.MaxHP)
	}
}

func (g *Game) drainEvents() {
	for {
		select {
		case ev := <-g.app.Events.Events():
			if ev.Kind == battle.EventPortraitReady {
				g.savePortrait(ev.Actor)
			}
		default:
			return
		}
	}
}

func (g *Game) savePortrait(subject string) {
	if g.portraitDir == "" {
		return
	}
	h, ok := g.app.Controller.PlayerPortrait()
	if !ok || h.Subject != subject {
		s := g.app.Controller.State()
		if s.EnemyPortrait == nil || s.EnemyPortrait.Subject != subject {
			return
		}
		h = *s.EnemyPortrait
	}
	path, err := writePortrait(g.portraitDir, h)
	if err != nil {
		g.app.Logger.Warn("writing portrait", zap.String("subject", h.Subject), zap.Error(err))
		return
	}
	fmt.Fprintf(g.out, "Portrait of %s saved to %s\n", h.Subject, path)
}

func writePortrait(dir string, h portrait.Handle) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, h.Subject)
	path := filepath.Join(dir, name+".png")
	return path, os.WriteFile(path, h.PNG, 0o644)
}
