package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/game/dice"
	"github.com/cory-johannsen/codebattle/internal/game/enemy"
)

// DecisionHook is the Lua global called once per enemy turn:
//
//	function choose_action(enemy, player, log) return {action=, ability=, narration=, intent=} end
//
// action is "attack", "defend", or "use_ability"; ability is a 1-based index
// or an ability name.
const DecisionHook = "choose_action"

// DecisionScript implements enemy.Decider by calling DecisionHook in a
// sandboxed VM.
//
// A single LState is not goroutine-safe; mu serialises hook calls.
type DecisionScript struct {
	mu        sync.Mutex
	L         *lua.LState
	cancel    context.CancelFunc
	instLimit int
	logger    *zap.Logger
}

// LoadDecisionScript creates a sandboxed VM, registers the engine.* modules,
// and executes path. A directory path loads every *.lua file in it in
// lexicographic order.
//
// Precondition: roller must be non-nil. A nil logger disables logging.
// Postcondition: Returns an error if any file fails to load or DecisionHook is
// not defined afterwards.
func LoadDecisionScript(path string, instLimit int, roller *dice.Roller, logger *zap.Logger) (*DecisionScript, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := luaFiles(path)
	if err != nil {
		return nil, err
	}

	L, cancel := NewSandboxedState(instLimit)
	RegisterModules(L, roller, logger)
	for _, f := range files {
		err := withBudget(L, context.Background(), instLimit, func() error { return L.DoFile(f) })
		if err != nil {
			cancel()
			L.Close()
			return nil, fmt.Errorf("scripting: loading %q: %w", f, err)
		}
	}
	if L.GetGlobal(DecisionHook).Type() != lua.LTFunction {
		cancel()
		L.Close()
		return nil, fmt.Errorf("scripting: %q does not define %s", path, DecisionHook)
	}
	return &DecisionScript{L: L, cancel: cancel, instLimit: instLimit, logger: logger}, nil
}

func luaFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("scripting: no .lua files in %q", path)
	}
	return files, nil
}

// Close releases the VM.
func (s *DecisionScript) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.L.Close()
}

// FetchDecision calls DecisionHook. Lua runtime errors, exhausted instruction
// budgets, and malformed return values are reported as *enemy.ProviderError.
func (s *DecisionScript) FetchDecision(ctx context.Context, req enemy.DecisionRequest) (enemy.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	L := s.L

	logTbl := L.NewTable()
	for _, l := range req.RecentLog {
		entry := L.NewTable()
		L.SetField(entry, "turn", lua.LNumber(l.Turn))
		L.SetField(entry, "message", lua.LString(l.Message))
		logTbl.Append(entry)
	}

	var ret lua.LValue
	err := withBudget(L, ctx, s.instLimit, func() error {
		if err := L.CallByParam(lua.P{
			Fn:      L.GetGlobal(DecisionHook),
			NRet:    1,
			Protect: true,
		}, combatantTable(L, req.Enemy), combatantTable(L, req.Player), logTbl); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		s.logger.Warn("scripting: Lua runtime error", zap.String("hook", DecisionHook), zap.Error(err))
		return enemy.Decision{}, &enemy.ProviderError{Op: "script decision", Err: err}
	}
	return s.toDecision(ret, req)
}

func (s *DecisionScript) toDecision(v lua.LValue, req enemy.DecisionRequest) (enemy.Decision, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return enemy.Decision{}, &enemy.ProviderError{Op: "script decision", Err: fmt.Errorf("%s returned %s, want table", DecisionHook, v.Type())}
	}
	dec := enemy.Decision{
		Narration:      lua.LVAsString(tbl.RawGetString("narration")),
		NextIntentHint: lua.LVAsString(tbl.RawGetString("intent")),
	}
	switch action := lua.LVAsString(tbl.RawGetString("action")); action {
	case "attack":
		dec.Kind = enemy.DecideAttack
	case "defend":
		dec.Kind = enemy.DecideDefend
	case "use_ability":
		dec.Kind = enemy.DecideAbility
		dec.AbilityIndex = -1
		switch ab := tbl.RawGetString("ability").(type) {
		case lua.LNumber:
			dec.AbilityIndex = int(ab) - 1
		case lua.LString:
			for i, a := range req.Enemy.Abilities {
				if a.Name == string(ab) {
					dec.AbilityIndex = i
					break
				}
			}
		}
	default:
		return enemy.Decision{}, &enemy.ProviderError{Op: "script decision", Err: fmt.Errorf("unknown action %q", action)}
	}
	return dec, nil
}
