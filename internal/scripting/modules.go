package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
	"github.com/cory-johannsen/codebattle/internal/game/dice"
)

// RegisterModules registers the engine.* Lua tables into L:
//
//	engine.log.debug/info/warn/error(msg)
//	engine.dice.roll(expr)  -> {total=, dice={...}, modifier=} or nil, err
//	engine.dice.chance(p)   -> bool
//	engine.status.STUN / CORROSION / WEAKEN
//
// Precondition: L must be from NewSandboxedState; roller and logger must be non-nil.
// Postcondition: engine global is defined in L.
func RegisterModules(L *lua.LState, roller *dice.Roller, logger *zap.Logger) {
	engine := L.NewTable()

	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	} {
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	diceTbl := L.NewTable()
	L.SetField(diceTbl, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		t := L.NewTable()
		L.SetField(t, "total", lua.LNumber(res.Total()))
		L.SetField(t, "modifier", lua.LNumber(res.Modifier))
		rolled := L.NewTable()
		for _, d := range res.Dice {
			rolled.Append(lua.LNumber(d))
		}
		L.SetField(t, "dice", rolled)
		L.Push(t)
		return 1
	}))
	L.SetField(diceTbl, "chance", L.NewFunction(func(L *lua.LState) int {
		p := float64(L.CheckNumber(1))
		L.Push(lua.LBool(roller.Chance("lua", p)))
		return 1
	}))
	L.SetField(engine, "dice", diceTbl)

	statusTbl := L.NewTable()
	L.SetField(statusTbl, "STUN", lua.LString(combat.Stun))
	L.SetField(statusTbl, "CORROSION", lua.LString(combat.Corrosion))
	L.SetField(statusTbl, "WEAKEN", lua.LString(combat.Weaken))
	L.SetField(engine, "status", statusTbl)

	L.SetGlobal("engine", engine)
}

// combatantTable converts a combatant snapshot to a Lua table. Ability indices
// are 1-based, as is usual in Lua.
func combatantTable(L *lua.LState, c *combat.Combatant) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "hp", lua.LNumber(c.HP))
	L.SetField(t, "max_hp", lua.LNumber(c.MaxHP))
	L.SetField(t, "attack", lua.LNumber(c.Attack))
	L.SetField(t, "defense", lua.LNumber(c.Defense))
	L.SetField(t, "speed", lua.LNumber(c.Speed))
	L.SetField(t, "defending", lua.LBool(c.IsDefending))

	statuses := L.NewTable()
	for _, e := range c.StatusEffects {
		L.SetField(statuses, string(e.Type), lua.LNumber(e.RemainingTurns))
	}
	L.SetField(t, "statuses", statuses)

	abilities := L.NewTable()
	for _, a := range c.Abilities {
		at := L.NewTable()
		L.SetField(at, "name", lua.LString(a.Name))
		L.SetField(at, "power", lua.LNumber(a.Power))
		L.SetField(at, "cooldown", lua.LNumber(a.BaseCooldown))
		L.SetField(at, "current_cooldown", lua.LNumber(a.CurrentCooldown))
		L.SetField(at, "ready", lua.LBool(a.Ready()))
		L.SetField(at, "heals", lua.LBool(a.IsHeal()))
		if a.AppliedStatus != nil {
			L.SetField(at, "status", lua.LString(a.AppliedStatus.Type))
			L.SetField(at, "status_chance", lua.LNumber(a.AppliedStatus.Chance))
		}
		abilities.Append(at)
	}
	L.SetField(t, "abilities", abilities)
	return t
}
