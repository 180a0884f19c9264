package luahook

import (
	lua "github.com/yuin/gopher-lua"
)

// openSafeLibraries opens only the Lua standard libraries that cannot
// reach the file system or the process.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	// io, os, debug and package stay closed.
}

// installSandbox removes the base functions that load code from outside the
// script and replaces require with one that only serves the safe built-ins.
func installSandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	safeModules := map[string]lua.LValue{
		"string": L.GetGlobal("string"),
		"table":  L.GetGlobal("table"),
		"math":   L.GetGlobal("math"),
	}
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		mod, ok := safeModules[name]
		if !ok || mod == lua.LNil {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(mod)
		return 1
	}))
}
