package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

type (
	// fileConfig is what a Lua config file may set. Keys are written in
	// snake_case in the files and mapped onto these fields.
	fileConfig struct {
		Realm            string
		CookieName       string
		CookieDomain     string
		CookieLifetime   string
		HtpasswdPath     string
		HtpasswdContents string
		CredentialsDB    string
		UserHeader       string
		Listen           string
		Secret           string
		NoSaveEnabled    bool
		LoginRedirect    bool
		VerifyCacheTTL   string
		SecureCookie     string
	}
)

// loadLuaFiles evaluates each existing file in order and merges the
// returned tables key by key, later files winning. Missing files are
// skipped.
func loadLuaFiles(out *fileConfig, getenv func(string) string, files ...string) ([]string, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openConfigLibs(L, getenv)

	merged := L.NewTable()
	var loaded []string
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		top := L.GetTop()
		if err := L.DoFile(file); err != nil {
			return loaded, ConfigurationError{Field: file, Reason: "unable to evaluate config file", Cause: err}
		}
		if L.GetTop() == top {
			return loaded, ConfigurationError{Field: file, Reason: "config file must return a table"}
		}
		tbl, ok := L.Get(top + 1).(*lua.LTable)
		L.SetTop(top)
		if !ok {
			return loaded, ConfigurationError{Field: file, Reason: "config file must return a table"}
		}
		tbl.ForEach(func(k, v lua.LValue) {
			merged.RawSet(k, v)
		})
		loaded = append(loaded, file)
	}
	// unknown keys are errors, a misspelled setting must not be ignored
	mapper := gluamapper.NewMapper(gluamapper.Option{ErrorUnused: true})
	if err := mapper.Map(merged, out); err != nil {
		return loaded, ConfigurationError{Field: "config files", Reason: "unable to map values", Cause: err}
	}
	return loaded, nil
}

// openConfigLibs only exposes what a config file needs: no io, no os,
// plus an env(name[, default]) helper.
func openConfigLibs(L *lua.LState, getenv func(string) string) {
	for _, pair := range []struct {
		n string
		f lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(pair.f),
			NRet:    0,
			Protect: true,
		}, lua.LString(pair.n)); err != nil {
			panic(fmt.Sprintf("unable to open lua library %v: %v", pair.n, err))
		}
	}
	for _, unsafe := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(unsafe, lua.LNil)
	}
	L.SetGlobal("env", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		def := L.OptString(2, "")
		if v := getenv(name); v != "" {
			L.Push(lua.LString(v))
		} else {
			L.Push(lua.LString(def))
		}
		return 1
	}))
}
