// Package script provides a bridge between the player's event stream and Lua hook scripts.
package script

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/mpvctl-cli/mpvctl/filesystem"
	lua "github.com/yuin/gopher-lua"
)

// HookFn is the global function a hook script must define. It is called
// with the event name and its payload for every published event.
const HookFn = "on_event"

// Hook is one loaded Lua script bound to its own interpreter state.
// Calls are serialized; a Lua state is not safe for concurrent use.
type Hook struct {
	name string

	mu    sync.Mutex
	state *lua.LState
}

// Load executes and validates a Lua hook script.
func Load(path string) (*Hook, error) {
	state := lua.NewState()
	libs.Preload(state)

	contents, err := filesystem.API().ReadFile(path)
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("read hook script: %w", err)
	}

	if err := state.DoString(string(contents)); err != nil {
		state.Close()
		return nil, fmt.Errorf("load hook script %s: %w", path, err)
	}

	name := fileStem(path)
	if state.GetGlobal(HookFn).Type() != lua.LTFunction {
		state.Close()
		return nil, fmt.Errorf("function %s is required but not defined in %s", HookFn, name)
	}

	return &Hook{name: name, state: state}, nil
}

// Name returns the script's basename without extension.
func (h *Hook) Name() string {
	return h.name
}

// OnEvent invokes the script's hook function with one event.
func (h *Hook) OnEvent(event string, data any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.state.CallByParam(lua.P{
		Fn:      h.state.GetGlobal(HookFn),
		NRet:    0,
		Protect: true,
	}, lua.LString(event), toLua(h.state, data))

	if err != nil {
		return fmt.Errorf("hook %s: %w", h.name, err)
	}
	return nil
}

// Close releases the interpreter state.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Close()
}

// toLua converts a decoded JSON value into its Lua counterpart.
func toLua(state *lua.LState, v any) lua.LValue {
	switch value := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(value)
	case int:
		return lua.LNumber(value)
	case int64:
		return lua.LNumber(value)
	case float64:
		return lua.LNumber(value)
	case string:
		return lua.LString(value)
	case []any:
		table := state.NewTable()
		for _, item := range value {
			table.Append(toLua(state, item))
		}
		return table
	case map[string]any:
		table := state.NewTable()
		for k, item := range value {
			table.RawSetString(k, toLua(state, item))
		}
		return table
	default:
		return lua.LString(fmt.Sprint(value))
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
