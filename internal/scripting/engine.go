package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding terrain shaping scripts.
// Lua states are not goroutine-safe: each generation worker owns its own
// Engine, created from the same script directory.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	heightFn   lua.LValue
	materialFn lua.LValue
}

// NewEngine creates a Lua engine and loads all .lua files from the given
// directory. A missing directory is not an error: the built-in terrain
// shape is used unmodified.
func NewEngine(scriptsDir string, seed int64, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("WORLD_SEED", lua.LNumber(seed))

	e := &Engine{vm: vm, log: log}

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load terrain scripts: %w", err)
	}

	// Resolve overrides once; per-voxel GetGlobal lookups are too slow.
	if fn := vm.GetGlobal("terrain_height"); fn != lua.LNil {
		e.heightFn = fn
	}
	if fn := vm.GetGlobal("terrain_material"); fn != lua.LNil {
		e.materialFn = fn
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasHeight reports whether the scripts define a terrain_height override.
func (e *Engine) HasHeight() bool {
	return e.heightFn != nil
}

// HasMaterial reports whether the scripts define a terrain_material override.
func (e *Engine) HasMaterial() bool {
	return e.materialFn != nil
}

// Height calls Lua terrain_height(x, z, base) with the built-in surface
// height as the third argument, so scripts can perturb rather than replace.
// Falls back to base on any script error.
func (e *Engine) Height(x, z int32, base float64) float64 {
	if err := e.vm.CallByParam(lua.P{
		Fn:      e.heightFn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(x), lua.LNumber(z), lua.LNumber(base)); err != nil {
		e.log.Error("lua terrain_height error", zap.Error(err))
		return base
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua terrain_height returned non-number")
		return base
	}
	return float64(n)
}

// Material calls Lua terrain_material(x, y, z, base) with the built-in
// material choice as the fourth argument. Falls back to base on any error.
func (e *Engine) Material(x, y, z int32, base byte) byte {
	if err := e.vm.CallByParam(lua.P{
		Fn:      e.materialFn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(x), lua.LNumber(y), lua.LNumber(z), lua.LNumber(base)); err != nil {
		e.log.Error("lua terrain_material error", zap.Error(err))
		return base
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua terrain_material returned non-number")
		return base
	}
	return byte(n)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
