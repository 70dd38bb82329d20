package wasm

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bytecodealliance/wasmtime-go/v15"
)

// Loader resolves and validates module bytes under a configured base
// directory: magic-number and compile validation, path containment, and
// an import whitelist, all before a byte of guest code is allowed to run.
type Loader struct {
	engine        *wasmtime.Engine
	baseDir       string
	maxModuleSize int64
}

func NewLoader(engine *wasmtime.Engine, baseDir string, maxModuleSize int64) *Loader {
	return &Loader{engine: engine, baseDir: baseDir, maxModuleSize: maxModuleSize}
}

// Load resolves modulePath under the loader's base directory, enforces the
// size cap, parses the Wasm binary, and rejects any import outside the
// whitelist. It never stats or reads a file whose resolved path escapes the
// base directory; only the symlink resolution in resolve looks such a path up.
func (l *Loader) Load(modulePath string) (*wasmtime.Module, error) {
	candidate, err := l.resolve(modulePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(candidate)
	if err != nil {
		return nil, newError(KindInvalidPath, "Invalid module path: %s", modulePath)
	}
	if info.Size() > l.maxModuleSize {
		return nil, newError(KindModuleTooLarge, "Module too large: %s", modulePath)
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		return nil, newError(KindInvalidPath, "Invalid module path: %s", modulePath)
	}

	module, err := wasmtime.NewModule(l.engine, data)
	if err != nil {
		return nil, newError(KindModuleParseError, "Failed to parse module %s: %v", modulePath, err)
	}

	if err := checkImports(module); err != nil {
		return nil, err
	}

	return module, nil
}

// resolve canonicalizes base_dir/modulePath and requires the result to stay
// rooted under base_dir. Symlinks, "." and ".." segments are all collapsed
// by filepath.EvalSymlinks before the prefix check, so a symlink pointing
// outside base_dir is caught the same as a literal "../" escape.
func (l *Loader) resolve(modulePath string) (string, error) {
	if filepath.IsAbs(modulePath) {
		return "", newError(KindInvalidPath, "Invalid module path: %s", modulePath)
	}

	joined := filepath.Join(l.baseDir, modulePath)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", newError(KindInvalidPath, "Invalid module path: %s", modulePath)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", newError(KindInvalidPath, "Invalid module path: %s", modulePath)
	}

	if !withinBase(resolved, l.baseDir) {
		return "", newError(KindInvalidPath, "Invalid module path: %s", modulePath)
	}

	return resolved, nil
}

func withinBase(candidate, base string) bool {
	rel, err := filepath.Rel(base, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// checkImports enforces the import whitelist: wasi_snapshot_preview1 under
// any function name, or env.memory / env.table. Anything else fails
// unauthorized_import naming the offending module.name pair.
func checkImports(module *wasmtime.Module) error {
	for _, imp := range module.Imports() {
		modName := imp.Module()
		name := ""
		if imp.Name() != nil {
			name = *imp.Name()
		}

		switch modName {
		case "wasi_snapshot_preview1":
			continue
		case "env":
			if name == "memory" || name == "table" {
				continue
			}
			return newError(KindUnauthorizedImport, "Unauthorized import module: %s.%s", modName, name)
		default:
			return newError(KindUnauthorizedImport, "Unauthorized import module: %s.%s", modName, name)
		}
	}
	return nil
}
