package config

import "path/filepath"

// resolveBaseDir canonicalizes the configured module base directory once at
// startup so every later containment check in internal/wasm compares against
// a fully resolved path.
func resolveBaseDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Base dir may not exist yet at startup (e.g. mounted later); fall
		// back to the absolute, non-symlink-resolved path.
		return abs, nil
	}
	return resolved, nil
}
