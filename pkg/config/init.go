package config

import (
	"fmt"
	"os"
)

// ErrConfigExists is returned by InitConfigToPath when a configuration
// file already exists at the target path and force is false.
var ErrConfigExists = fmt.Errorf("configuration file already exists")

// InitConfig writes a default configuration file at the default location.
// Returns the path the file was written to.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file at the given path.
// When force is false and a file already exists there, ErrConfigExists is
// returned and the file is left untouched.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	cfg := GetDefaultConfig()
	if err := SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
