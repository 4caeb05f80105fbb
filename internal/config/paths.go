// config/paths.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetDefaultConfigPaths returns a list of default configuration paths for
// the current operating system, matching the conventions named in §6:
// macOS Application Support, Linux XDG config home, Windows AppData Roaming.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("error fetching executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", AppName),
		}
	case "darwin":
		configPaths = []string{
			filepath.Join(homeDir, "Library", "Application Support", AppName),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", AppName),
			filepath.Join("/etc", AppName),
		}
	}

	return configPaths, nil
}

// GetBasePath expands environment variables in path and ensures the
// resulting directory exists, creating it if necessary.
func GetBasePath(path string) string {
	expandedPath := os.ExpandEnv(path)
	basePath := filepath.Clean(expandedPath)

	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			fmt.Printf("failed to create directory '%s': %v\n", basePath, err)
		}
	}

	return basePath
}
