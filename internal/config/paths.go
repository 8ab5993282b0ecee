package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	paths := []string{"/etc/procio/procio.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append([]string{filepath.Join(home, ".config", "procio", "config.yaml")}, paths...)
	}
	return paths
}
