package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// fileConfig é o conteúdo de $XDG_CONFIG_HOME/cardctl/config.toml.
type fileConfig struct {
	Server string `toml:"server"`
	Token  string `toml:"token"`
}

func xdgConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

func defaultConfigPath() string {
	return filepath.Join(xdgConfigHome(), "cardctl", "config.toml")
}

// loadFileConfig lê o arquivo; ausente = configuração vazia.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}
