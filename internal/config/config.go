package config

import (
	"errors"
	"io"
	"os"

	"github.com/go-yaml/yaml"
)

const DefaultDSN = "file:reviewgraph.db"

type Config struct {
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
}

type Database struct {
	DSN string `yaml:"dsn"`
}

type Log struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default is used when no config file is given.
func Default() Config {
	return Config{
		Database: Database{DSN: DefaultDSN},
		Log:      Log{Level: "info"},
	}
}

// Load reads a YAML config file. Keys missing from the file, or an empty
// file, keep their defaults.
func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	return config, nil
}
