// Package config loads notedesk settings from YAML with struct-tag defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Storage backends accepted by StorageConfig.Backend.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendFile   = "file"
)

// Config is the root configuration document.
type Config struct {
	File      string          `yaml:"-"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Autosave  AutosaveConfig  `yaml:"autosave"`
	Assistant AssistantConfig `yaml:"assistant"`
	Editor    EditorConfig    `yaml:"editor"`
}

// StorageConfig selects where the note snapshot lives.
type StorageConfig struct {
	// Backend is one of sqlite, bolt or file.
	Backend string `yaml:"backend" default:"sqlite"`
	// Path of the database or snapshot file. Empty means ~/.notedesk/<backend default>.
	Path string `yaml:"path"`
	// Key names the slot holding the snapshot.
	Key string `yaml:"key" default:"notes-app-storage"`
}

// LogConfig mirrors logging.Options.
type LogConfig struct {
	Level      string `yaml:"level" default:"warn"`
	File       string `yaml:"file"`
	Production bool   `yaml:"production"`
}

// AutosaveConfig tunes the debounce.
type AutosaveConfig struct {
	// Delay is the quiet period before an edit is committed.
	Delay string `yaml:"delay" default:"1s"`
	// SavedDisplay is how long the "saved" status stays up. "0s" keeps it.
	SavedDisplay string `yaml:"saved-display" default:"2s"`
}

// AssistantConfig configures the scripted chat helper.
type AssistantConfig struct {
	// RulesFile replaces the embedded rule table when set.
	RulesFile string `yaml:"rules-file"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// EditorConfig holds input-boundary limits.
type EditorConfig struct {
	TitleMaxLength int `yaml:"title-max-length" default:"50"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := new(Config)
	_ = defaults.Set(c)
	return c
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	realpath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	c.File = filepath.Clean(realpath)

	data, err := os.ReadFile(c.File)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks enumerations and durations.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendBolt, BackendFile:
	default:
		return errors.Errorf("unknown storage backend %q (valid: sqlite, bolt, file)", c.Storage.Backend)
	}
	if _, err := c.AutosaveDelay(); err != nil {
		return err
	}
	if _, err := c.SavedDisplay(); err != nil {
		return err
	}
	if c.Editor.TitleMaxLength <= 0 {
		return errors.New("editor.title-max-length must be positive")
	}
	return nil
}

// AutosaveDelay parses Autosave.Delay.
func (c *Config) AutosaveDelay() (time.Duration, error) {
	d, err := time.ParseDuration(c.Autosave.Delay)
	if err != nil {
		return 0, errors.Wrap(err, "invalid autosave.delay")
	}
	if d <= 0 {
		return 0, errors.New("autosave.delay must be positive")
	}
	return d, nil
}

// SavedDisplay parses Autosave.SavedDisplay.
func (c *Config) SavedDisplay() (time.Duration, error) {
	d, err := time.ParseDuration(c.Autosave.SavedDisplay)
	if err != nil {
		return 0, errors.Wrap(err, "invalid autosave.saved-display")
	}
	return d, nil
}

// StoragePath resolves the storage path, defaulting under the user's home.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	home, _ := os.UserHomeDir()
	name := "notes.db"
	switch strings.ToLower(c.Storage.Backend) {
	case BackendBolt:
		name = "notes.bolt"
	case BackendFile:
		name = "notes.json"
	}
	return filepath.Join(home, ".notedesk", name)
}
