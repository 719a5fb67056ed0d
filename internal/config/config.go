package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Dataset describes one tree of feature files to discover and pack.
type Dataset struct {
	// Root is the directory walked for feature files.
	Root string `toml:"root"`
	// Source labels every record produced from this dataset.
	Source string `toml:"source"`
	// Languages is the precedence order handed to the phonemizer.
	Languages []string `toml:"languages"`
	// Extension is the sidecar transcript extension, e.g. ".lab".
	Extension string `toml:"extension"`
	// GroupLevels are 1-based ancestor directory indices, nearest first,
	// whose names are joined with "-" to form the group key.
	GroupLevels []int `toml:"group_levels"`
}

// Output contains corpus destination settings.
type Output struct {
	Path    string `toml:"path"`
	Workers int    `toml:"workers"`
}

// Phonemizer contains the external converter invocation.
type Phonemizer struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for skein.
type Config struct {
	Output     Output     `toml:"output"`
	Phonemizer Phonemizer `toml:"phonemizer"`
	Logging    Logging    `toml:"logging"`
	Datasets   []Dataset  `toml:"datasets"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/skein/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("skein.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	expandedOutput, err := expandPath(c.Output.Path)
	if err != nil {
		return err
	}
	c.Output.Path = expandedOutput
	c.Phonemizer.Command = strings.TrimSpace(c.Phonemizer.Command)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	for i := range c.Datasets {
		ds := &c.Datasets[i]
		expandedRoot, err := expandPath(ds.Root)
		if err != nil {
			return err
		}
		ds.Root = expandedRoot
		ds.Source = strings.TrimSpace(ds.Source)
		ds.Extension = strings.TrimSpace(ds.Extension)
		if ds.Extension != "" && !strings.HasPrefix(ds.Extension, ".") {
			ds.Extension = "." + ds.Extension
		}
		if len(ds.GroupLevels) == 0 {
			ds.GroupLevels = []int{1}
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
