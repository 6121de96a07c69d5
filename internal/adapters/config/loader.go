// Package config provides the configuration loader for toolcache.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for YAML and TOML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load discovers the configuration starting at cwd and resolves it against
// the built-in defaults. Without a file, the defaults are rooted at cwd.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}

	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		cfg := domain.DefaultConfig(cwd)
		cfg.Store.Path = filepath.Join(cwd, cfg.Store.Path)
		return cfg, nil
	}

	var file File
	if err := decodeFile(configPath, &file); err != nil {
		return nil, err
	}

	return resolve(filepath.Dir(configPath), &file)
}

// findConfiguration honours TOOLCACHE_CONFIG, then walks up from cwd.
// It returns "" when no configuration file exists.
func (l *Loader) findConfiguration(cwd string) (string, error) {
	if explicit := os.Getenv(domain.ConfigEnvVar); explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(cwd, explicit)
		}
		if _, err := os.Stat(explicit); err != nil {
			return "", zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", explicit)
		}
		return explicit, nil
	}

	currentDir := cwd
	for {
		yamlPath := filepath.Join(currentDir, domain.ConfigFileName)
		tomlPath := filepath.Join(currentDir, domain.ConfigFileNameTOML)

		yamlFound := exists(yamlPath)
		tomlFound := exists(tomlPath)

		switch {
		case yamlFound && tomlFound:
			if l.Logger != nil {
				l.Logger.Warn("both " + domain.ConfigFileName + " and " + domain.ConfigFileNameTOML +
					" found in " + currentDir + ", using " + domain.ConfigFileName)
			}
			return yamlPath, nil
		case yamlFound:
			return yamlPath, nil
		case tomlFound:
			return tomlPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// decodeFile reads a YAML or TOML file depending on its extension.
func decodeFile(configPath string, target *File) error {
	// #nosec G304 -- configPath is discovered or explicitly configured
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, "config file vanished"), "path", configPath)
		}
		return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", configPath)
	}

	if filepath.Ext(configPath) == ".toml" {
		if _, err := toml.Decode(string(data), target); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", configPath)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", configPath)
	}
	return nil
}

// resolve applies the file on top of the defaults rooted at root.
func resolve(root string, file *File) (*domain.Config, error) {
	cfg := domain.DefaultConfig(root)

	if file.Store.Path != "" {
		cfg.Store.Path = file.Store.Path
	}
	if !filepath.IsAbs(cfg.Store.Path) {
		cfg.Store.Path = filepath.Join(root, cfg.Store.Path)
	}
	cfg.Store.URL = file.Store.URL
	if file.Store.Retries != nil {
		if *file.Store.Retries < 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "store.retries must not be negative"), "retries", *file.Store.Retries)
		}
		cfg.Store.Retries = *file.Store.Retries
	}

	if err := parseDuration("expiry.release", file.Expiry.Release, &cfg.Plan.Expiry.Release); err != nil {
		return nil, err
	}
	if err := parseDuration("expiry.revision", file.Expiry.Revision, &cfg.Plan.Expiry.Revision); err != nil {
		return nil, err
	}

	for key, dto := range file.Environments {
		p, err := domain.ParsePlatform(key)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid environments entry"), "key", key)
		}
		if dto.Image == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "environment image must not be empty"), "platform", key)
		}
		cfg.Environments[p] = domain.EnvironmentSpec{Image: dto.Image, Packages: dto.Packages}
	}

	if file.Helper.Path != "" {
		cfg.Helper.Path = file.Helper.Path
	}
	cfg.Helper.Version = file.Helper.Version
	if file.Helper.StableHg != "" {
		kind, err := domain.ClassifyVersion(domain.ToolHg, file.Helper.StableHg)
		if err != nil {
			return nil, zerr.Wrap(err, "invalid helper.stable_hg")
		}
		if kind != domain.VersionRelease {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "helper.stable_hg must be a release version"), "stable_hg", file.Helper.StableHg)
		}
		cfg.Plan.StableHg = file.Helper.StableHg
	}

	return cfg, nil
}

func parseDuration(key, value string, target *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "expected a positive duration"), key, value)
	}
	*target = d
	return nil
}
