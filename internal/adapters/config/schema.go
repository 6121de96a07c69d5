package config

// File represents the structure of toolcache.yaml and toolcache.toml.
type File struct {
	Store        StoreDTO                  `yaml:"store" toml:"store"`
	Expiry       ExpiryDTO                 `yaml:"expiry" toml:"expiry"`
	Environments map[string]EnvironmentDTO `yaml:"environments" toml:"environments"`
	Helper       HelperDTO                 `yaml:"helper" toml:"helper"`
}

// StoreDTO selects the artifact store.
type StoreDTO struct {
	Path    string `yaml:"path" toml:"path"`
	URL     string `yaml:"url" toml:"url"`
	Retries *int   `yaml:"retries" toml:"retries"`
}

// ExpiryDTO holds durations in time.ParseDuration syntax.
type ExpiryDTO struct {
	Release  string `yaml:"release" toml:"release"`
	Revision string `yaml:"revision" toml:"revision"`
}

// EnvironmentDTO describes the build environment of one platform.
type EnvironmentDTO struct {
	Image    string            `yaml:"image" toml:"image"`
	Packages map[string]string `yaml:"packages" toml:"packages"`
}

// HelperDTO locates the helper sources.
type HelperDTO struct {
	Path     string `yaml:"path" toml:"path"`
	Version  string `yaml:"version" toml:"version"`
	StableHg string `yaml:"stable_hg" toml:"stable_hg"`
}
