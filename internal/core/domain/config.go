package domain

// StoreConfig selects and configures the artifact store.
type StoreConfig struct {
	// Path is the directory of the filesystem store, relative to Root.
	Path string
	// URL is the base URL of a remote store. It takes precedence over Path.
	URL string
	// Retries bounds the retries of transient remote failures.
	Retries int
}

// HelperConfig locates the helper sources in the project history.
type HelperConfig struct {
	// Path is the tree path of the helper sources.
	Path string
	// Version is the current helper command version, used to find the old helper.
	Version string
}

// Marker is the source line that introduces the current helper command version.
func (h HelperConfig) Marker() string {
	return "#define CMD_VERSION " + h.Version
}

// Config is the resolved configuration of toolcache.
type Config struct {
	// Root is the directory holding the configuration and the project history.
	Root         string
	Store        StoreConfig
	Plan         PlanOptions
	Environments map[Platform]EnvironmentSpec
	Helper       HelperConfig
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig(root string) *Config {
	return &Config{
		Root: root,
		Store: StoreConfig{
			Path:    DefaultStorePath(),
			Retries: 3,
		},
		Plan:         DefaultPlanOptions(),
		Environments: DefaultEnvironments(),
		Helper: HelperConfig{
			Path: "helper",
		},
	}
}

// DefaultEnvironments returns the build environments known without configuration.
func DefaultEnvironments() map[Platform]EnvironmentSpec {
	return map[Platform]EnvironmentSpec{
		{OS: OSLinux, Arch: ArchX86_64}:   {Image: "build"},
		{OS: OSWindows, Arch: ArchX86}:    {Image: "mingw32"},
		{OS: OSWindows, Arch: ArchX86_64}: {Image: "mingw64"},
		{OS: OSMacOS, Arch: ArchX86_64}:   {Image: "osx"},
		{OS: OSMacOS, Arch: ArchARM64}:    {Image: "osx-arm64"},
	}
}
