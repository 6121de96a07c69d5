package domain

import "path/filepath"

const (
	// ToolcacheDirName is the name of the internal workspace directory.
	ToolcacheDirName = ".toolcache"

	// StoreDirName is the name of the artifact store directory.
	StoreDirName = "store"

	// WorkDirName is the name of the directory builds run in.
	WorkDirName = "work"

	// ConfigFileName is the name of the YAML configuration file.
	ConfigFileName = "toolcache.yaml"

	// ConfigFileNameTOML is the name of the TOML configuration file.
	ConfigFileNameTOML = "toolcache.toml"

	// ConfigEnvVar overrides configuration discovery with an explicit path.
	ConfigEnvVar = "TOOLCACHE_CONFIG"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the default path for the artifact store.
// It joins .toolcache and store.
func DefaultStorePath() string {
	return filepath.Join(ToolcacheDirName, StoreDirName)
}

// DefaultWorkPath returns the default path for build work directories.
// It joins .toolcache and work.
func DefaultWorkPath() string {
	return filepath.Join(ToolcacheDirName, WorkDirName)
}
