package domain

import "time"

// OutputFile is a file produced by a build, waiting to be stored.
type OutputFile struct {
	// Name is the artifact name declared by the recipe.
	Name string
	// Path is where the executor left the file on local disk.
	Path string
}

// ArtifactFile is one stored file of an artifact.
type ArtifactFile struct {
	Name     string `json:"name"`
	Digest   string `json:"digest"`
	Size     int64  `json:"size"`
	Location string `json:"location,omitzero"`
}

// Artifact is the set of files stored under one cache index.
type Artifact struct {
	Index     string         `json:"index"`
	Files     []ArtifactFile `json:"files"`
	CreatedAt time.Time      `json:"created_at,omitzero"`
	ExpiresAt time.Time      `json:"expires_at,omitzero"`
}

// Expired reports whether the entry is no longer guaranteed to be retrievable.
func (a *Artifact) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// File returns the stored file with the given name.
func (a *Artifact) File(name string) (ArtifactFile, bool) {
	for _, f := range a.Files {
		if f.Name == name {
			return f, true
		}
	}
	return ArtifactFile{}, false
}
