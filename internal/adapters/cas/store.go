// Package cas implements content addressable artifact storage keyed by cache index.
package cas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	indexDirName = "index"
	blobDirName  = "blobs"
)

var _ ports.ArtifactStore = (*Store)(nil)

// manifest is the on-disk envelope of an artifact. Checksum covers the raw
// artifact bytes so a torn or edited manifest is detected on read.
type manifest struct {
	Checksum string          `json:"checksum"`
	Artifact json.RawMessage `json:"artifact"`
}

// Store implements ports.ArtifactStore on the local filesystem.
//
// Manifests live under index/<sha256(index)>.json and file contents under
// blobs/<digest[:2]>/<digest>, where digest is the sha256 of the contents,
// so identical files are stored once.
type Store struct {
	root string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store rooted at the given directory.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{root: root, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory the store lives in.
func (s *Store) Root() string {
	return s.root
}

// Get retrieves the artifact stored under index.
func (s *Store) Get(_ context.Context, index string) (*domain.Artifact, error) {
	filename := s.manifestPath(index)
	//nolint:gosec // Path is constructed from the store root and a hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, unavailable(err, "failed to read manifest", index)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "failed to parse manifest"), "index", index)
	}
	if m.Checksum != checksum(m.Artifact) {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "manifest checksum mismatch"), "index", index)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(m.Artifact, &artifact); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "failed to parse artifact"), "index", index)
	}
	if artifact.Index != index {
		err := zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "manifest belongs to another index"), "index", index)
		return nil, zerr.With(err, "stored_index", artifact.Index)
	}

	if artifact.Expired(s.now()) {
		return nil, nil
	}

	for i, f := range artifact.Files {
		path := s.blobPath(f.Digest)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// A blob removed behind our back is a miss, the next build restores it.
				return nil, nil
			}
			return nil, unavailable(err, "failed to stat blob", index)
		}
		artifact.Files[i].Location = path
	}

	return &artifact, nil
}

// Put stores the files under index, replacing any previous entry.
func (s *Store) Put(_ context.Context, index string, files []domain.OutputFile, ttl time.Duration) error {
	now := s.now()
	artifact := domain.Artifact{
		Index:     index,
		Files:     make([]domain.ArtifactFile, 0, len(files)),
		CreatedAt: now,
	}
	if ttl > 0 {
		artifact.ExpiresAt = now.Add(ttl)
	}

	for _, f := range files {
		digest, size, err := s.putBlob(f.Path)
		if err != nil {
			return zerr.With(zerr.With(err, "index", index), "file", f.Name)
		}
		artifact.Files = append(artifact.Files, domain.ArtifactFile{
			Name:   f.Name,
			Digest: digest,
			Size:   size,
		})
	}

	raw, err := json.Marshal(artifact)
	if err != nil {
		return zerr.Wrap(err, "failed to marshal artifact")
	}
	data, err := json.Marshal(manifest{Checksum: checksum(raw), Artifact: raw})
	if err != nil {
		return zerr.Wrap(err, "failed to marshal manifest")
	}

	if err := writeAtomic(s.manifestPath(index), data); err != nil {
		return unavailable(err, "failed to write manifest", index)
	}
	return nil
}

// Ref returns the manifest path of index.
func (s *Store) Ref(index string) string {
	return s.manifestPath(index)
}

// Fetch copies the contents of file to dst.
func (s *Store) Fetch(_ context.Context, file domain.ArtifactFile, dst string) error {
	path := s.blobPath(file.Digest)
	//nolint:gosec // Path is constructed from the store root and a digest
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "blob is missing"), "digest", file.Digest)
		}
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), "failed to open blob"), "digest", file.Digest)
	}
	defer src.Close() //nolint:errcheck // Read-only file

	return writeVerified(dst, src, file.Digest)
}

// putBlob copies the file at path into the blob directory and returns its digest.
func (s *Store) putBlob(path string) (string, int64, error) {
	//nolint:gosec // Path is an artifact declared by the build recipe
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0, zerr.With(zerr.Wrap(domain.ErrArtifactMissing, "cannot store artifact"), "path", path)
		}
		return "", 0, zerr.With(zerr.Wrap(err, "failed to open artifact"), "path", path)
	}
	defer src.Close() //nolint:errcheck // Read-only file

	blobDir := filepath.Join(s.root, blobDirName)
	if err := os.MkdirAll(blobDir, domain.DirPerm); err != nil {
		return "", 0, zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), "failed to create blob directory")
	}

	tmp, err := os.CreateTemp(blobDir, ".blob-*")
	if err != nil {
		return "", 0, zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), "failed to create blob")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Gone after a successful rename

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), "failed to copy blob")
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	dst := s.blobPath(digest)
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return "", 0, zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), "failed to create blob directory")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", 0, zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), "failed to commit blob")
	}

	return digest, size, nil
}

func (s *Store) manifestPath(index string) string {
	hash := sha256.Sum256([]byte(index))
	return filepath.Join(s.root, indexDirName, hex.EncodeToString(hash[:])+".json")
}

func (s *Store) blobPath(digest string) string {
	prefix := digest
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(s.root, blobDirName, prefix, digest)
}

// digestOf returns the blob digest of data.
func digestOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// writeAtomic replaces filename with data so readers never see a partial write.
func writeAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}

// writeVerified writes r to dst and fails with ErrStoreCorrupt unless the
// contents hash to digest. dst is left untouched on failure.
func writeVerified(dst string, r io.Reader, digest string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create file"), "path", dst)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Gone after a successful rename

	hasher := sha256.New()
	_, err = io.Copy(io.MultiWriter(tmp, hasher), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), "failed to copy blob"), "digest", digest)
	}

	if got := hex.EncodeToString(hasher.Sum(nil)); got != digest {
		err := zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "blob digest mismatch"), "digest", digest)
		return zerr.With(err, "actual", got)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write file"), "path", dst)
	}
	return nil
}

// unavailable marks err as a transient store failure.
func unavailable(err error, msg, index string) error {
	return zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), msg), "index", index)
}
