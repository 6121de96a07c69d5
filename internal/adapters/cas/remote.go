package cas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactStore = (*RemoteStore)(nil)

// RemoteStore implements ports.ArtifactStore against an HTTP artifact server.
//
// The server exposes two resources:
//
//	GET|PUT {base}/v1/index/{index}   artifact JSON
//	GET|PUT {base}/v1/blobs/{digest}  raw file contents, digest is their sha256
//
// Server errors and network failures are retried with exponential backoff.
// Client errors are not retried.
type RemoteStore struct {
	base    string
	client  *http.Client
	retries uint64
	backoff func() backoff.BackOff
	now     func() time.Time
}

// RemoteOption configures a RemoteStore.
type RemoteOption func(*RemoteStore)

// WithHTTPClient sets the client used for every request.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteStore) {
		s.client = c
	}
}

// WithBackOff sets the policy between retries.
func WithBackOff(b func() backoff.BackOff) RemoteOption {
	return func(s *RemoteStore) {
		s.backoff = b
	}
}

// WithRemoteClock overrides the time source used for expiry.
func WithRemoteClock(now func() time.Time) RemoteOption {
	return func(s *RemoteStore) {
		s.now = now
	}
}

// NewRemoteStore creates a RemoteStore for the server at base.
func NewRemoteStore(base string, retries int, opts ...RemoteOption) (*RemoteStore, error) {
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "store url must be an absolute http(s) URL"), "url", base)
	}
	if retries < 0 {
		retries = 0
	}

	s := &RemoteStore{
		base:    strings.TrimSuffix(base, "/"),
		client:  &http.Client{Timeout: 5 * time.Minute},
		retries: uint64(retries),
		backoff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get retrieves the artifact stored under index.
func (s *RemoteStore) Get(ctx context.Context, index string) (*domain.Artifact, error) {
	var artifact *domain.Artifact

	err := s.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Ref(index), http.NoBody)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck // Body is fully consumed below

		switch {
		case resp.StatusCode == http.StatusNotFound:
			artifact = nil
			return nil
		case resp.StatusCode != http.StatusOK:
			return statusError(resp)
		}

		var a domain.Artifact
		if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
			return backoff.Permanent(zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "failed to decode artifact"), "index", index))
		}
		if a.Index != index {
			err := zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "artifact belongs to another index"), "index", index)
			return backoff.Permanent(zerr.With(err, "stored_index", a.Index))
		}
		artifact = &a
		return nil
	})
	if err != nil {
		return nil, zerr.With(classify(err, "remote lookup failed"), "index", index)
	}

	if artifact == nil || artifact.Expired(s.now()) {
		return nil, nil
	}
	for i, f := range artifact.Files {
		artifact.Files[i].Location = s.blobURL(f.Digest)
	}
	return artifact, nil
}

// Put uploads every file and then the artifact under index.
func (s *RemoteStore) Put(ctx context.Context, index string, files []domain.OutputFile, ttl time.Duration) error {
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
		//nolint:gosec // Path is an artifact declared by the build recipe
		data, err := os.ReadFile(f.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return zerr.With(zerr.Wrap(domain.ErrArtifactMissing, "cannot store artifact"), "path", f.Path)
			}
			return zerr.With(zerr.Wrap(err, "failed to read artifact"), "path", f.Path)
		}

		digest := digestOf(data)
		if err := s.upload(ctx, s.blobURL(digest), "application/octet-stream", data); err != nil {
			return zerr.With(zerr.With(classify(err, "blob upload failed"), "index", index), "file", f.Name)
		}
		artifact.Files = append(artifact.Files, domain.ArtifactFile{
			Name:   f.Name,
			Digest: digest,
			Size:   int64(len(data)),
		})
	}

	body, err := json.Marshal(artifact)
	if err != nil {
		return zerr.Wrap(err, "failed to marshal artifact")
	}
	if err := s.upload(ctx, s.Ref(index), "application/json", body); err != nil {
		return zerr.With(classify(err, "artifact upload failed"), "index", index)
	}
	return nil
}

// Ref returns the URL of the artifact stored under index.
func (s *RemoteStore) Ref(index string) string {
	return s.base + "/v1/index/" + url.PathEscape(index)
}

// Fetch downloads the contents of file to dst.
func (s *RemoteStore) Fetch(ctx context.Context, file domain.ArtifactFile, dst string) error {
	err := s.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.blobURL(file.Digest), http.NoBody)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck // Body is fully consumed below

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(zerr.With(zerr.Wrap(domain.ErrStoreCorrupt, "blob is missing"), "digest", file.Digest))
		case resp.StatusCode != http.StatusOK:
			return statusError(resp)
		}

		err = writeVerified(dst, resp.Body, file.Digest)
		if errors.Is(err, domain.ErrStoreCorrupt) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		return zerr.With(zerr.With(classify(err, "blob download failed"), "file", file.Name), "digest", file.Digest)
	}
	return nil
}

func (s *RemoteStore) blobURL(digest string) string {
	return s.base + "/v1/blobs/" + url.PathEscape(digest)
}

func (s *RemoteStore) upload(ctx context.Context, target, contentType string, data []byte) error {
	return s.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck // Response body is drained only

		if resp.StatusCode/100 != 2 {
			return statusError(resp)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
}

func (s *RemoteStore) retry(ctx context.Context, op backoff.Operation) error {
	b := backoff.WithMaxRetries(s.backoff(), s.retries)
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// classify maps a failed request to a store sentinel.
func classify(err error, msg string) error {
	if errors.Is(err, domain.ErrStoreCorrupt) || errors.Is(err, domain.ErrStoreRejected) {
		return zerr.Wrap(err, msg)
	}
	return zerr.Wrap(errors.Join(domain.ErrStoreUnavailable, err), msg)
}

// statusError turns an unexpected response into an error. 4xx responses are permanent.
func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		err := zerr.With(zerr.Wrap(domain.ErrStoreRejected, msg), "status", resp.StatusCode)
		return backoff.Permanent(err)
	}
	return zerr.With(zerr.New(msg), "status", resp.StatusCode)
}
