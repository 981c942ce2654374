package blob

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/apperr"
	"github.com/interview-iq/backend/pkg/logger"
)

// Key prefixes segment the store by purpose; every object lives under a
// session-scoped sub-path: {prefix}/{sessionID}/{filename}.
const (
	PrefixUploads = "uploads"
	PrefixParsed  = "parsed"
	PrefixScraped = "scraped"
	PrefixBriefs  = "briefs"
	PrefixPackets = "packets"
)

// Store persists raw uploads, extraction intermediates, and generated
// artifacts. Backed by an afero filesystem so tests can run in memory.
type Store struct {
	fs afero.Fs
}

// NewStore returns a store rooted at rootDir on the OS filesystem.
func NewStore(rootDir string) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &Store{fs: afero.NewBasePathFs(afero.NewOsFs(), rootDir)}, nil
}

// NewMemStore returns an in-memory store.
func NewMemStore() *Store {
	return &Store{fs: afero.NewMemMapFs()}
}

// Key builds the session-scoped object key for a file.
func Key(prefix, sessionID, filename string) string {
	return path.Join(prefix, sessionID, filename)
}

// Put writes an object, creating parent directories as needed.
func (s *Store) Put(key string, data []byte) error {
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return apperr.Backend("failed to create blob path", err)
	}
	if err := afero.WriteFile(s.fs, key, data, 0o644); err != nil {
		return apperr.Backend("failed to write blob", err)
	}

	logger.Debug("Blob stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Get reads an object by key.
func (s *Store) Get(key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("blob %s not found", key)
		}
		return nil, apperr.Backend("failed to read blob", err)
	}
	return data, nil
}

// ListSession returns the keys stored for a session under the given
// prefix (all prefixes when prefix is empty), sorted for determinism.
func (s *Store) ListSession(prefix, sessionID string) ([]string, error) {
	roots := []string{prefix}
	if prefix == "" {
		roots = []string{PrefixUploads, PrefixParsed, PrefixScraped, PrefixBriefs, PrefixPackets}
	}

	var keys []string
	for _, root := range roots {
		dir := path.Join(root, sessionID)
		infos, err := afero.ReadDir(s.fs, dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, apperr.Backend("failed to list blobs", err)
		}
		for _, info := range infos {
			if !info.IsDir() {
				keys = append(keys, path.Join(dir, info.Name()))
			}
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// ValidKey reports whether key uses one of the known prefixes. Used to
// reject caller-supplied references outside the store layout.
func ValidKey(key string) bool {
	for _, p := range []string{PrefixUploads, PrefixParsed, PrefixScraped, PrefixBriefs, PrefixPackets} {
		if strings.HasPrefix(key, p+"/") {
			return true
		}
	}
	return false
}
