package calibration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/fpti/pkg/logger"
)

// Store holds published calibration profiles, validated once at registration.
// Profiles are immutable after publication: re-registering a version with
// different content fails rather than mutating past reports' meaning.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	raw      map[string][]byte
	logger   logger.Logger
}

// StoreOption applies a configuration option to the Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	dir         string
	skipDefault bool
	logger      logger.Logger
}

// WithProfileDir loads every *.yaml/*.yml file in dir at construction.
func WithProfileDir(dir string) StoreOption {
	return func(c *storeConfig) {
		c.dir = dir
	}
}

// WithoutDefaultProfile skips registering the embedded v1 profile.
func WithoutDefaultProfile() StoreOption {
	return func(c *storeConfig) {
		c.skipDefault = true
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) StoreOption {
	return func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewStore creates a Store, registers the embedded default profile unless
// disabled, and loads any profile directory supplied.
func NewStore(ctx context.Context, opts ...StoreOption) (*Store, error) {
	cfg := storeConfig{logger: logger.Get().Named("calibration")}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store{
		profiles: make(map[string]*Profile),
		raw:      make(map[string][]byte),
		logger:   cfg.logger,
	}

	if !cfg.skipDefault {
		if _, err := s.Register(ctx, DefaultProfileYAML); err != nil {
			return nil, fmt.Errorf("register default profile: %w", err)
		}
	}
	if cfg.dir != "" {
		if err := s.loadDir(ctx, cfg.dir); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register validates and publishes a profile document. Registering the same
// document twice is a no-op; a version collision with different content
// fails with ErrProfileConflict.
func (s *Store) Register(ctx context.Context, raw []byte) (*Profile, error) {
	p, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.profiles[p.Version()]; ok {
		if existing.Checksum() == p.Checksum() {
			return existing, nil
		}
		return nil, fmt.Errorf("version %s: %w", p.Version(), ErrProfileConflict)
	}

	s.profiles[p.Version()] = p
	s.raw[p.Version()] = append([]byte(nil), raw...)
	s.logger.Info(ctx, "profile published",
		logger.String("version", p.Version()),
		logger.String("checksum", p.Checksum()),
	)
	return p, nil
}

// LoadProfile returns the published profile for a version.
// Fails with ErrProfileNotFound for unknown versions.
func (s *Store) LoadProfile(ctx context.Context, version string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[version]
	if !ok {
		return nil, fmt.Errorf("version %s: %w", version, ErrProfileNotFound)
	}
	return p, nil
}

// Raw returns the exact document bytes a version was published from.
func (s *Store) Raw(ctx context.Context, version string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.raw[version]
	if !ok {
		return nil, fmt.Errorf("version %s: %w", version, ErrProfileNotFound)
	}
	return append([]byte(nil), raw...), nil
}

// Versions returns the published version strings.
func (s *Store) Versions(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.profiles))
	for v := range s.profiles {
		out = append(out, v)
	}
	return out
}

// Count returns the number of published profiles.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func (s *Store) loadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read profile dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read profile %s: %w", entry.Name(), err)
		}
		if _, err := s.Register(ctx, raw); err != nil {
			return fmt.Errorf("profile %s: %w", entry.Name(), err)
		}
	}
	return nil
}
