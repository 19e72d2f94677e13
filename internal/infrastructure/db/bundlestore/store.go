// Package bundlestore keeps one portal bundle per role in memory, backed by
// a durable ports.BundleBackend.
//
// The avatar side-table ("avatars", email → URL) is reconciled at exactly two
// points: on every load the table overrides user.avatar, and on every update
// user.avatar is written into the table before the document is persisted.
package bundlestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
	"github.com/hcmut-portal/portal-api/internal/pkg/metrics"
)

// Store implements ports.BundleRepository.
type Store struct {
	backend ports.BundleBackend
	seed    ports.BundleBackend
	log     zerolog.Logger

	// writeMu serialises updates so the cache and the backend agree on the
	// last writer. Reads never take it.
	writeMu sync.Mutex

	mu      sync.RWMutex
	bundles map[domain.Role]domain.Bundle
	users   map[domain.Role]domain.User
	// gen counts committed updates per role. A load only commits what it
	// read if no update landed while it was reading.
	gen map[domain.Role]uint64
}

var _ ports.BundleRepository = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithSeed sets a read-only source copied into the backend during
// Bootstrap for roles the backend has no document for.
func WithSeed(seed ports.BundleBackend) Option {
	return func(s *Store) { s.seed = seed }
}

func New(backend ports.BundleBackend, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		log:     log,
		bundles: make(map[domain.Role]domain.Bundle, len(domain.Roles)),
		users:   make(map[domain.Role]domain.User, len(domain.Roles)),
		gen:     make(map[domain.Role]uint64, len(domain.Roles)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap eagerly loads every role. Any failure aborts startup.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, role := range domain.Roles {
		_, err := s.Load(ctx, role)
		if errors.Is(err, domain.ErrNotFound) && s.seed != nil {
			if err = s.seedRole(ctx, role); err == nil {
				_, err = s.Load(ctx, role)
			}
		}
		if err != nil {
			return fmt.Errorf("bootstrap %s: %w", role, err)
		}
	}
	s.log.Info().Int("roles", len(domain.Roles)).Msg("bundles loaded")
	return nil
}

func (s *Store) seedRole(ctx context.Context, role domain.Role) error {
	doc, err := s.seed.Read(ctx, role)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := s.backend.Write(ctx, role, doc); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.log.Info().Str("role", role.String()).Msg("bundle seeded into backend")
	return nil
}

// Load reads the role's document from the backend, applies the avatar
// override, refreshes the cache and returns a copy. When an Update commits
// while the read is in flight, the updated document wins and is returned.
func (s *Store) Load(ctx context.Context, role domain.Role) (domain.Bundle, error) {
	if !role.Valid() {
		return nil, domain.ErrUnknownRole
	}

	s.mu.RLock()
	seen := s.gen[role]
	s.mu.RUnlock()

	doc, err := s.backend.Read(ctx, role)
	if err != nil {
		metrics.BundleLoadsTotal.WithLabelValues(role.String(), loadResult(err)).Inc()
		return nil, fmt.Errorf("load %s bundle: %w", role, err)
	}
	metrics.BundleLoadsTotal.WithLabelValues(role.String(), "ok").Inc()

	doc.ApplyAvatarOverride()

	s.mu.Lock()
	if s.gen[role] != seen {
		doc = s.bundles[role]
	} else {
		s.bundles[role] = doc
		if u, ok := doc.User(); ok {
			s.users[role] = u
		}
	}
	out := doc.Clone()
	s.mu.Unlock()

	return out, nil
}

// Get returns a fresh copy of the role's bundle. When the backend cannot be
// read the last cached copy is served and a warning is logged.
func (s *Store) Get(ctx context.Context, role domain.Role) (domain.Bundle, error) {
	doc, err := s.Load(ctx, role)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, domain.ErrUnknownRole) {
		return nil, err
	}

	s.mu.RLock()
	cached, ok := s.bundles[role]
	if ok {
		cached = cached.Clone()
	}
	s.mu.RUnlock()

	if !ok {
		return nil, err
	}

	metrics.BundleCacheFallbacksTotal.WithLabelValues(role.String()).Inc()
	s.log.Warn().Err(err).Str("role", role.String()).Msg("bundle backend unreadable, serving cached copy")
	return cached, nil
}

// Update replaces the role's bundle with doc (no merge), records
// user.avatar in the side-table and writes the result through to the
// backend. The cache only changes once the backend write succeeded.
func (s *Store) Update(ctx context.Context, role domain.Role, doc domain.Bundle) error {
	if !role.Valid() {
		return domain.ErrUnknownRole
	}

	next := doc.Clone()
	if next == nil {
		next = domain.Bundle{}
	}
	next.RecordAvatar()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.backend.Write(ctx, role, next); err != nil {
		metrics.BundleUpdatesTotal.WithLabelValues(role.String(), "error").Inc()
		return fmt.Errorf("update %s bundle: %w", role, err)
	}

	s.mu.Lock()
	s.bundles[role] = next
	if u, ok := next.User(); ok {
		s.users[role] = u
	}
	s.gen[role]++
	s.mu.Unlock()

	metrics.BundleUpdatesTotal.WithLabelValues(role.String(), "ok").Inc()
	s.log.Info().Str("role", role.String()).Msg("bundle updated")
	return nil
}

// FindRoleByEmail maps the email's local part to a role by prefix:
// "student…" → student, "tutor…" → tutor, anything else → staff.
func (s *Store) FindRoleByEmail(email string) domain.Role {
	local, _, _ := strings.Cut(email, "@")
	local = strings.ToLower(strings.TrimSpace(local))
	switch {
	case strings.HasPrefix(local, "student"):
		return domain.RoleStudent
	case strings.HasPrefix(local, "tutor"):
		return domain.RoleTutor
	default:
		return domain.RoleStaff
	}
}

// User returns the user record extracted from the role's last loaded or
// updated bundle.
func (s *Store) User(role domain.Role) (domain.User, error) {
	s.mu.RLock()
	u, ok := s.users[role]
	s.mu.RUnlock()
	if !ok {
		return domain.User{}, fmt.Errorf("user for %s: %w", role, domain.ErrNotFound)
	}
	return u, nil
}

// Ping reports whether the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func loadResult(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "not_found"
	}
	return "error"
}
