package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
	"github.com/hcmut-portal/portal-api/internal/infrastructure/db/bundlestore"
)

// DefaultKeyPrefix is prepended to the role name to form the bundle key.
const DefaultKeyPrefix = "portal:bundle:"

// BundleBackend stores each role's bundle as a JSON string value.
// Key format: <prefix><role>
type BundleBackend struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.BundleBackend = (*BundleBackend)(nil)

func NewBundleBackend(client redis.UniversalClient, prefix string) *BundleBackend {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &BundleBackend{client: client, prefix: prefix}
}

func (b *BundleBackend) key(role domain.Role) string {
	return b.prefix + role.String()
}

func (b *BundleBackend) Read(ctx context.Context, role domain.Role) (domain.Bundle, error) {
	data, err := b.client.Get(ctx, b.key(role)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("key %s: %w", b.key(role), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return bundlestore.Decode(data)
}

// Write stores the document without expiry; SET replaces it atomically.
func (b *BundleBackend) Write(ctx context.Context, role domain.Role, doc domain.Bundle) error {
	data, err := bundlestore.Encode(doc)
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.key(role), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *BundleBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
