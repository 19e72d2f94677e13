package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
	"github.com/hcmut-portal/portal-api/internal/infrastructure/db/bundlestore"
)

const collectionBundles = "bundles"

// bundleDocument keeps the bundle as encoded JSON rather than as BSON so
// numbers and key order round-trip exactly as they do on disk.
type bundleDocument struct {
	Role      string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type BundleBackend struct {
	col *mongo.Collection
	now func() time.Time
}

var _ ports.BundleBackend = (*BundleBackend)(nil)

func NewBundleBackend(db *mongo.Database) *BundleBackend {
	return &BundleBackend{col: db.Collection(collectionBundles), now: time.Now}
}

// Read retrieves the bundle stored under the role's _id.
func (r *BundleBackend) Read(ctx context.Context, role domain.Role) (domain.Bundle, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bundleDocument
	err := r.col.FindOne(ctx, bson.M{"_id": role.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("bundle %s: %w", role, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("mongo find bundle: %w", err)
	}
	return bundlestore.Decode([]byte(doc.Payload))
}

// Write upserts the role's document, replacing any previous payload.
func (r *BundleBackend) Write(ctx context.Context, role domain.Role, b domain.Bundle) error {
	data, err := bundlestore.Encode(b)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bundleDocument{Role: role.String(), Payload: string(data), UpdatedAt: r.now().UTC()}
	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": doc.Role}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace bundle: %w", err)
	}
	return nil
}

func (r *BundleBackend) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}
