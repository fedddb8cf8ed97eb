package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

const secretCollection = "secrets"

// SecretRepository is the MongoDB adapter for hashed credentials. The
// (external_id, type) pair is the unique composite key, enforced by a
// compound index.
type SecretRepository struct {
	collection *mongo.Collection
}

func NewSecretRepository(db *mongo.Database) *SecretRepository {
	return &SecretRepository{collection: db.Collection(secretCollection)}
}

var _ ports.SecretRepository = (*SecretRepository)(nil)

type secretDoc struct {
	ExternalID string `bson:"external_id"`
	Type       string `bson:"type"`
	PassHash   string `bson:"pass_hash"`
	Salt       string `bson:"salt"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

func (d secretDoc) toDomain() *domain.Secret {
	return &domain.Secret{
		ExternalID: d.ExternalID,
		Type:       domain.SecretType(d.Type),
		PassHash:   d.PassHash,
		Salt:       d.Salt,
		CreatedAt:  unixToTime(d.CreatedAt),
		UpdatedAt:  unixToTime(d.UpdatedAt),
	}
}

func secretKey(externalID string, typ domain.SecretType) bson.M {
	return bson.M{"external_id": externalID, "type": string(typ)}
}

func (r *SecretRepository) Create(ctx context.Context, secret *domain.Secret) (*domain.Secret, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := nowUnix()
	doc := secretDoc{
		ExternalID: secret.ExternalID,
		Type:       string(secret.Type),
		PassHash:   secret.PassHash,
		Salt:       secret.Salt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if !secret.CreatedAt.IsZero() {
		doc.CreatedAt = secret.CreatedAt.Unix()
	}
	if !secret.UpdatedAt.IsZero() {
		doc.UpdatedAt = secret.UpdatedAt.Unix()
	}

	if _, err := r.collection.InsertOne(opCtx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRecord
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *SecretRepository) Get(ctx context.Context, externalID string, typ domain.SecretType) (*domain.Secret, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc secretDoc
	if err := r.collection.FindOne(opCtx, secretKey(externalID, typ)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *SecretRepository) Update(ctx context.Context, externalID string, typ domain.SecretType, patch ports.SecretPatch) (*domain.Secret, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": nowUnix()}
	if patch.PassHash != nil {
		set["pass_hash"] = *patch.PassHash
	}
	if patch.Salt != nil {
		set["salt"] = *patch.Salt
	}

	var doc secretDoc
	err := r.collection.FindOneAndUpdate(
		opCtx,
		secretKey(externalID, typ),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *SecretRepository) Delete(ctx context.Context, externalID string, typ domain.SecretType) (*domain.Secret, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc secretDoc
	if err := r.collection.FindOneAndDelete(opCtx, secretKey(externalID, typ)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}
