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

const projectionCollection = "user_projections"

// ProjectionRepository is the MongoDB adapter for app-user follow records.
// The (app_id, user_id) pair is the unique composite key, enforced by a
// compound index.
type ProjectionRepository struct {
	collection *mongo.Collection
}

func NewProjectionRepository(db *mongo.Database) *ProjectionRepository {
	return &ProjectionRepository{collection: db.Collection(projectionCollection)}
}

var _ ports.ProjectionRepository = (*ProjectionRepository)(nil)

type projectionDoc struct {
	AppID     string         `bson:"app_id"`
	UserID    string         `bson:"user_id"`
	Alias     string         `bson:"alias,omitempty"`
	AppData   map[string]any `bson:"app_data,omitempty"`
	IsActive  bool           `bson:"is_active"`
	CreatedAt int64          `bson:"created_at"`
	UpdatedAt int64          `bson:"updated_at"`
}

func (d projectionDoc) toDomain() *domain.UserProjection {
	return &domain.UserProjection{
		AppID:     d.AppID,
		UserID:    d.UserID,
		Alias:     d.Alias,
		AppData:   d.AppData,
		IsActive:  d.IsActive,
		CreatedAt: unixToTime(d.CreatedAt),
		UpdatedAt: unixToTime(d.UpdatedAt),
	}
}

func compositeKey(appID, userID string) bson.M {
	return bson.M{"app_id": appID, "user_id": userID}
}

func (r *ProjectionRepository) Create(ctx context.Context, projection *domain.UserProjection) (*domain.UserProjection, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := nowUnix()
	doc := projectionDoc{
		AppID:     projection.AppID,
		UserID:    projection.UserID,
		Alias:     projection.Alias,
		AppData:   projection.AppData,
		IsActive:  projection.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !projection.CreatedAt.IsZero() {
		doc.CreatedAt = projection.CreatedAt.Unix()
	}
	if !projection.UpdatedAt.IsZero() {
		doc.UpdatedAt = projection.UpdatedAt.Unix()
	}

	if _, err := r.collection.InsertOne(opCtx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRecord
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ProjectionRepository) Get(ctx context.Context, appID, userID string) (*domain.UserProjection, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc projectionDoc
	if err := r.collection.FindOne(opCtx, compositeKey(appID, userID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ProjectionRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.UserProjection, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *ProjectionRepository) ListByAppID(ctx context.Context, appID string) ([]*domain.UserProjection, error) {
	return r.list(ctx, bson.M{"app_id": appID})
}

func (r *ProjectionRepository) list(ctx context.Context, filter bson.M) ([]*domain.UserProjection, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.collection.Find(opCtx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(opCtx)

	var projections []*domain.UserProjection
	for cursor.Next(opCtx) {
		var doc projectionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		projections = append(projections, doc.toDomain())
	}
	return projections, cursor.Err()
}

func (r *ProjectionRepository) Update(ctx context.Context, appID, userID string, patch ports.ProjectionPatch) (*domain.UserProjection, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": nowUnix()}
	if patch.Alias != nil {
		set["alias"] = *patch.Alias
	}
	if patch.AppData != nil {
		set["app_data"] = patch.AppData
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}

	var doc projectionDoc
	err := r.collection.FindOneAndUpdate(
		opCtx,
		compositeKey(appID, userID),
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

func (r *ProjectionRepository) Delete(ctx context.Context, appID, userID string) (*domain.UserProjection, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc projectionDoc
	if err := r.collection.FindOneAndDelete(opCtx, compositeKey(appID, userID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}
