package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

const applicationCollection = "applications"

// ApplicationRepository is the MongoDB adapter for registered applications.
// The collection carries a unique index on name.
type ApplicationRepository struct {
	collection *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{collection: db.Collection(applicationCollection)}
}

var _ ports.ApplicationRepository = (*ApplicationRepository)(nil)

type applicationDoc struct {
	ID            string `bson:"_id"`
	Name          string `bson:"name"`
	URL           string `bson:"url"`
	Email         string `bson:"email"`
	EmailVerified bool   `bson:"email_verified"`
	IsActive      bool   `bson:"is_active"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

func (d applicationDoc) toDomain() *domain.Application {
	return &domain.Application{
		ID:            d.ID,
		Name:          d.Name,
		URL:           d.URL,
		Email:         d.Email,
		EmailVerified: d.EmailVerified,
		IsActive:      d.IsActive,
		CreatedAt:     unixToTime(d.CreatedAt),
		UpdatedAt:     unixToTime(d.UpdatedAt),
	}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := applicationDoc{
		ID:            primitive.NewObjectID().Hex(),
		Name:          app.Name,
		URL:           app.URL,
		Email:         app.Email,
		EmailVerified: app.EmailVerified,
		IsActive:      app.IsActive,
		CreatedAt:     app.CreatedAt.Unix(),
		UpdatedAt:     app.UpdatedAt.Unix(),
	}

	if _, err := r.collection.InsertOne(opCtx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRecord
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ApplicationRepository) GetByName(ctx context.Context, name string) (*domain.Application, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Application, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc applicationDoc
	if err := r.collection.FindOne(opCtx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ApplicationRepository) List(ctx context.Context) ([]*domain.Application, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.collection.Find(opCtx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(opCtx)

	var apps []*domain.Application
	for cursor.Next(opCtx) {
		var doc applicationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		apps = append(apps, doc.toDomain())
	}
	return apps, cursor.Err()
}

func (r *ApplicationRepository) Update(ctx context.Context, id string, patch ports.AppPatch) (*domain.Application, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": nowUnix()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.URL != nil {
		set["url"] = *patch.URL
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.EmailVerified != nil {
		set["email_verified"] = *patch.EmailVerified
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}

	var doc applicationDoc
	err := r.collection.FindOneAndUpdate(
		opCtx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRecord
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id string) (*domain.Application, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc applicationDoc
	if err := r.collection.FindOneAndDelete(opCtx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}
