package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)

	if err := ensureIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, err
	}

	return client, db, nil
}

type indexSpec struct {
	collection string
	keys       bson.D
}

// uniqueIndexSpecs lists the unique keys the repositories rely on: the
// duplicate-key error paths and the one-secret-per-(externalId,type) and
// one-projection-per-(appId,userId) invariants are all enforced by these
// indexes, not by application logic.
func uniqueIndexSpecs() []indexSpec {
	return []indexSpec{
		{userCollection, bson.D{{Key: "email", Value: 1}}},
		{applicationCollection, bson.D{{Key: "name", Value: 1}}},
		{projectionCollection, bson.D{{Key: "app_id", Value: 1}, {Key: "user_id", Value: 1}}},
		{secretCollection, bson.D{{Key: "external_id", Value: 1}, {Key: "type", Value: 1}}},
	}
}

// ensureIndexes creates the unique indexes at startup. Creating an index
// that already exists with the same definition is a no-op server-side.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, spec := range uniqueIndexSpecs() {
		_, err := db.Collection(spec.collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    spec.keys,
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("%s unique index: %w", spec.collection, err)
		}
	}
	return nil
}

func nowUnix() int64 {
	return time.Now().UTC().Unix()
}

// unixToTime converts a stored Unix-seconds timestamp back to time.Time.
// Zero stays the zero time instead of the epoch.
func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
