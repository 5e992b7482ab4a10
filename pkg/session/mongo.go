package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	perrors "github.com/matzehuels/pathstep/pkg/errors"
)

// MongoConfig configures NewMongoStore.
type MongoConfig struct {
	URI        string
	Database   string // default "pathstep"
	Collection string // default "sessions"
}

// MongoStore keeps sessions in a MongoDB collection keyed by session ID.
// A TTL index on expires_at lets MongoDB drop expired documents itself;
// Get also filters them out so expiry is exact.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and ensures the TTL index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "pathstep"
	}
	if cfg.Collection == "" {
		cfg.Collection = "sessions"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create ttl index: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := perrors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	var sess Session
	err := s.coll.FindOne(ctx, liveFilter(id, time.Now())).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &sess, nil
}

func (s *MongoStore) Set(ctx context.Context, sess *Session) error {
	if err := perrors.ValidateSessionID(sess.ID); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sess.ID}, sess, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *MongoStore) Cleanup(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, expiredFilter(time.Now())); err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// liveFilter matches id when it has not expired at now.
func liveFilter(id string, now time.Time) bson.M {
	return bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$gt": now}},
			bson.M{"expires_at": time.Time{}},
		},
	}
}

// expiredFilter matches documents whose non-zero expiry is before now.
func expiredFilter(now time.Time) bson.M {
	return bson.M{"expires_at": bson.M{"$lt": now, "$gt": time.Time{}}}
}

var _ Store = (*MongoStore)(nil)
