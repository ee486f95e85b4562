package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/ShelfStat/internal/config"
	"github.com/IshaanNene/ShelfStat/internal/types"
)

type stagedDoc struct {
	ID        string    `bson:"_id"`
	Path      string    `bson:"path"`
	StagedAt  time.Time `bson:"staged_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// MongoStore keeps one document per session in a MongoDB collection, so
// several webhook replicas can share staged uploads on a common volume.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	ttl        time.Duration
	logger     *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg config.SessionConfig, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, &types.SessionError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.SessionError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ttl:        cfg.TTL,
		logger:     logger.With("component", "mongo_session"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) Stage(ctx context.Context, id, path string) (string, error) {
	now := time.Now().UTC()
	doc := stagedDoc{ID: id, Path: path, StagedAt: now}
	if s.ttl > 0 {
		doc.ExpiresAt = now.Add(s.ttl)
	}

	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var prev stagedDoc
	err := s.collection.FindOneAndReplace(ctx, bson.M{"_id": id}, doc, opts).Decode(&prev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", &types.SessionError{Backend: "mongodb", SessionID: id, Err: fmt.Errorf("stage: %w", err)}
	}
	s.logger.Debug("document staged", "session", id, "replaced", prev.Path != "")
	return prev.Path, nil
}

func (s *MongoStore) Consume(ctx context.Context, id string) (string, error) {
	filter := bson.M{"_id": id}
	if s.ttl > 0 {
		filter["expires_at"] = bson.M{"$gt": time.Now().UTC()}
	}

	var doc stagedDoc
	err := s.collection.FindOneAndDelete(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", types.ErrNoStagedDocument
	}
	if err != nil {
		return "", &types.SessionError{Backend: "mongodb", SessionID: id, Err: fmt.Errorf("consume: %w", err)}
	}
	return doc.Path, nil
}

func (s *MongoStore) Expire(ctx context.Context, id string) (string, error) {
	var doc stagedDoc
	err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", &types.SessionError{Backend: "mongodb", SessionID: id, Err: fmt.Errorf("expire: %w", err)}
	}
	return doc.Path, nil
}

func (s *MongoStore) Sweep(ctx context.Context) ([]string, error) {
	if s.ttl <= 0 {
		return nil, nil
	}
	filter := bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}}

	cur, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, &types.SessionError{Backend: "mongodb", Err: fmt.Errorf("sweep find: %w", err)}
	}
	var docs []stagedDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &types.SessionError{Backend: "mongodb", Err: fmt.Errorf("sweep decode: %w", err)}
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(docs))
	paths := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		paths[i] = d.Path
	}
	if _, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, &types.SessionError{Backend: "mongodb", Err: fmt.Errorf("sweep delete: %w", err)}
	}
	s.logger.Info("expired sessions swept", "count", len(paths))
	return paths, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
