package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/salazarsebas/Cougr/internal/config"
	"github.com/salazarsebas/Cougr/internal/tetris"
)

// MongoSessionRepo реализует SessionRepo на MongoDB.
type MongoSessionRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

// sessionDocument — документ партии в коллекции.
type sessionDocument struct {
	SessionID string          `bson:"session_id"`
	State     tetris.Snapshot `bson:"state"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// NewMongoSessionRepo устанавливает соединение и возвращает репозиторий.
func NewMongoSessionRepo(cfg config.MongoConfig) (*MongoSessionRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "tetris"
	}
	if cfg.Collection == "" {
		cfg.Collection = "sessions"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	repo := &MongoSessionRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}

	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoSessionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.ctxTimeout)
	defer cancel()
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("sessionid_unique"),
	}
	_, err := r.collection.Indexes().CreateOne(ctx, idx)
	return err
}

// Save сохраняет снапшот партии (upsert по session_id).
func (r *MongoSessionRepo) Save(ctx context.Context, sessionID string, snap tetris.Snapshot) error {
	if sessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}

	doc := sessionDocument{
		SessionID: sessionID,
		State:     snap,
		UpdatedAt: time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"session_id": sessionID}, doc, opts)
	if err != nil {
		return fmt.Errorf("ошибка записи партии %s: %w", sessionID, err)
	}
	return nil
}

// Load загружает снапшот партии.
func (r *MongoSessionRepo) Load(ctx context.Context, sessionID string) (tetris.Snapshot, bool, error) {
	if sessionID == "" {
		return tetris.Snapshot{}, false, fmt.Errorf("пустой sessionID")
	}

	var doc sessionDocument
	err := r.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return tetris.Snapshot{}, false, nil
	}
	if err != nil {
		return tetris.Snapshot{}, false, fmt.Errorf("ошибка чтения партии %s: %w", sessionID, err)
	}
	return doc.State, true, nil
}

// Delete удаляет партию.
func (r *MongoSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("пустой sessionID")
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("ошибка удаления партии %s: %w", sessionID, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("партия %s не найдена", sessionID)
	}
	return nil
}

// Close разрывает соединение с MongoDB.
func (r *MongoSessionRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.ctxTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}
