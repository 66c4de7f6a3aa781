package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoRepositoryManager vends MongoDB-backed repositories of one database.
type MongoRepositoryManager struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoRepositoryManager(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoRepositoryManager{client: client, db: client.Database(database)}, nil
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return users.NewMongoRepository(m.db)
}

func (m *MongoRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return refreshtokens.NewMongoRepository(m.db)
}

// RunMigrations creates the collection indexes. CreateMany is idempotent for
// unchanged index definitions.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if _, err := m.db.Collection(users.CollectionName).Indexes().CreateMany(ctx, users.Indexes()); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if _, err := m.db.Collection(refreshtokens.CollectionName).Indexes().CreateMany(ctx, refreshtokens.Indexes()); err != nil {
		return fmt.Errorf("refresh token indexes: %w", err)
	}
	return nil
}

// DeleteUser removes tokens first, so a failure in between never leaves
// tokens behind for a deleted user.
func (m *MongoRepositoryManager) DeleteUser(ctx context.Context, id string) error {
	if err := m.RefreshTokens().DeleteAllForUser(ctx, id); err != nil {
		return err
	}
	return m.Users().Delete(ctx, id)
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
