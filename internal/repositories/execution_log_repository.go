package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"querydesk-api/internal/constants"
	"querydesk-api/internal/models"
	"querydesk-api/pkg/mongodb"
)

type ExecutionLogRepository interface {
	Insert(ctx context.Context, entry *models.ExecutionLog) error
	ListByDatabase(ctx context.Context, databaseID uint, limit int) ([]*models.ExecutionLog, error)
}

type executionLogRepository struct {
	collection *mongo.Collection
}

func NewExecutionLogRepository(mongoClient *mongodb.MongoDBClient) ExecutionLogRepository {
	return &executionLogRepository{
		collection: mongoClient.GetCollectionByName(constants.ExecutionLogCollection),
	}
}

func (r *executionLogRepository) Insert(ctx context.Context, entry *models.ExecutionLog) error {
	if entry.ID.IsZero() {
		entry.DocumentBase = models.NewDocumentBase()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *executionLogRepository) ListByDatabase(ctx context.Context, databaseID uint, limit int) ([]*models.ExecutionLog, error) {
	var entries []*models.ExecutionLog
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"database_id": databaseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
