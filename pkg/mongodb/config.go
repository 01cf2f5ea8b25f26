package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"querydesk-api/pkg/logger"
)

type MongoDbConfigModel struct {
	ConnectionUrl string
	DatabaseName  string
}

type MongoDBClient struct {
	Client *mongo.Client
	Config MongoDbConfigModel
}

func InitializeDatabaseConnection(config MongoDbConfigModel) (*MongoDBClient, error) {
	clientOptions := options.Client().ApplyURI(config.ConnectionUrl)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := mongoClient.Ping(ctx, nil); err != nil {
		mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("MongoDB -> InitializeDatabaseConnection -> connected", logger.Ctx{"database": config.DatabaseName})

	return &MongoDBClient{
		Client: mongoClient,
		Config: config,
	}, nil
}

func (client *MongoDBClient) GetCollectionByName(collectionName string) *mongo.Collection {
	return client.Client.Database(client.Config.DatabaseName).Collection(collectionName)
}

func (client *MongoDBClient) Disconnect(ctx context.Context) error {
	return client.Client.Disconnect(ctx)
}
