package database

import (
	"context"
	"fmt"

	"health-intake-backend/config"
	"health-intake-backend/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectMongoDB establishes connection to MongoDB
func ConnectMongoDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*cfg.Database.Timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.BuildDatabaseURI()).
		SetMaxPoolSize(uint64(cfg.Database.MaxConnections)).
		SetMinPoolSize(uint64(cfg.Database.MinConnections)).
		SetMaxConnIdleTime(cfg.Database.MaxIdleTime)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database.Name)
	logger.Info("Connected to MongoDB", zap.String("database", cfg.Database.Name))

	if err := createIndexes(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	logger.Info("Database indexes created successfully")

	return client, db, nil
}

// createIndexes creates necessary indexes
func createIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		repository.CollectionDiseases: {
			{
				Keys: bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetCollation(&options.Collation{Locale: "en", Strength: 2}),
			},
		},
		repository.CollectionDoctors: {
			{Keys: bson.D{{Key: "specialty", Value: 1}, {Key: "location", Value: 1}}},
			{Keys: bson.D{{Key: "location", Value: 1}}},
		},
		repository.CollectionMessages: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		repository.CollectionAppointments: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "appointment_date", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{
				Keys: bson.D{{Key: "payment_reference", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"payment_reference": bson.M{"$type": "string"}}),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", collection, err)
		}
	}
	return nil
}

// DisconnectMongoDB closes the MongoDB connection
func DisconnectMongoDB(ctx context.Context, client *mongo.Client, logger *zap.Logger) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	logger.Info("Disconnected from MongoDB")
	return nil
}
