package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Indexes lists the indexes each collection needs.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		QuestionsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		ResultsCollection: {
			{Keys: bson.D{{Key: "questionId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}, {Key: "interviewDate", Value: -1}}},
		},
	}
}

// EnsureIndexes creates all indexes. Existing indexes are left untouched.
func EnsureIndexes(ctx context.Context, db *mongo.Database) ([]string, error) {
	var names []string
	for collection, models := range Indexes() {
		created, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return names, fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		names = append(names, created...)
	}
	return names, nil
}
