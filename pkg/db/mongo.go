package db

import (
	"context"
	"fmt"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client wraps the MongoDB client and the review collection
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
}

// NewClient creates a new database client
func NewClient(connectionString, databaseName, collectionName string) *Client {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Connect() reports the missing client
		return &Client{}
	}

	database := mongoClient.Database(databaseName)
	collection := database.Collection(collectionName)

	return &Client{
		mongoClient: mongoClient,
		database:    database,
		collection:  collection,
	}
}

// Connect verifies the connection to MongoDB
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// SaveReview stores a review keyed by its source URL. The whole document is
// replaced, so a re-run never leaves fields from an older extraction behind.
func (c *Client) SaveReview(ctx context.Context, review *domain.Review) error {
	if c.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	filter := bson.M{"source_url": review.SourceURL}
	opts := options.Replace().SetUpsert(true)

	if _, err := c.collection.ReplaceOne(ctx, filter, review, opts); err != nil {
		return fmt.Errorf("upsert review %s: %w", review.SourceURL, err)
	}
	return nil
}

// GetAllReviews reads every stored review
func (c *Client) GetAllReviews(ctx context.Context) ([]domain.Review, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := c.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []domain.Review
	for cursor.Next(ctx) {
		var r domain.Review
		if err := cursor.Decode(&r); err != nil {
			continue // Skip documents written by an older schema
		}
		if r.SourceURL != "" {
			reviews = append(reviews, r)
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return reviews, nil
}
