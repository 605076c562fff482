package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"address-rest-api/internal/model"
	"address-rest-api/pkg/uid"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBAddressRepository implements AddressRepository using MongoDB.
// One document per address record, id as primary key.
type MongoDBAddressRepository struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

// NewMongoDBAddressRepository creates a new MongoDB address repository.
func NewMongoDBAddressRepository(uri, database, collection string) (*MongoDBAddressRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	coll := db.Collection(collection)

	// Create index on user_id for the by-user lookup
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	}
	_, err = coll.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		log.Printf("[MongoDB] Warning: failed to create index: %v", err)
	}

	log.Printf("[MongoDB] Connected to %s/%s", database, collection)
	return &MongoDBAddressRepository{
		client:     client,
		db:         db,
		collection: coll,
	}, nil
}

// Save inserts or replaces an address document.
func (r *MongoDBAddressRepository) Save(ctx context.Context, addr *model.Address) (*model.Address, error) {
	saved := *addr
	if saved.ID == "" {
		saved.ID = uid.New()
	}

	filter := bson.M{"_id": saved.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, saved, opts); err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}
	return &saved, nil
}

// FindByID retrieves an address by id. Returns (nil, nil) when absent.
func (r *MongoDBAddressRepository) FindByID(ctx context.Context, id string) (*model.Address, error) {
	var addr model.Address
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&addr)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &addr, nil
}

// ExistsByID reports whether an address with the id exists.
func (r *MongoDBAddressRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	opts := options.Count().SetLimit(1)
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, opts)
	if err != nil {
		return false, fmt.Errorf("failed to check address existence: %w", err)
	}
	return count > 0, nil
}

// DeleteByID removes an address by id.
func (r *MongoDBAddressRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// FindAll returns every address ordered by id.
func (r *MongoDBAddressRepository) FindAll(ctx context.Context) ([]model.Address, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer cursor.Close(ctx)

	addresses := []model.Address{}
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}
	return addresses, nil
}

// FindByUserID returns all addresses belonging to a user.
func (r *MongoDBAddressRepository) FindByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses for user: %w", err)
	}
	defer cursor.Close(ctx)

	addresses := []model.Address{}
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}
	return addresses, nil
}

// Stats returns statistics about the address collection.
func (r *MongoDBAddressRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	stats["status"] = "connected"

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, err
	}
	stats["total_addresses"] = count

	result := r.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: r.collection.Name()}})
	var collStats bson.M
	if err := result.Decode(&collStats); err == nil {
		if size, ok := collStats["size"].(int64); ok {
			stats["db_size_bytes"] = size
		} else if size, ok := collStats["size"].(int32); ok {
			stats["db_size_bytes"] = int64(size)
		}
	}

	return stats, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBAddressRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
