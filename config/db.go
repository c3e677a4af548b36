// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use a local fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://localhost:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// GetDatabase returns the application database handle
func GetDatabase(client *mongo.Client) *mongo.Database {
	return client.Database(databaseName())
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(databaseName()).Collection(collectionName)
}

func databaseName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "snkprop"
	}
	return dbName
}

// setupCollections ensures all necessary collections and indexes exist
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(databaseName())

	collections := []string{"users", "employees", "referral_stats", "properties", "app_versions", "statistics"}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	// Email index for users collection
	userColl := db.Collection("users")
	createIndex(ctx, userColl, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	createIndex(ctx, userColl, mongo.IndexModel{
		Keys: bson.D{{Key: "referredBy", Value: 1}, {Key: "referralDate", Value: 1}},
	})

	// Unique identity and code indexes for employees
	employeeColl := db.Collection("employees")
	for _, field := range []string{"email", "referralCode", "employeeCode"} {
		createIndex(ctx, employeeColl, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}

	// One ledger entry per employee per period
	statsColl := db.Collection("referral_stats")
	createIndex(ctx, statsColl, mongo.IndexModel{
		Keys:    bson.D{{Key: "employeeId", Value: 1}, {Key: "period", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	createIndex(ctx, statsColl, mongo.IndexModel{
		Keys: bson.D{{Key: "period", Value: 1}, {Key: "isPaid", Value: 1}},
	})

	propertyColl := db.Collection("properties")
	createIndex(ctx, propertyColl, mongo.IndexModel{
		Keys: bson.D{{Key: "brokerId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	createIndex(ctx, propertyColl, mongo.IndexModel{
		Keys: bson.D{{Key: "propertyType", Value: 1}, {Key: "transactionType", Value: 1}, {Key: "status", Value: 1}},
	})
	createIndex(ctx, propertyColl, mongo.IndexModel{
		Keys: bson.D{{Key: "location.city", Value: 1}},
	})

	// At most one active version row per platform
	versionColl := db.Collection("app_versions")
	createIndex(ctx, versionColl, mongo.IndexModel{
		Keys: bson.D{{Key: "platform", Value: 1}, {Key: "isActive", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"isActive": true}),
	})

	log.Println("Database collections and indexes setup complete")
}

func createIndex(ctx context.Context, coll *mongo.Collection, model mongo.IndexModel) {
	_, err := coll.Indexes().CreateOne(ctx, model)
	if err != nil {
		log.Printf("Error creating index on %s: %v", coll.Name(), err)
	}
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
