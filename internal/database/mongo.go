package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var DB *mongo.Database

// Connect opens the Mongo backend used when STORE_BACKEND=mongo.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	DB = client.Database(dbName)
	log.Info().Str("db", dbName).Msg("connected to MongoDB")
	return client, nil
}

func GetCollection(name string) *mongo.Collection {
	return DB.Collection(name)
}
