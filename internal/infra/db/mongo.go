package db

import (
	"context"
	"time"

	"ortus/internal/config"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// コレクション名
const (
	CollUsers     = "users"
	CollProducts  = "products"
	CollOrders    = "orders"
	CollAuditLogs = "audit_logs"
)

// ConnectMongo は接続してpingまで確認する。
// 注文作成でトランザクションを使うのでレプリカセットが必要。
func ConnectMongo(ctx context.Context, cfg config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI).SetRegistry(NewRegistry()))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "ping mongo")
	}
	return client, client.Database(cfg.MongoDB), nil
}

// EnsureIndexes はunique制約と一覧用のindexを作る。
func EnsureIndexes(ctx context.Context, mdb *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		CollUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_users_email")},
			{Keys: bson.D{{Key: "phoneNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_users_phone_number")},
			{Keys: bson.D{{Key: "resetCodeExpiresAt", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		CollProducts: {
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollOrders: {
			{Keys: bson.D{{Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "deliveryRequested", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollAuditLogs: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "resourceType", Value: 1}, {Key: "resourceId", Value: 1}}},
		},
	}

	for coll, models := range specs {
		if _, err := mdb.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "create indexes on %s", coll)
		}
	}
	return nil
}
