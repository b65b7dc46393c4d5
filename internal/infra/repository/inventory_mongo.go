package repository

import (
	"context"

	"ortus/internal/infra/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type InventoryMongoRepository struct {
	coll *mongo.Collection
}

func NewInventoryMongoRepository(mdb *mongo.Database) *InventoryMongoRepository {
	return &InventoryMongoRepository{coll: mdb.Collection(db.CollProducts)}
}

// $elemMatchで在庫条件を満たす要素だけを $inc する
func (r *InventoryMongoRepository) DecreaseStockIfEnough(ctx context.Context, productID string, size string, qty int64) (bool, error) {
	filter := bson.M{
		"_id": productID,
		"sizes": bson.M{"$elemMatch": bson.M{
			"size":  size,
			"stock": bson.M{"$gte": qty},
		}},
	}
	update := bson.M{"$inc": bson.M{"sizes.$.stock": -qty}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, translateMongoErr(err, "decrease stock")
	}
	return res.ModifiedCount > 0, nil
}
