package repository

import (
	"context"
	"time"

	"ortus/internal/domain/model"
	"ortus/internal/infra/db"
	repo "ortus/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 明細は注文ドキュメントに埋め込む
type OrderMongoRepository struct {
	coll *mongo.Collection
}

func NewOrderMongoRepository(mdb *mongo.Database) *OrderMongoRepository {
	return &OrderMongoRepository{coll: mdb.Collection(db.CollOrders)}
}

func (r *OrderMongoRepository) Create(ctx context.Context, order *model.Order) error {
	_, err := r.coll.InsertOne(ctx, order)
	return translateMongoErr(err, "create order")
}

func (r *OrderMongoRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": orderID}).Decode(&o); err != nil {
		return model.Order{}, translateMongoErr(err, "find order")
	}
	return o, nil
}

func (r *OrderMongoRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.DeliveryRequested != nil {
		filter["deliveryRequested"] = *f.DeliveryRequested
	}
	if created := timeRange(f.From, f.To); created != nil {
		filter["createdAt"] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongoErr(err, "list orders")
	}
	defer cur.Close(ctx)

	orders := []model.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, translateMongoErr(err, "decode orders")
	}
	return orders, nil
}

func (r *OrderMongoRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, at time.Time) error {
	return r.set(ctx, orderID, bson.M{"status": status, "updatedAt": at})
}

func (r *OrderMongoRepository) MarkDeliveryRequested(ctx context.Context, orderID string, at time.Time) error {
	return r.set(ctx, orderID, bson.M{
		"deliveryType":      model.DeliveryTypeDelivery,
		"deliveryRequested": true,
		"updatedAt":         at,
	})
}

func (r *OrderMongoRepository) set(ctx context.Context, orderID string, fields bson.M) error {
	res, err := r.coll.UpdateByID(ctx, orderID, bson.M{"$set": fields})
	if err != nil {
		return translateMongoErr(err, "update order")
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// from/to のどちらも無ければ nil
func timeRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	m := bson.M{}
	if from != nil {
		m["$gte"] = *from
	}
	if to != nil {
		m["$lte"] = *to
	}
	return m
}
