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

// サイズは商品ドキュメントに埋め込む
type ProductMongoRepository struct {
	coll *mongo.Collection
}

func NewProductMongoRepository(mdb *mongo.Database) *ProductMongoRepository {
	return &ProductMongoRepository{coll: mdb.Collection(db.CollProducts)}
}

func (r *ProductMongoRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	filter := bson.M{}
	if q.ActiveOnly {
		filter["isActive"] = true
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongoErr(err, "list products")
	}
	defer cur.Close(ctx)

	products := []model.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, translateMongoErr(err, "decode products")
	}
	return products, nil
}

func (r *ProductMongoRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return model.Product{}, translateMongoErr(err, "find product")
	}
	return p, nil
}

func (r *ProductMongoRepository) Create(ctx context.Context, p model.Product) error {
	_, err := r.coll.InsertOne(ctx, p)
	return translateMongoErr(err, "create product")
}

func (r *ProductMongoRepository) Update(ctx context.Context, id string, upd repo.ProductUpdate) (model.Product, error) {
	set := bson.M{"updatedAt": upd.UpdatedAt}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Images != nil {
		set["images"] = *upd.Images
	}
	if upd.Sizes != nil {
		set["sizes"] = *upd.Sizes
	}
	if upd.IsActive != nil {
		set["isActive"] = *upd.IsActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p model.Product
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return model.Product{}, translateMongoErr(err, "update product")
	}
	return p, nil
}

func (r *ProductMongoRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"isActive": false, "updatedAt": at}})
	if err != nil {
		return translateMongoErr(err, "soft delete product")
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
