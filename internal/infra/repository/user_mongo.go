package repository

import (
	"context"
	"time"

	"ortus/internal/domain/model"
	"ortus/internal/infra/db"
	domainrepo "ortus/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userMongoRepository struct {
	coll *mongo.Collection
}

func NewUserMongoRepository(mdb *mongo.Database) domainrepo.UserRepository {
	return &userMongoRepository{coll: mdb.Collection(db.CollUsers)}
}

func (r *userMongoRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	return translateMongoErr(err, "create user")
}

func (r *userMongoRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userMongoRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translateMongoErr(err, "find users by ids")
	}
	defer cur.Close(ctx)

	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, translateMongoErr(err, "decode users")
	}
	return users, nil
}

func (r *userMongoRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) FindByPhone(ctx context.Context, phoneNumber string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"phoneNumber": phoneNumber})
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translateMongoErr(err, "find user")
	}
	return &u, nil
}

// リセットコードが空なら$unsetで消す
func (r *userMongoRepository) Update(ctx context.Context, user *model.User) error {
	set := bson.M{
		"fullName":     user.FullName,
		"phoneNumber":  user.PhoneNumber,
		"passwordHash": user.PasswordHash,
		"updatedAt":    user.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if user.HasResetCode() {
		set["resetCodeHash"] = user.ResetCodeHash
		set["resetCodeExpiresAt"] = *user.ResetCodeExpiresAt
	} else {
		update["$unset"] = bson.M{"resetCodeHash": "", "resetCodeExpiresAt": ""}
	}

	res, err := r.coll.UpdateByID(ctx, user.ID, update)
	if err != nil {
		return translateMongoErr(err, "update user")
	}
	if res.MatchedCount == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

func (r *userMongoRepository) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"resetCodeExpiresAt": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{"resetCodeHash": "", "resetCodeExpiresAt": ""}},
	)
	if err != nil {
		return 0, translateMongoErr(err, "clear expired reset codes")
	}
	return res.ModifiedCount, nil
}
