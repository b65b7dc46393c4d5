package repository

import (
	"context"

	"ortus/internal/domain/model"
	"ortus/internal/infra/db"
	repo "ortus/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type auditLogMongoRepository struct {
	coll *mongo.Collection
}

func NewAuditLogMongoRepository(mdb *mongo.Database) repo.AuditLogRepository {
	return &auditLogMongoRepository{coll: mdb.Collection(db.CollAuditLogs)}
}

func (r *auditLogMongoRepository) Create(ctx context.Context, log model.AuditLog) error {
	_, err := r.coll.InsertOne(ctx, log)
	return translateMongoErr(err, "create audit log")
}

func (r *auditLogMongoRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	q := bson.M{}
	if filter.ActorUserID != nil {
		q["actorUserId"] = *filter.ActorUserID
	}
	if filter.Action != nil {
		q["action"] = *filter.Action
	}
	if filter.ResourceType != nil {
		q["resourceType"] = *filter.ResourceType
	}
	if filter.ResourceID != nil {
		q["resourceId"] = *filter.ResourceID
	}
	if created := timeRange(filter.CreatedFrom, filter.CreatedTo); created != nil {
		q["createdAt"] = created
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, translateMongoErr(err, "list audit logs")
	}
	defer cur.Close(ctx)

	logs := []model.AuditLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, translateMongoErr(err, "decode audit logs")
	}
	return logs, nil
}
