package repository

import (
	"context"

	repo "ortus/internal/repository"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// セッションはctx経由で伝わるので、repoはそのまま使い回せる
type TxManagerMongo struct {
	client *mongo.Client
	repos  *txRepos
}

func NewTxManagerMongo(client *mongo.Client, mdb *mongo.Database) *TxManagerMongo {
	return &TxManagerMongo{
		client: client,
		repos: &txRepos{
			orders:    NewOrderMongoRepository(mdb),
			inventory: NewInventoryMongoRepository(mdb),
			products:  NewProductMongoRepository(mdb),
			auditLogs: NewAuditLogMongoRepository(mdb),
		},
	}
}

// fnがerrorを返したらabort
func (tm *TxManagerMongo) WithinTx(ctx context.Context, fn func(ctx context.Context, r repo.TxRepos) error) error {
	sess, err := tm.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "start mongo session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, tm.repos)
	})
	return err
}

// NewMongoStores はmongo用の実装一式を組み立てる
func NewMongoStores(client *mongo.Client, mdb *mongo.Database) repo.Stores {
	return repo.Stores{
		Users:     NewUserMongoRepository(mdb),
		Products:  NewProductMongoRepository(mdb),
		Inventory: NewInventoryMongoRepository(mdb),
		Orders:    NewOrderMongoRepository(mdb),
		AuditLogs: NewAuditLogMongoRepository(mdb),
		Tx:        NewTxManagerMongo(client, mdb),
	}
}
