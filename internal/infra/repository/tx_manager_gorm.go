package repository

import (
	"context"

	repo "ortus/internal/repository"

	"gorm.io/gorm"
)

type txRepos struct {
	orders    repo.OrderRepository
	inventory repo.InventoryRepository
	products  repo.ProductRepository
	auditLogs repo.AuditLogRepository
}

func (r *txRepos) Orders() repo.OrderRepository        { return r.orders }
func (r *txRepos) Inventory() repo.InventoryRepository { return r.inventory }
func (r *txRepos) Products() repo.ProductRepository    { return r.products }
func (r *txRepos) AuditLogs() repo.AuditLogRepository  { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがerrorを返したらrollback
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(ctx context.Context, r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txRepos{
			orders:    NewOrderGormRepository(tx),
			inventory: NewInventoryGormRepository(tx),
			products:  NewProductGormRepository(tx),
			auditLogs: NewAuditLogGormRepository(tx),
		}
		return fn(ctx, r)
	})
}

// NewGormStores はpostgres用の実装一式を組み立てる
func NewGormStores(db *gorm.DB) repo.Stores {
	return repo.Stores{
		Users:     NewUserGormRepository(db),
		Products:  NewProductGormRepository(db),
		Inventory: NewInventoryGormRepository(db),
		Orders:    NewOrderGormRepository(db),
		AuditLogs: NewAuditLogGormRepository(db),
		Tx:        NewTxManagerGorm(db),
	}
}
