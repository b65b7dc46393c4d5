package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	Inventory() InventoryRepository
	Products() ProductRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnに渡るctxはトランザクションに紐づくので、fn内ではそちらを使う。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, r TxRepos) error) error
}

// Stores は選択したドライバの実装一式
type Stores struct {
	Users     UserRepository
	Products  ProductRepository
	Inventory InventoryRepository
	Orders    OrderRepository
	AuditLogs AuditLogRepository
	Tx        TransactionManager
}
