package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ortus/internal/domain/model"
	repo "ortus/internal/repository"
	"ortus/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: UserRepository
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	args := m.Called(ctx, phone)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	panic("not used in usecase tests")
}

// =====================
// Mock: ProductRepository
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) Update(ctx context.Context, id string, upd repo.ProductUpdate) (model.Product, error) {
	args := m.Called(ctx, id, upd)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// =====================
// Mock: InventoryRepository
// =====================

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID string, size string, qty int64) (bool, error) {
	args := m.Called(ctx, productID, size, qty)
	return args.Bool(0), args.Error(1)
}

// =====================
// Mock: OrderRepository
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, id string) (model.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

func (m *OrderRepoMock) MarkDeliveryRequested(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// =====================
// Mock: AuditLogRepository
// =====================

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// Mock: TxManager（fnをそのまま実行する）
// =====================

type TxReposMock struct {
	OrdersRepo    repo.OrderRepository
	InventoryRepo repo.InventoryRepository
	ProductsRepo  repo.ProductRepository
	AuditRepo     repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository        { return r.OrdersRepo }
func (r *TxReposMock) Inventory() repo.InventoryRepository { return r.InventoryRepo }
func (r *TxReposMock) Products() repo.ProductRepository    { return r.ProductsRepo }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository  { return r.AuditRepo }

type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(ctx context.Context, r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(ctx, m.Repos)
}

// =====================
// Fakes: ports
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// 連番のUUIDを返す
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", g.n)
}

type fixedNumbers struct{ number string }

func (f fixedNumbers) NextOrderNumber() string { return f.number }

type TokenIssuerMock struct{ mock.Mock }

func (m *TokenIssuerMock) Issue(userID string, role model.Role, now time.Time) (string, error) {
	args := m.Called(userID, role, now)
	return args.String(0), args.Error(1)
}

type ResetSenderMock struct{ mock.Mock }

func (m *ResetSenderMock) SendResetCode(ctx context.Context, recipient, code, displayName string) error {
	args := m.Called(ctx, recipient, code, displayName)
	return args.Error(0)
}

type UploaderMock struct{ mock.Mock }

func (m *UploaderMock) Upload(ctx context.Context, files []model.ImageFile) ([]string, error) {
	args := m.Called(ctx, files)
	urls, _ := args.Get(0).([]string)
	return urls, args.Error(1)
}

func (m *UploaderMock) Remove(ctx context.Context, urls []string) {
	m.Called(ctx, urls)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, category string) ([]model.Product, bool) {
	args := m.Called(ctx, category)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Bool(1)
}

func (m *CacheMock) Set(ctx context.Context, category string, products []model.Product) {
	m.Called(ctx, category, products)
}

func (m *CacheMock) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

// =====================
// Helpers
// =====================

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	adminActor    = usecase.Actor{UserID: "00000000-0000-4000-8000-00000000aaaa", Role: model.RoleAdmin}
	customerActor = usecase.Actor{UserID: "00000000-0000-4000-8000-00000000cccc", Role: model.RoleCustomer}
)

func assertKind(t assert.TestingT, err error, kind usecase.ErrorKind, msgContains string) {
	ue, ok := usecase.AsError(err)
	if !assert.True(t, ok, "expected usecase.Error, got %v", err) {
		return
	}
	assert.Equal(t, kind, ue.Kind)
	if msgContains != "" {
		assert.Contains(t, ue.Message, msgContains)
	}
}
