package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ortus/internal/domain/model"
	repo "ortus/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	users    repo.UserRepository
	products repo.ProductRepository
	orders   repo.OrderRepository
	tx       repo.TransactionManager
	numbers  OrderNumberGenerator
	cache    ProductCache
	clock    Clock
	ids      IDGenerator
}

// DI
func NewOrderUsecase(
	users repo.UserRepository,
	products repo.ProductRepository,
	orders repo.OrderRepository,
	tx repo.TransactionManager,
	numbers OrderNumberGenerator,
	cache ProductCache,
	clock Clock,
	ids IDGenerator,
) *OrderUsecase {
	return &OrderUsecase{
		users:    users,
		products: products,
		orders:   orders,
		tx:       tx,
		numbers:  numbers,
		cache:    cache,
		clock:    clock,
		ids:      ids,
	}
}

// カートの1行
type OrderItemInput struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

type OrderItemOutput struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Quantity  int64           `json:"quantity"`
	Image     string          `json:"image"`
}

// 注文作成の結果と管理者向け一覧に付ける顧客情報
type CustomerOutput struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

type OrderOutput struct {
	ID                string             `json:"id"`
	Number            string             `json:"number"`
	UserID            string             `json:"userId"`
	Items             []OrderItemOutput  `json:"items"`
	TotalAmount       decimal.Decimal    `json:"totalAmount"`
	Status            model.OrderStatus  `json:"status"`
	DeliveryType      model.DeliveryType `json:"deliveryType"`
	DeliveryRequested bool               `json:"deliveryRequested"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	Customer          *CustomerOutput    `json:"customer,omitempty"`
}

// 商品×サイズで数量をまとめるキー
type stockKey struct {
	productID string
	size      string
}

// CreateOrder は在庫を確認してから、1トランザクションで在庫減算と注文作成を行う
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID string, items []OrderItemInput) (OrderOutput, error) {
	if len(items) == 0 {
		return OrderOutput{}, NewValidationError("cart is empty")
	}

	//入力チェック
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" || strings.TrimSpace(it.Size) == "" || it.Quantity == 0 {
			return OrderOutput{}, NewValidationError("invalid item data")
		}
		if it.Quantity < 0 {
			return OrderOutput{}, NewValidationError("quantity must be greater than 0")
		}
	}

	customer, err := u.findCustomer(ctx, userID)
	if err != nil {
		return OrderOutput{}, err
	}

	//在庫確認（同じ商品×サイズは合計で見る）
	products := make(map[string]model.Product)
	requested := make(map[stockKey]int64)
	lines := make([]model.OrderItem, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		size := strings.TrimSpace(it.Size)

		p, ok := products[pid]
		if !ok {
			found, err := u.findProduct(ctx, pid)
			if err != nil {
				return OrderOutput{}, err
			}
			p = found
			products[pid] = p
		}
		if !p.IsActive {
			return OrderOutput{}, NewValidationError(fmt.Sprintf("product %s is not available", p.Name))
		}
		ps, ok := p.FindSize(size)
		if !ok {
			return OrderOutput{}, NewValidationError(fmt.Sprintf("size %s is not available for %s", size, p.Name))
		}

		key := stockKey{productID: pid, size: size}
		requested[key] += it.Quantity
		if requested[key] > ps.Stock {
			return OrderOutput{}, insufficientStock(p.Name, size, ps.Stock, requested[key])
		}

		//スナップショット
		line := model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Size:      size,
			Quantity:  it.Quantity,
			Image:     p.FirstImage(),
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}

	now := u.clock.Now()
	order := &model.Order{
		ID:                u.ids.NewID(),
		Number:            u.numbers.NextOrderNumber(),
		UserID:            userID,
		Items:             lines,
		TotalAmount:       total,
		Status:            model.OrderStatusPending,
		DeliveryType:      model.DeliveryTypePickup,
		DeliveryRequested: false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	//確定：在庫減算と注文作成は全部成功か全部取り消し
	err = u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		for _, line := range order.Items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, line.ProductID, line.Size, line.Quantity)
			if err != nil {
				return unexpected(err)
			}
			if !ok {
				//確認後に他の注文で在庫が減った
				return u.lateShortage(ctx, r, line)
			}
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			return unexpected(err)
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.cache.Invalidate(ctx)
	return toOrderOutput(*order, customer), nil
}

func (u *OrderUsecase) findCustomer(ctx context.Context, userID string) (*CustomerOutput, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, unexpected(err)
	}
	return &CustomerOutput{FullName: user.FullName, PhoneNumber: user.PhoneNumber}, nil
}

// ListMyOrders は自分の注文を新しい順で返す
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string) ([]OrderOutput, error) {
	orders, err := u.orders.List(ctx, repo.OrderListFilter{UserID: userID})
	if err != nil {
		return nil, unexpected(err)
	}
	return toOrderOutputs(orders, nil), nil
}

// RequestDelivery は本人の注文だけ配送希望に切り替える
func (u *OrderUsecase) RequestDelivery(ctx context.Context, userID, orderID string) (OrderOutput, error) {
	order, err := findOrder(ctx, u.orders, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	if order.UserID != userID {
		return OrderOutput{}, NewAuthorizationError("not your order")
	}

	now := u.clock.Now()
	if err := u.orders.MarkDeliveryRequested(ctx, orderID, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, NewNotFoundError("order not found")
		}
		return OrderOutput{}, unexpected(err)
	}
	order.DeliveryType = model.DeliveryTypeDelivery
	order.DeliveryRequested = true
	order.UpdatedAt = now
	return toOrderOutput(order, nil), nil
}

func (u *OrderUsecase) findProduct(ctx context.Context, productID string) (model.Product, error) {
	notFound := NewNotFoundError(fmt.Sprintf("product %s not found", productID))
	if _, err := uuid.Parse(productID); err != nil {
		return model.Product{}, notFound
	}
	p, err := u.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, notFound
		}
		return model.Product{}, unexpected(err)
	}
	return p, nil
}

// 減算に失敗した行の現在の在庫を読み直してメッセージにする
func (u *OrderUsecase) lateShortage(ctx context.Context, r repo.TxRepos, line model.OrderItem) error {
	var available int64
	if p, err := r.Products().FindByID(ctx, line.ProductID); err == nil {
		if ps, ok := p.FindSize(line.Size); ok {
			available = ps.Stock
		}
	}
	return insufficientStock(line.Name, line.Size, available, line.Quantity)
}

func insufficientStock(name, size string, available, requested int64) error {
	return NewValidationError(fmt.Sprintf(
		"insufficient stock for %s (size %s): available %d, requested %d",
		name, size, available, requested,
	))
}

func findOrder(ctx context.Context, orders repo.OrderRepository, orderID string) (model.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return model.Order{}, NewNotFoundError("order not found")
	}
	o, err := orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, NewNotFoundError("order not found")
		}
		return model.Order{}, unexpected(err)
	}
	return o, nil
}

func toOrderOutput(o model.Order, customer *CustomerOutput) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}
	return OrderOutput{
		ID:                o.ID,
		Number:            o.Number,
		UserID:            o.UserID,
		Items:             items,
		TotalAmount:       o.TotalAmount,
		Status:            o.Status,
		DeliveryType:      o.DeliveryType,
		DeliveryRequested: o.DeliveryRequested,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Customer:          customer,
	}
}

// customersがnilなら顧客情報は付けない
func toOrderOutputs(orders []model.Order, customers map[string]model.User) []OrderOutput {
	out := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		var c *CustomerOutput
		if customers != nil {
			if u, ok := customers[o.UserID]; ok {
				c = &CustomerOutput{FullName: u.FullName, PhoneNumber: u.PhoneNumber}
			}
		}
		out = append(out, toOrderOutput(o, c))
	}
	return out
}
