package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"ortus/internal/domain/model"
	repo "ortus/internal/repository"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
)

type AdminOrderUsecase struct {
	orders repo.OrderRepository
	users  repo.UserRepository
	tx     repo.TransactionManager
	clock  Clock
	ids    IDGenerator
}

func NewAdminOrderUsecase(
	orders repo.OrderRepository,
	users repo.UserRepository,
	tx repo.TransactionManager,
	clock Clock,
	ids IDGenerator,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{orders: orders, users: users, tx: tx, clock: clock, ids: ids}
}

// ListAll は全注文を新しい順で返す（顧客情報付き）
func (u *AdminOrderUsecase) ListAll(ctx context.Context, actor Actor) ([]OrderOutput, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return u.list(ctx, repo.OrderListFilter{})
}

// ListDeliveryRequests は配送希望の注文だけ返す
func (u *AdminOrderUsecase) ListDeliveryRequests(ctx context.Context, actor Actor) ([]OrderOutput, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	requested := true
	return u.list(ctx, repo.OrderListFilter{DeliveryRequested: &requested})
}

// UpdateStatus は5つのどれにでも変更できる（遷移の制限はしない）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor Actor, orderID string, status string) (OrderOutput, error) {
	if err := requireAdmin(actor); err != nil {
		return OrderOutput{}, err
	}
	newStatus := model.OrderStatus(strings.TrimSpace(status))
	if !newStatus.IsValid() {
		return OrderOutput{}, NewValidationError("invalid status")
	}
	if _, err := findOrder(ctx, u.orders, orderID); err != nil {
		return OrderOutput{}, err
	}

	var out model.Order
	err := u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		o, err := findOrder(ctx, r.Orders(), orderID)
		if err != nil {
			return err
		}
		beforeStatus := o.Status

		now := u.clock.Now()
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("order not found")
			}
			return unexpected(err)
		}
		o.Status = newStatus
		o.UpdatedAt = now
		out = o

		//監査ログ（UPDATE_ORDER_STATUS）
		return writeAudit(ctx, r, u.ids, u.clock, actor,
			model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			map[string]string{"status": string(beforeStatus)},
			map[string]string{"status": string(newStatus)},
		)
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(out, nil), nil
}

// CSVの1行（注文明細ごと）
type orderCSVRow struct {
	Number       string `csv:"order_number"`
	CreatedAt    string `csv:"created_at"`
	Customer     string `csv:"customer"`
	Phone        string `csv:"phone_number"`
	Status       string `csv:"status"`
	DeliveryType string `csv:"delivery_type"`
	Product      string `csv:"product"`
	Size         string `csv:"size"`
	Quantity     int64  `csv:"quantity"`
	Price        string `csv:"price"`
	LineTotal    string `csv:"line_total"`
	OrderTotal   string `csv:"order_total"`
}

// ExportCSV は期間内の注文をCSVにする。from/toは空なら制限なし。
func (u *AdminOrderUsecase) ExportCSV(ctx context.Context, actor Actor, from, to string) ([]byte, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	f := repo.OrderListFilter{}
	var err error
	if f.From, err = parseBound(from, false); err != nil {
		return nil, err
	}
	if f.To, err = parseBound(to, true); err != nil {
		return nil, err
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, NewValidationError("from must be before to")
	}

	orders, err := u.orders.List(ctx, f)
	if err != nil {
		return nil, unexpected(err)
	}
	customers, err := u.customers(ctx, orders)
	if err != nil {
		return nil, err
	}

	rows := make([]*orderCSVRow, 0, len(orders))
	for _, o := range orders {
		c := customers[o.UserID]
		for _, it := range o.Items {
			rows = append(rows, &orderCSVRow{
				Number:       o.Number,
				CreatedAt:    o.CreatedAt.UTC().Format(time.RFC3339),
				Customer:     c.FullName,
				Phone:        c.PhoneNumber,
				Status:       string(o.Status),
				DeliveryType: string(o.DeliveryType),
				Product:      it.Name,
				Size:         it.Size,
				Quantity:     it.Quantity,
				Price:        it.Price.StringFixed(2),
				LineTotal:    it.Subtotal().StringFixed(2),
				OrderTotal:   o.TotalAmount.StringFixed(2),
			})
		}
	}

	b, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, unexpected(err)
	}
	return b, nil
}

func (u *AdminOrderUsecase) list(ctx context.Context, f repo.OrderListFilter) ([]OrderOutput, error) {
	orders, err := u.orders.List(ctx, f)
	if err != nil {
		return nil, unexpected(err)
	}
	customers, err := u.customers(ctx, orders)
	if err != nil {
		return nil, err
	}
	return toOrderOutputs(orders, customers), nil
}

// 注文のユーザーをまとめて取得する
func (u *AdminOrderUsecase) customers(ctx context.Context, orders []model.Order) (map[string]model.User, error) {
	out := make(map[string]model.User)
	if len(orders) == 0 {
		return out, nil
	}
	seen := make(map[string]bool, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if !seen[o.UserID] {
			seen[o.UserID] = true
			ids = append(ids, o.UserID)
		}
	}
	users, err := u.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, unexpected(err)
	}
	for _, usr := range users {
		out[usr.ID] = usr
	}
	return out, nil
}

// 日付だけ（例: 2024-03-01）のtoはその日の終わりまで含める
func parseBound(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return nil, NewValidationError("invalid date: " + raw)
	}
	if endOfDay && len(raw) <= len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
