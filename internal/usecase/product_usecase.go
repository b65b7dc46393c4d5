package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ortus/internal/domain/model"
	repo "ortus/internal/repository"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var auditJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// 受け付ける画像の拡張子
var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	uploader ImageUploader
	cache    ProductCache
	clock    Clock
	ids      IDGenerator
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	tx repo.TransactionManager,
	uploader ImageUploader,
	cache ProductCache,
	clock Clock,
	ids IDGenerator,
) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		tx:       tx,
		uploader: uploader,
		cache:    cache,
		clock:    clock,
		ids:      ids,
	}
}

type SizeInput struct {
	Size  string `json:"size"`
	Stock int64  `json:"stock"`
}

type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Price       string
	Sizes       []SizeInput
	Images      []model.ImageFile
}

// nilの項目は変更しない。Imagesは1枚以上渡されたときだけ丸ごと置き換える。
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *string
	Sizes       *[]SizeInput
	IsActive    *bool
	Images      []model.ImageFile
}

// List は販売中の商品を新しい順で返す
func (u *ProductUsecase) List(ctx context.Context, category string) ([]model.Product, error) {
	category = strings.TrimSpace(category)

	if cached, ok := u.cache.Get(ctx, category); ok {
		return cached, nil
	}

	items, err := u.products.List(ctx, repo.ProductListQuery{Category: category, ActiveOnly: true})
	if err != nil {
		return nil, unexpected(err)
	}
	if items == nil {
		items = []model.Product{}
	}
	u.cache.Set(ctx, category, items)
	return items, nil
}

// Get は論理削除済みでも返す
func (u *ProductUsecase) Get(ctx context.Context, productID string) (model.Product, error) {
	return u.find(ctx, u.products, productID)
}

func (u *ProductUsecase) Create(ctx context.Context, actor Actor, in CreateProductInput) (model.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Product{}, err
	}

	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" || category == "" || strings.TrimSpace(in.Price) == "" {
		return model.Product{}, NewValidationError("name, category and price are required")
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return model.Product{}, err
	}
	sizes, err := buildSizes(in.Sizes)
	if err != nil {
		return model.Product{}, err
	}
	if err := checkImages(in.Images); err != nil {
		return model.Product{}, err
	}

	urls, err := u.upload(ctx, in.Images)
	if err != nil {
		return model.Product{}, err
	}

	now := u.clock.Now()
	p := model.Product{
		ID:          u.ids.NewID(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Price:       price,
		Images:      urls,
		Sizes:       sizes,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		if err := r.Products().Create(ctx, p); err != nil {
			return unexpected(err)
		}
		return u.audit(ctx, r, actor, model.AuditActionCreateProduct, p.ID, nil, p)
	})
	if err != nil {
		u.discard(ctx, urls)
		return model.Product{}, err
	}

	u.cache.Invalidate(ctx)
	return p, nil
}

func (u *ProductUsecase) Update(ctx context.Context, actor Actor, productID string, in UpdateProductInput) (model.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Product{}, err
	}

	upd := repo.ProductUpdate{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.Product{}, NewValidationError("name must not be empty")
		}
		upd.Name = &name
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		upd.Description = &d
	}
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			return model.Product{}, NewValidationError("category must not be empty")
		}
		upd.Category = &c
	}
	if in.Price != nil {
		price, err := parsePrice(*in.Price)
		if err != nil {
			return model.Product{}, err
		}
		upd.Price = &price
	}
	if in.Sizes != nil {
		sizes, err := buildSizes(*in.Sizes)
		if err != nil {
			return model.Product{}, err
		}
		upd.Sizes = &sizes
	}
	upd.IsActive = in.IsActive
	if err := checkImages(in.Images); err != nil {
		return model.Product{}, err
	}

	//存在確認してからアップロードする
	if _, err := u.find(ctx, u.products, productID); err != nil {
		return model.Product{}, err
	}
	if len(in.Images) > 0 {
		urls, err := u.upload(ctx, in.Images)
		if err != nil {
			return model.Product{}, err
		}
		upd.Images = &urls
	}
	upd.UpdatedAt = u.clock.Now()

	var out model.Product
	err := u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		before, err := u.find(ctx, r.Products(), productID)
		if err != nil {
			return err
		}
		after, err := r.Products().Update(ctx, productID, upd)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("product not found")
			}
			return unexpected(err)
		}
		out = after
		return u.audit(ctx, r, actor, model.AuditActionUpdateProduct, productID, before, after)
	})
	if err != nil {
		//旧画像は注文スナップショットが参照するので消さない
		if upd.Images != nil {
			u.discard(ctx, *upd.Images)
		}
		return model.Product{}, err
	}

	u.cache.Invalidate(ctx)
	return out, nil
}

// Delete は論理削除（isActive=false）
func (u *ProductUsecase) Delete(ctx context.Context, actor Actor, productID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		before, err := u.find(ctx, r.Products(), productID)
		if err != nil {
			return err
		}
		now := u.clock.Now()
		if err := r.Products().SoftDelete(ctx, productID, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("product not found")
			}
			return unexpected(err)
		}
		after := before
		after.IsActive = false
		after.UpdatedAt = now
		return u.audit(ctx, r, actor, model.AuditActionDeleteProduct, productID, before, after)
	})
	if err != nil {
		return err
	}

	u.cache.Invalidate(ctx)
	return nil
}

func (u *ProductUsecase) find(ctx context.Context, products repo.ProductRepository, productID string) (model.Product, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return model.Product{}, NewNotFoundError("product not found")
	}
	p, err := products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, NewNotFoundError("product not found")
		}
		return model.Product{}, unexpected(err)
	}
	return p, nil
}

func (u *ProductUsecase) upload(ctx context.Context, files []model.ImageFile) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	urls, err := u.uploader.Upload(ctx, files)
	if err != nil {
		return nil, unexpected(err)
	}
	return urls, nil
}

// 保存に失敗した商品の画像を消す
func (u *ProductUsecase) discard(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	u.uploader.Remove(context.WithoutCancel(ctx), urls)
}

// 監査ログを同じトランザクションで残す
func (u *ProductUsecase) audit(ctx context.Context, r repo.TxRepos, actor Actor, action model.AuditAction, productID string, before any, after any) error {
	return writeAudit(ctx, r, u.ids, u.clock, actor, action, model.AuditResourceProduct, productID, before, after)
}

func writeAudit(
	ctx context.Context,
	r repo.TxRepos,
	ids IDGenerator,
	clock Clock,
	actor Actor,
	action model.AuditAction,
	resource model.AuditResourceType,
	resourceID string,
	before any,
	after any,
) error {
	beforeJSON, err := toAuditJSON(before)
	if err != nil {
		return unexpected(err)
	}
	afterJSON, err := toAuditJSON(after)
	if err != nil {
		return unexpected(err)
	}
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ID:           ids.NewID(),
		ActorUserID:  actor.UserID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    clock.Now(),
	}); err != nil {
		return unexpected(err)
	}
	return nil
}

func toAuditJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := auditJSON.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, NewValidationError("invalid price")
	}
	//保存される値（小数2桁）で判定する
	price = price.Round(2)
	if !price.IsPositive() {
		return decimal.Decimal{}, NewValidationError("price must be greater than 0")
	}
	return price, nil
}

// ラベル重複なし・在庫0以上。空のリストは許可する。
func buildSizes(in []SizeInput) ([]model.ProductSize, error) {
	out := make([]model.ProductSize, 0, len(in))
	seen := make(map[string]bool, len(in))
	for i, s := range in {
		label := strings.TrimSpace(s.Size)
		if label == "" {
			return nil, NewValidationError("size label is required")
		}
		if seen[label] {
			return nil, NewValidationError(fmt.Sprintf("duplicate size %s", label))
		}
		if s.Stock < 0 {
			return nil, NewValidationError(fmt.Sprintf("stock for size %s must not be negative", label))
		}
		seen[label] = true
		out = append(out, model.ProductSize{Size: label, Stock: s.Stock, Position: i})
	}
	return out, nil
}

func checkImages(files []model.ImageFile) error {
	if len(files) > model.MaxProductImages {
		return NewValidationError(fmt.Sprintf("at most %d images are allowed", model.MaxProductImages))
	}
	for _, f := range files {
		if !allowedImageExt[strings.ToLower(filepath.Ext(f.Filename))] {
			return NewValidationError(fmt.Sprintf("unsupported image type: %s", f.Filename))
		}
	}
	return nil
}
