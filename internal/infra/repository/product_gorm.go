package repository

import (
	"context"
	"time"

	"ortus/internal/domain/model"
	repo "ortus/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 新しい順。ActiveOnlyなら論理削除済みを除く。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{}).Preload("Sizes", orderSizes)

	if q.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	var products []model.Product
	if err := tx.Order("created_at desc").Order("id desc").Find(&products).Error; err != nil {
		return nil, translateGormErr(err, "list products")
	}
	return products, nil
}

// IDで商品を取得（is_activeは見ない）
func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Sizes", orderSizes).Where("id = ?", id).First(&p).Error
	if err != nil {
		return model.Product{}, translateGormErr(err, "find product")
	}
	return p, nil
}

// 商品の作成（サイズも一緒に入る）
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) error {
	return translateGormErr(r.db.WithContext(ctx).Create(&p).Error, "create product")
}

// 部分更新。サイズは指定されたときだけ入れ替える。
func (r *ProductGormRepository) Update(ctx context.Context, id string, upd repo.ProductUpdate) (model.Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//serializer(jsonb)を効かせるため構造体+Selectで更新する
		p := model.Product{UpdatedAt: upd.UpdatedAt}
		cols := []string{"updated_at"}
		if upd.Name != nil {
			p.Name = *upd.Name
			cols = append(cols, "name")
		}
		if upd.Description != nil {
			p.Description = *upd.Description
			cols = append(cols, "description")
		}
		if upd.Category != nil {
			p.Category = *upd.Category
			cols = append(cols, "category")
		}
		if upd.Price != nil {
			p.Price = *upd.Price
			cols = append(cols, "price")
		}
		if upd.Images != nil {
			p.Images = *upd.Images
			cols = append(cols, "images")
		}
		if upd.IsActive != nil {
			p.IsActive = *upd.IsActive
			cols = append(cols, "is_active")
		}

		res := tx.Model(&model.Product{}).Where("id = ?", id).Select(cols).Updates(&p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		if upd.Sizes != nil {
			if err := tx.Where("product_id = ?", id).Delete(&model.ProductSize{}).Error; err != nil {
				return err
			}
			if len(*upd.Sizes) > 0 {
				sizes := make([]model.ProductSize, len(*upd.Sizes))
				for i, s := range *upd.Sizes {
					sizes[i] = model.ProductSize{ProductID: id, Size: s.Size, Stock: s.Stock, Position: i}
				}
				if err := tx.Create(&sizes).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return model.Product{}, translateGormErr(err, "update product")
	}
	return r.FindByID(ctx, id)
}

// 商品削除（is_active=false にするだけ）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": at})
	if res.Error != nil {
		return translateGormErr(res.Error, "soft delete product")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func orderSizes(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}
