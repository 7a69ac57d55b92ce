package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"storefront-checkout/internal/model"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	Upsert(ctx context.Context, product *model.Product) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) Upsert(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}
