package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ogboNoble001/brightnal-backend/internal/catalog"
	"github.com/ogboNoble001/brightnal-backend/internal/model"
	"github.com/ogboNoble001/brightnal-backend/prometheus"
	"gorm.io/gorm"
)

// ProductRepository is the GORM-backed record store for products.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates the repository.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Insert persists a new product together with its image rows.
func (r *ProductRepository) Insert(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return translate(err)
	}
	return nil
}

// GetByID returns a product with its images ordered by position.
func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListByRecency returns all products, newest first.
func (r *ProductRepository) ListByRecency(ctx context.Context) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, translate(err)
	}
	return products, nil
}

// Update persists the product fields and replaces its image rows in one
// transaction.
func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images").Save(p).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&model.ProductImage{}).Error; err != nil {
			return translate(err)
		}
		if len(p.Images) == 0 {
			return nil
		}
		for i := range p.Images {
			p.Images[i].ID = 0
			p.Images[i].ProductID = p.ID
		}
		if err := tx.Create(&p.Images).Error; err != nil {
			return translate(err)
		}
		return nil
	})
}

// Delete removes the product row and its image rows. Returns
// catalog.ErrNotFound when the row is already gone.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductImage{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&model.Product{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return catalog.ErrNotFound
		}
		return nil
	})
}

// translate maps GORM errors onto the catalog's error taxonomy.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return catalog.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", catalog.ErrSKUConflict, err)
	default:
		return err
	}
}
