package repository

import (
	"context"
	"errors"
	"fmt"

	"lens-catalog/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormProductRepository is a GORM implementation of ProductRepository used
// with the embedded SQLite store. Booleans come back as 0/1 and go through
// storedBool.
type gormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a ProductRepository over a GORM connection
func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &gormProductRepository{db: db}
}

// Create inserts a new product
func (r *gormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	row := rowFromProduct(product)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a single product by its ID
func (r *gormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// List retrieves a page of products and the number matching the filter
func (r *gormProductRepository) List(ctx context.Context, active domain.ActiveFilter, page, pageSize int) ([]*domain.Product, int, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		switch active {
		case domain.ActiveOnly:
			return db.Where("active = ?", true)
		case domain.InactiveOnly:
			return db.Where("active = ?", false)
		default:
			return db
		}
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&productRow{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var rows []productRow
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("model ASC, id ASC").
		Limit(pageSize).
		Offset(domain.Pagination{Page: page, Limit: pageSize}.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	products, err := toDomainList(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, int(total), nil
}

// Search matches model and brand case-insensitively as substrings. Both
// sides are folded with unicode_lower, registered by database.OpenSQLite,
// so non-ASCII letters compare like ASCII ones.
func (r *gormProductRepository) Search(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	db := r.db.WithContext(ctx)
	if filter.Model != nil {
		db = db.Where(`unicode_lower(model) LIKE unicode_lower(?) ESCAPE '\'`, likePattern(*filter.Model))
	}
	if filter.Brand != nil {
		db = db.Where(`unicode_lower(brand) LIKE unicode_lower(?) ESCAPE '\'`, likePattern(*filter.Brand))
	}

	var rows []productRow
	if err := db.Order("model ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return toDomainList(rows)
}

// Update writes the present fields and re-reads the row in one transaction
func (r *gormProductRepository) Update(ctx context.Context, id uuid.UUID, patch domain.UpdateProductInput) (*domain.Product, error) {
	cols, vals := patchColumns(patch)
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	updates := make(map[string]interface{}, len(cols))
	for i, col := range cols {
		updates[col] = vals[i]
	}

	var product *domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&productRow{}).Where("id = ?", id.String()).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}

		var err error
		product, err = r.first(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ToggleActive flips the active flag and returns the stored result
func (r *gormProductRepository) ToggleActive(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product *domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&productRow{}).Where("id = ?", id.String()).Update("active", gorm.Expr("NOT active"))
		if res.Error != nil {
			return fmt.Errorf("failed to toggle product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}

		var err error
		product, err = r.first(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Delete deletes a product by its ID
func (r *gormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id.String())
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *gormProductRepository) first(db *gorm.DB, id uuid.UUID) (*domain.Product, error) {
	var row productRow
	if err := db.Where("id = ?", id.String()).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return row.toDomain()
}

func toDomainList(rows []productRow) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(rows))
	for _, row := range rows {
		product, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}
