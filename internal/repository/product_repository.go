package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lens-catalog/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product with this id already exists")
)

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key
const uniqueViolation = "23505"

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, active domain.ActiveFilter, page, pageSize int) ([]*domain.Product, int, error)
	Search(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.UpdateProductInput) (*domain.Product, error)
	ToggleActive(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a PostgreSQL backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, model, brand, type, focal_length, max_aperture, mount, weight, has_stabilization, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	row := rowFromProduct(product)
	_, err := r.db.ExecContext(
		ctx,
		query,
		row.ID,
		row.Model,
		row.Brand,
		row.Type,
		row.FocalLength,
		row.MaxAperture,
		row.Mount,
		row.Weight,
		row.HasStabilization,
		row.Active,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var row productRow
	if err := row.scan(r.db.QueryRowContext(ctx, query, id.String())); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return row.toDomain()
}

// List retrieves one page of products, optionally filtered by active flag,
// together with the number of products matching the filter
func (r *productRepository) List(ctx context.Context, active domain.ActiveFilter, page, pageSize int) ([]*domain.Product, int, error) {
	whereClause := ""
	args := []interface{}{}

	switch active {
	case domain.ActiveOnly:
		whereClause = "WHERE active = $1"
		args = append(args, true)
	case domain.InactiveOnly:
		whereClause = "WHERE active = $1"
		args = append(args, false)
	}

	offset := domain.Pagination{Page: page, Limit: pageSize}.Offset()

	var (
		total    int
		products []*domain.Product
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
		if err := r.db.QueryRowContext(gCtx, countQuery, args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		query := fmt.Sprintf(`
			SELECT %s
			FROM products
			%s
			ORDER BY model ASC, id ASC
			LIMIT $%d OFFSET $%d
		`, productColumns, whereClause, len(args)+1, len(args)+2)

		pageArgs := append(append([]interface{}{}, args...), pageSize, offset)

		var err error
		products, err = r.queryProducts(gCtx, query, pageArgs...)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Search matches model and brand case-insensitively as substrings. Both
// filters must match when both are set; no filter returns every product.
func (r *productRepository) Search(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	var conditions []string
	var args []interface{}

	if filter.Model != nil {
		args = append(args, likePattern(*filter.Model))
		conditions = append(conditions, fmt.Sprintf("model ILIKE $%d", len(args)))
	}
	if filter.Brand != nil {
		args = append(args, likePattern(*filter.Brand))
		conditions = append(conditions, fmt.Sprintf("brand ILIKE $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY model ASC, id ASC
	`, productColumns, whereClause)

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Update writes only the fields present in patch and returns the stored
// result. The write is a single statement, so concurrent updates to other
// fields are not lost.
func (r *productRepository) Update(ctx context.Context, id uuid.UUID, patch domain.UpdateProductInput) (*domain.Product, error) {
	cols, args := patchColumns(patch)
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, id.String())

	query := fmt.Sprintf(`
		UPDATE products
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(assignments, ", "), len(args), productColumns)

	return r.returningOne(ctx, "update product", query, args...)
}

// ToggleActive flips the active flag in place
func (r *productRepository) ToggleActive(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		UPDATE products
		SET active = NOT active
		WHERE id = $1
		RETURNING ` + productColumns

	return r.returningOne(ctx, "toggle product", query, id.String())
}

// Delete removes a product
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepository) returningOne(ctx context.Context, op, query string, args ...interface{}) (*domain.Product, error) {
	var row productRow
	if err := row.scan(r.db.QueryRowContext(ctx, query, args...)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return row.toDomain()
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		var row productRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		product, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
