package repository

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"lens-catalog/internal/domain"

	"github.com/google/uuid"
)

// productColumns is the select list shared by every product query
const productColumns = `id, model, brand, type, focal_length, max_aperture, mount, weight, has_stabilization, active`

// storedBool reads a boolean column however the store encodes it:
// native booleans, integers 0/1 (SQLite) or their text forms.
type storedBool bool

// Scan implements sql.Scanner
func (b *storedBool) Scan(src interface{}) error {
	switch v := src.(type) {
	case bool:
		*b = storedBool(v)
	case int64:
		*b = v != 0
	case int32:
		*b = v != 0
	case int:
		*b = v != 0
	case float64:
		*b = v != 0
	case []byte:
		return b.Scan(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes", "on":
			*b = true
		case "0", "f", "false", "n", "no", "off":
			*b = false
		default:
			return fmt.Errorf("cannot read %q as boolean", v)
		}
	case nil:
		return fmt.Errorf("cannot read NULL as boolean")
	default:
		return fmt.Errorf("cannot read %T as boolean", src)
	}
	return nil
}

// Value implements driver.Valuer
func (b storedBool) Value() (driver.Value, error) {
	return bool(b), nil
}

// productRow is the storage shape of a product before normalization
type productRow struct {
	ID               string     `gorm:"column:id;primaryKey"`
	Model            string     `gorm:"column:model"`
	Brand            string     `gorm:"column:brand"`
	Type             string     `gorm:"column:type"`
	FocalLength      string     `gorm:"column:focal_length"`
	MaxAperture      string     `gorm:"column:max_aperture"`
	Mount            string     `gorm:"column:mount"`
	Weight           int        `gorm:"column:weight"`
	HasStabilization storedBool `gorm:"column:has_stabilization"`
	Active           storedBool `gorm:"column:active"`
}

// TableName binds the row to the products table for GORM
func (productRow) TableName() string {
	return "products"
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *productRow) scan(s rowScanner) error {
	return s.Scan(
		&r.ID,
		&r.Model,
		&r.Brand,
		&r.Type,
		&r.FocalLength,
		&r.MaxAperture,
		&r.Mount,
		&r.Weight,
		&r.HasStabilization,
		&r.Active,
	)
}

func rowFromProduct(p *domain.Product) productRow {
	return productRow{
		ID:               p.ID.String(),
		Model:            p.Model,
		Brand:            p.Brand,
		Type:             string(p.Type),
		FocalLength:      p.FocalLength,
		MaxAperture:      p.MaxAperture,
		Mount:            p.Mount,
		Weight:           p.Weight,
		HasStabilization: storedBool(p.HasStabilization),
		Active:           storedBool(p.Active),
	}
}

// toDomain normalizes a stored row into a product
func (r productRow) toDomain() (*domain.Product, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored product id %q: %w", r.ID, err)
	}
	return &domain.Product{
		ID:               id,
		Model:            r.Model,
		Brand:            r.Brand,
		Type:             domain.LensType(r.Type),
		FocalLength:      r.FocalLength,
		MaxAperture:      r.MaxAperture,
		Mount:            r.Mount,
		Weight:           r.Weight,
		HasStabilization: bool(r.HasStabilization),
		Active:           bool(r.Active),
	}, nil
}

// patchColumns maps the present fields of an update to column assignments,
// in a stable order
func patchColumns(u domain.UpdateProductInput) ([]string, []interface{}) {
	var cols []string
	var vals []interface{}

	add := func(col string, v interface{}) {
		cols = append(cols, col)
		vals = append(vals, v)
	}

	if u.Model != nil {
		add("model", *u.Model)
	}
	if u.Brand != nil {
		add("brand", *u.Brand)
	}
	if u.Type != nil {
		add("type", string(*u.Type))
	}
	if u.FocalLength != nil {
		add("focal_length", *u.FocalLength)
	}
	if u.MaxAperture != nil {
		add("max_aperture", *u.MaxAperture)
	}
	if u.Mount != nil {
		add("mount", *u.Mount)
	}
	if u.Weight != nil {
		add("weight", *u.Weight)
	}
	if u.HasStabilization != nil {
		add("has_stabilization", *u.HasStabilization)
	}
	if u.Active != nil {
		add("active", *u.Active)
	}

	return cols, vals
}

// likePattern wraps term for a substring LIKE match, escaping wildcards
// with backslash
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
