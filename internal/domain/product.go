package domain

import (
	"github.com/google/uuid"
)

// LensType is the category a lens is listed under
type LensType string

const (
	LensTypePrime     LensType = "Prime"
	LensTypeZoom      LensType = "Zoom"
	LensTypeMacro     LensType = "Macro"
	LensTypeTelephoto LensType = "Telephoto"
	LensTypeWideAngle LensType = "Wide Angle"
	LensTypeFisheye   LensType = "Fisheye"
	LensTypeTiltShift LensType = "Tilt-Shift"
)

// LensTypes lists every accepted lens category
var LensTypes = []LensType{
	LensTypePrime,
	LensTypeZoom,
	LensTypeMacro,
	LensTypeTelephoto,
	LensTypeWideAngle,
	LensTypeFisheye,
	LensTypeTiltShift,
}

// Valid reports whether t is one of LensTypes
func (t LensType) Valid() bool {
	for _, lt := range LensTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// Product represents a camera lens in the catalog
type Product struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Model            string    `json:"model" db:"model"`
	Brand            string    `json:"brand" db:"brand"`
	Type             LensType  `json:"type" db:"type"`
	FocalLength      string    `json:"focalLength" db:"focal_length"`
	MaxAperture      string    `json:"maxAperture" db:"max_aperture"`
	Mount            string    `json:"mount" db:"mount"`
	Weight           int       `json:"weight" db:"weight"`
	HasStabilization bool      `json:"hasStabilization" db:"has_stabilization"`
	Active           bool      `json:"active" db:"active"`
}

// CreateProductInput holds a validated create payload
type CreateProductInput struct {
	Model            string   `json:"model" validate:"required"`
	Brand            string   `json:"brand" validate:"required"`
	Type             LensType `json:"type" validate:"lenstype"`
	FocalLength      string   `json:"focalLength" validate:"required"`
	MaxAperture      string   `json:"maxAperture" validate:"required"`
	Mount            string   `json:"mount" validate:"required"`
	Weight           int      `json:"weight" validate:"gte=1"`
	HasStabilization bool     `json:"hasStabilization"`
	Active           bool     `json:"active"`
}

// NewProduct builds a product from a create payload and a freshly assigned id
func NewProduct(id uuid.UUID, in CreateProductInput) *Product {
	return &Product{
		ID:               id,
		Model:            in.Model,
		Brand:            in.Brand,
		Type:             in.Type,
		FocalLength:      in.FocalLength,
		MaxAperture:      in.MaxAperture,
		Mount:            in.Mount,
		Weight:           in.Weight,
		HasStabilization: in.HasStabilization,
		Active:           in.Active,
	}
}

// UpdateProductInput holds a validated partial update. Nil fields are left untouched.
type UpdateProductInput struct {
	Model            *string   `json:"model,omitempty" validate:"omitempty,min=1"`
	Brand            *string   `json:"brand,omitempty" validate:"omitempty,min=1"`
	Type             *LensType `json:"type,omitempty" validate:"omitempty,lenstype"`
	FocalLength      *string   `json:"focalLength,omitempty" validate:"omitempty,min=1"`
	MaxAperture      *string   `json:"maxAperture,omitempty" validate:"omitempty,min=1"`
	Mount            *string   `json:"mount,omitempty" validate:"omitempty,min=1"`
	Weight           *int      `json:"weight,omitempty" validate:"omitempty,gte=1"`
	HasStabilization *bool     `json:"hasStabilization,omitempty"`
	Active           *bool     `json:"active,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u UpdateProductInput) IsEmpty() bool {
	return u.Model == nil && u.Brand == nil && u.Type == nil &&
		u.FocalLength == nil && u.MaxAperture == nil && u.Mount == nil &&
		u.Weight == nil && u.HasStabilization == nil && u.Active == nil
}

// ProductFilter narrows a search by model and/or brand substrings.
// A nil field does not filter.
type ProductFilter struct {
	Model *string
	Brand *string
}

// ActiveFilter selects which products a listing includes
type ActiveFilter int

const (
	ActiveAny ActiveFilter = iota
	ActiveOnly
	InactiveOnly
)

// Pagination is a 1-based page window
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 9
)

// Offset returns the number of rows to skip before the page starts
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ProductPage is one page of a listing plus the size of the whole listing
type ProductPage struct {
	Products []*Product `json:"products"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}
