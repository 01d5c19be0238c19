package validation

import (
	"math"
	"net/url"
	"strconv"

	"lens-catalog/internal/domain"

	"github.com/google/uuid"
)

// ParseID validates a path identifier. Only the canonical hyphenated UUID
// form is accepted.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || len(raw) != 36 {
		return uuid.Nil, Errors{{Field: "id", Message: "Invalid product id"}}
	}
	return id, nil
}

// ParseFilter reads the optional model and brand search terms.
// Missing or empty terms do not filter.
func ParseFilter(query url.Values) domain.ProductFilter {
	var f domain.ProductFilter
	if model := query.Get("model"); model != "" {
		f.Model = &model
	}
	if brand := query.Get("brand"); brand != "" {
		f.Brand = &brand
	}
	return f
}

// ParsePagination reads page and limit, falling back to the defaults when
// absent. Non-numeric or non-positive values are rejected; limit is capped at
// maxLimit when maxLimit is positive.
func ParsePagination(query url.Values, maxLimit int) (domain.Pagination, error) {
	p := domain.Pagination{Page: domain.DefaultPage, Limit: domain.DefaultLimit}
	var errs Errors

	if page, msg := parsePositive(query, "page", domain.DefaultPage); msg != "" {
		errs = append(errs, FieldError{Field: "page", Message: msg})
	} else {
		p.Page = page
	}

	if limit, msg := parsePositive(query, "limit", domain.DefaultLimit); msg != "" {
		errs = append(errs, FieldError{Field: "limit", Message: msg})
	} else {
		p.Limit = limit
	}

	if len(errs) > 0 {
		return domain.Pagination{}, errs
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p, nil
}

func parsePositive(query url.Values, key string, def int) (int, string) {
	raw := query.Get(key)
	if raw == "" {
		return def, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, key + " must be a number"
	}
	if n < 1 {
		return 0, key + " must be at least 1"
	}
	if n > math.MaxInt32 {
		return 0, key + " must be at most " + strconv.Itoa(math.MaxInt32)
	}
	return n, ""
}
