package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"lens-catalog/internal/domain"
	"lens-catalog/internal/middleware"
	"lens-catalog/internal/repository"
	"lens-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockProductRepository is an in-memory ProductRepository
type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
	failWith error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]domain.Product),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.products[product.ID]; exists {
		return repository.ErrProductAlreadyExists
	}
	m.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) sorted(keep func(domain.Product) bool) []*domain.Product {
	out := []*domain.Product{}
	for _, p := range m.products {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m *mockProductRepository) List(ctx context.Context, active domain.ActiveFilter, page, pageSize int) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, 0, m.failWith
	}

	all := m.sorted(func(p domain.Product) bool {
		switch active {
		case domain.ActiveOnly:
			return p.Active
		case domain.InactiveOnly:
			return !p.Active
		}
		return true
	})

	offset := (page - 1) * pageSize
	if offset >= len(all) {
		return []*domain.Product{}, len(all), nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *mockProductRepository) Search(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contains := func(field string, term *string) bool {
		return term == nil || strings.Contains(strings.ToLower(field), strings.ToLower(*term))
	}
	return m.sorted(func(p domain.Product) bool {
		return contains(p.Model, filter.Model) && contains(p.Brand, filter.Brand)
	}), nil
}

func (m *mockProductRepository) Update(ctx context.Context, id uuid.UUID, patch domain.UpdateProductInput) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	p = applyPatch(p, patch)
	m.products[id] = p
	return &p, nil
}

func applyPatch(p domain.Product, u domain.UpdateProductInput) domain.Product {
	if u.Model != nil {
		p.Model = *u.Model
	}
	if u.Brand != nil {
		p.Brand = *u.Brand
	}
	if u.Type != nil {
		p.Type = *u.Type
	}
	if u.FocalLength != nil {
		p.FocalLength = *u.FocalLength
	}
	if u.MaxAperture != nil {
		p.MaxAperture = *u.MaxAperture
	}
	if u.Mount != nil {
		p.Mount = *u.Mount
	}
	if u.Weight != nil {
		p.Weight = *u.Weight
	}
	if u.HasStabilization != nil {
		p.HasStabilization = *u.HasStabilization
	}
	if u.Active != nil {
		p.Active = *u.Active
	}
	return p
}

func (m *mockProductRepository) ToggleActive(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	p.Active = !p.Active
	m.products[id] = p
	return &p, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

type testAPI struct {
	t      *testing.T
	router *chi.Mux
	repo   *mockProductRepository
}

func newTestAPI(t *testing.T) *testAPI {
	repo := newMockProductRepository()
	handler := NewProductHandler(service.NewProductService(repo), zap.NewNop(), 100)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return &testAPI{t: t, router: router, repo: repo}
}

func (a *testAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// create posts body and returns the id from the Location header
func (a *testAPI) create(body map[string]interface{}) uuid.UUID {
	a.t.Helper()
	w := a.do(http.MethodPost, "/products", body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	id, err := uuid.Parse(strings.TrimPrefix(w.Header().Get("Location"), "/products/"))
	require.NoError(a.t, err)
	return id
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func lens(model, brand string, active bool) map[string]interface{} {
	return map[string]interface{}{
		"model":            model,
		"brand":            brand,
		"type":             "Prime",
		"focalLength":      "50mm",
		"maxAperture":      "f/1.8",
		"mount":            "EF",
		"weight":           160,
		"hasStabilization": false,
		"active":           active,
	}
}

func TestCreateThenGet(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/products", lens("Canon EF 50mm f/1.8 STM", "Canon", true))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Product created successfully", decode[MessageResponse](t, w).Message)

	id, err := uuid.Parse(strings.TrimPrefix(w.Header().Get("Location"), "/products/"))
	require.NoError(t, err)

	w = api.do(http.MethodGet, "/products/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[ProductResponse](t, w).Product
	assert.Equal(t, &domain.Product{
		ID:          id,
		Model:       "Canon EF 50mm f/1.8 STM",
		Brand:       "Canon",
		Type:        domain.LensTypePrime,
		FocalLength: "50mm",
		MaxAperture: "f/1.8",
		Mount:       "EF",
		Weight:      160,
		Active:      true,
	}, got)
}

func TestCreateRejectsInvalidBodies(t *testing.T) {
	api := newTestAPI(t)

	missing := lens("Nikon Z 24-70mm", "Nikon", true)
	delete(missing, "mount")
	extra := lens("Nikon Z 24-70mm", "Nikon", true)
	extra["price"] = 2300

	for _, body := range []interface{}{missing, extra, "not json"} {
		w := api.do(http.MethodPost, "/products", body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode[middleware.ErrorResponse](t, w)
		assert.Equal(t, "validation failed", resp.Error.Message)
		assert.Contains(t, resp.Error.Details, "validation_errors")
	}

	assert.Empty(t, api.repo.products, "invalid creates must not persist anything")
}

func TestInvalidIDIsBadRequest(t *testing.T) {
	api := newTestAPI(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		w := api.do(method, "/products/not-a-uuid", "{}")
		assert.Equal(t, http.StatusBadRequest, w.Code, method)
	}
}

func TestMissingProductIsNotFound(t *testing.T) {
	api := newTestAPI(t)
	path := "/products/" + uuid.NewString()

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		w := api.do(method, path, "{}")
		require.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, "Product not found", decode[middleware.ErrorResponse](t, w).Error.Message)
	}
}

func TestUpdateIsPartial(t *testing.T) {
	api := newTestAPI(t)
	id := api.create(lens("Sigma 35mm f/1.4 DG HSM Art", "Sigma", true))

	w := api.do(http.MethodPut, "/products/"+id.String(), map[string]interface{}{
		"weight":           665,
		"hasStabilization": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[ProductResponse](t, w).Product
	assert.Equal(t, 665, got.Weight)
	assert.True(t, got.HasStabilization)
	assert.Equal(t, "Sigma 35mm f/1.4 DG HSM Art", got.Model)
	assert.Equal(t, "Sigma", got.Brand)
	assert.True(t, got.Active)

	w = api.do(http.MethodPut, "/products/"+id.String(), "{}")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, got, decode[ProductResponse](t, w).Product)

	w = api.do(http.MethodPut, "/products/"+id.String(), map[string]interface{}{"brand": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleMovesProductBetweenListings(t *testing.T) {
	api := newTestAPI(t)
	id := api.create(lens("Canon EF 50mm f/1.8 STM", "Canon", true))

	active := decode[ProductsResponse](t, api.do(http.MethodGet, "/products/active", nil))
	require.Len(t, active.Products, 1)
	assert.Equal(t, id, active.Products[0].ID)

	w := api.do(http.MethodPatch, "/products/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[ProductResponse](t, w).Product.Active)

	active = decode[ProductsResponse](t, api.do(http.MethodGet, "/products/active", nil))
	assert.Empty(t, active.Products)
	assert.Equal(t, 0, active.Total)

	inactive := decode[ProductsResponse](t, api.do(http.MethodGet, "/products/inactive", nil))
	require.Len(t, inactive.Products, 1)
	assert.Equal(t, id, inactive.Products[0].ID)
}

func TestDeleteThenGet(t *testing.T) {
	api := newTestAPI(t)
	id := api.create(lens("Canon EF 50mm f/1.8 STM", "Canon", true))

	w := api.do(http.MethodDelete, "/products/"+id.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/products/"+id.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/products/"+id.String(), nil).Code)
}

func TestListPagination(t *testing.T) {
	api := newTestAPI(t)
	for _, model := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"} {
		api.create(lens(model, "Brand", true))
	}

	first := decode[ProductsResponse](t, api.do(http.MethodGet, "/products?page=1&limit=5", nil))
	second := decode[ProductsResponse](t, api.do(http.MethodGet, "/products?page=2&limit=5", nil))
	third := decode[ProductsResponse](t, api.do(http.MethodGet, "/products?page=3&limit=5", nil))

	assert.Len(t, first.Products, 5)
	assert.Len(t, second.Products, 5)
	assert.Len(t, third.Products, 2)
	assert.Equal(t, "F", second.Products[0].Model)
	for _, page := range []ProductsResponse{first, second, third} {
		assert.Equal(t, 12, page.Total)
		assert.Equal(t, 5, page.Limit)
	}
	assert.Equal(t, 2, second.Page)

	defaults := decode[ProductsResponse](t, api.do(http.MethodGet, "/products", nil))
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, 9, defaults.Limit)
	assert.Len(t, defaults.Products, 9)

	empty := decode[ProductsResponse](t, api.do(http.MethodGet, "/products?page=10", nil))
	assert.NotNil(t, empty.Products)
	assert.Empty(t, empty.Products)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/products?page=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/products/active?limit=abc", nil).Code)
}

func TestSearch(t *testing.T) {
	api := newTestAPI(t)
	canon := api.create(lens("Canon EF 50mm f/1.8 STM", "Canon", true))
	api.create(lens("Nikon NIKKOR Z 24-70mm f/2.8 S", "Nikon", true))

	w := api.do(http.MethodGet, "/products/search?brand=canon", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[SearchResponse](t, w).Products
	require.Len(t, found, 1)
	assert.Equal(t, canon, found[0].ID)

	all := decode[SearchResponse](t, api.do(http.MethodGet, "/products/search", nil))
	assert.Len(t, all.Products, 2)

	w = api.do(http.MethodGet, "/products/search?brand=canon&model=nikkor", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No products found", decode[middleware.ErrorResponse](t, w).Error.Message)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/products/search?brand=sony", nil).Code)
}

func TestStorageFailureIsInternalError(t *testing.T) {
	api := newTestAPI(t)
	api.repo.failWith = errors.New("pq: connection reset by peer")

	w := api.do(http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decode[middleware.ErrorResponse](t, w)
	assert.Equal(t, "internal server error", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

// Toggling twice restores the starting active flag
func TestProperty_ToggleIsItsOwnInverse(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("toggle twice restores active", prop.ForAll(
		func(active bool) bool {
			api := newTestAPI(t)
			id := api.create(lens("Canon EF 50mm f/1.8 STM", "Canon", active))
			path := "/products/" + id.String()

			first := decode[ProductResponse](t, api.do(http.MethodPatch, path, nil)).Product
			second := decode[ProductResponse](t, api.do(http.MethodPatch, path, nil)).Product

			return first.Active == !active && second.Active == active
		},
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
