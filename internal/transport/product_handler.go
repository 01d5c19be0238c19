package transport

import (
	"errors"
	"net/http"

	"lens-catalog/internal/domain"
	"lens-catalog/internal/middleware"
	"lens-catalog/internal/repository"
	"lens-catalog/internal/service"
	"lens-catalog/internal/validation"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies for create and update
const maxBodyBytes = 1 << 20

// ProductsResponse is the body of the paginated listings
type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// SearchResponse is the body of a successful search
type SearchResponse struct {
	Products []*domain.Product `json:"products"`
}

// ProductResponse wraps a single product
type ProductResponse struct {
	Product *domain.Product `json:"product"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// ProductHandler handles HTTP requests for the lens catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
	maxLimit       int
}

// NewProductHandler creates a new ProductHandler. Page sizes above maxLimit
// are clamped; zero disables the cap.
func NewProductHandler(productService service.ProductService, logger *zap.Logger, maxLimit int) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
		maxLimit:       maxLimit,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Post("/", h.Create)
		r.Get("/active", h.ListActive)
		r.Get("/inactive", h.ListInactive)
		r.Get("/search", h.Search)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetByID)
			r.Put("/", h.Update)
			r.Patch("/", h.ToggleActive)
			r.Delete("/", h.Delete)
		})
	})
}

// ListAll handles GET /products
func (h *ProductHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.ActiveAny)
}

// ListActive handles GET /products/active
func (h *ProductHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.ActiveOnly)
}

// ListInactive handles GET /products/inactive
func (h *ProductHandler) ListInactive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.InactiveOnly)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, active domain.ActiveFilter) {
	log := h.requestLogger(r)

	pagination, err := validation.ParsePagination(r.URL.Query(), h.maxLimit)
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	page, err := h.productService.List(r.Context(), active, pagination)
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{
		Products: page.Products,
		Total:    page.Total,
		Page:     page.Page,
		Limit:    page.Limit,
	})
}

// Search handles GET /products/search
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	filter := validation.ParseFilter(r.URL.Query())

	products, err := h.productService.Search(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	if len(products) == 0 {
		log.Debug("Search matched no products")
		middleware.RespondWithError(w, http.StatusNotFound, "No products found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, SearchResponse{Products: products})
}

// GetByID handles GET /products/{id}
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)

	id, ok := h.parseID(w, r, log)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Product: product})
}

// Create handles POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)

	input, err := validation.DecodeCreate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	product, err := h.productService.Create(r.Context(), input)
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	log.Info("Product created", zap.String("product_id", product.ID.String()))
	w.Header().Set("Location", "/products/"+product.ID.String())
	middleware.RespondWithJSON(w, http.StatusCreated, MessageResponse{Message: "Product created successfully"})
}

// Update handles PUT /products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)

	id, ok := h.parseID(w, r, log)
	if !ok {
		return
	}

	input, err := validation.DecodeUpdate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, input)
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	log.Info("Product updated", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Product: product})
}

// ToggleActive handles PATCH /products/{id}
func (h *ProductHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)

	id, ok := h.parseID(w, r, log)
	if !ok {
		return
	}

	product, err := h.productService.ToggleActive(r.Context(), id)
	if err != nil {
		h.respondWithError(w, log, err)
		return
	}

	log.Info("Product active flag toggled",
		zap.String("product_id", id.String()),
		zap.Bool("active", product.Active),
	)
	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Product: product})
}

// Delete handles DELETE /products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)

	id, ok := h.parseID(w, r, log)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.respondWithError(w, log, err)
		return
	}

	log.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) parseID(w http.ResponseWriter, r *http.Request, log *zap.Logger) (uuid.UUID, bool) {
	id, err := validation.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithError(w, log, err)
		return uuid.Nil, false
	}
	return id, true
}

// respondWithError maps validation, not-found and storage errors onto the
// error envelope. Storage details are logged, never returned.
func (h *ProductHandler) respondWithError(w http.ResponseWriter, log *zap.Logger, err error) {
	if verrs, ok := validation.AsErrors(err); ok {
		log.Debug("Request validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, verrs)
		return
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		log.Info("Product not found")
		middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, repository.ErrProductAlreadyExists):
		log.Warn("Product id collision", zap.Error(err))
		middleware.RespondWithError(w, http.StatusConflict, "product already exists")
	case errors.As(err, &maxBytesErr):
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		log.Error("Product request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *ProductHandler) requestLogger(r *http.Request) *zap.Logger {
	return h.logger.With(
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}
