package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"bazar/internal/middleware"
	"bazar/internal/repository"
	"bazar/internal/service"
	"bazar/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxSaleBody int64 = 1 << 20

// CreateSaleRequest is the create-sale payload. Fields stay untyped so that
// validation can report wrong types with its own messages.
type CreateSaleRequest struct {
	ProductID interface{} `json:"productId"`
	Quantity  interface{} `json:"quantity"`
	Total     interface{} `json:"total"`
}

// SaleHandler handles HTTP requests for sale operations
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// RegisterRoutes registers all sale routes
func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/vendas", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})
}

// Create handles sale registration
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaleBody))
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Debug("Invalid sale body", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sale, err := h.saleService.Create(r.Context(), service.CreateSaleInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Total:     req.Total,
	})
	if err != nil {
		var fieldErr *validation.FieldError
		switch {
		case errors.As(err, &fieldErr):
			h.logger.Debug("Sale validation failed", zap.String("field", fieldErr.Field))
			middleware.RespondWithError(w, http.StatusBadRequest, fieldErr.Message)
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrProductInactive):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to create sale", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create sale")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, sale)
}

// List handles paginated sale listing
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := h.saleService.List(r.Context(), service.ParsePaging(query.Get("page"), query.Get("limit")))
	if err != nil {
		h.logger.Error("Failed to list sales", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list sales")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}
