package transport

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"bazar/internal/middleware"
	"bazar/internal/repository"
	"bazar/internal/service"
	"bazar/internal/upload"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	// PhotoField is the multipart field carrying the product photo.
	PhotoField = "photo"

	// Form fields travel alongside the photo; this is their allowance on top
	// of the photo size limit.
	formOverhead  int64 = 1 << 20
	maxFormMemory int64 = 8 << 20
)

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	maxPhotoSize   int64
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, maxPhotoSize int64, logger *zap.Logger) *ProductHandler {
	if maxPhotoSize <= 0 {
		maxPhotoSize = upload.DefaultMaxSize
	}
	return &ProductHandler{
		productService: productService,
		maxPhotoSize:   maxPhotoSize,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/produtos", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles a multipart product creation with an optional photo
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPhotoSize+formOverhead)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusBadRequest, upload.ErrTooLarge.Error())
			return
		}
		h.logger.Debug("Invalid product form", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in := service.CreateProductInput{
		Name:        formValue(r.PostForm, "name"),
		Description: formValue(r.PostForm, "description"),
		Price:       formValue(r.PostForm, "price"),
	}

	if r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			if field != PhotoField {
				middleware.RespondWithError(w, http.StatusBadRequest, "unexpected file field: "+field)
				return
			}
			if len(headers) > 1 {
				middleware.RespondWithError(w, http.StatusBadRequest, "only one photo may be uploaded")
				return
			}
		}

		if headers := r.MultipartForm.File[PhotoField]; len(headers) == 1 {
			fh := headers[0]
			file, err := fh.Open()
			if err != nil {
				h.logger.Error("Failed to open uploaded photo", zap.Error(err))
				middleware.RespondWithError(w, http.StatusInternalServerError, "failed to read uploaded photo")
				return
			}
			defer file.Close()

			in.Photo = &upload.Incoming{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Reader:      file,
			}
		}
	}

	product, err := h.productService.Create(r.Context(), in)
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.logger.Debug("Product validation failed", zap.Strings("errors", validationErr.Errors))
			middleware.RespondWithValidationErrors(w, validationErr.Errors)
		case errors.Is(err, upload.ErrRejected):
			h.logger.Debug("Photo rejected", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to create product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// List handles paginated product listing with an optional status filter
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	products, err := h.productService.List(r.Context(), service.ListProductsInput{
		Page:   query.Get("page"),
		Limit:  query.Get("limit"),
		Status: query.Get("status"),
	})
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			middleware.RespondWithValidationErrors(w, validationErr.Errors)
			return
		}
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Delete handles product removal; its sales go with it
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusNotFound, repository.ErrProductNotFound.Error())
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, repository.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("Failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, middleware.MessageResponse{Message: "product deleted successfully"})
}

// formValue returns the first value of key, or nil when the field is absent.
func formValue(form url.Values, key string) interface{} {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return values[0]
}
