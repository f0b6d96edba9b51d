package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ogboNoble001/brightnal-backend/internal/catalog"
	mid "github.com/ogboNoble001/brightnal-backend/internal/middleware"
	"github.com/ogboNoble001/brightnal-backend/pkg/logger"
	"github.com/ogboNoble001/brightnal-backend/prometheus"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ProductHandler maps the product routes onto the catalog service.
type ProductHandler struct {
	svc *catalog.Service
}

// NewProductHandler creates the handler.
func NewProductHandler(svc *catalog.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// productRequest is the create payload. Price and stock stay untyped so
// absent or unparsable values default to zero instead of failing bind.
type productRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	SKU         string   `json:"sku"`
	Price       any      `json:"price"`
	Stock       any      `json:"stock"`
	Description string   `json:"description"`
	Class       string   `json:"class"`
	Sizes       string   `json:"sizes"`
	Colors      string   `json:"colors"`
	Images      []string `json:"images"`
}

// imageEntry is one element of an update's image list: either an
// already-stored URL or a new base64 payload.
type imageEntry struct {
	URL  string `json:"url,omitempty"`
	Data string `json:"data,omitempty"`
}

// productUpdateRequest is the update payload; absent fields leave the
// record unchanged.
type productUpdateRequest struct {
	Name        *string       `json:"name"`
	Category    *string       `json:"category"`
	Brand       *string       `json:"brand"`
	SKU         *string       `json:"sku"`
	Price       any           `json:"price"`
	Stock       any           `json:"stock"`
	Description *string       `json:"description"`
	Class       *string       `json:"class"`
	Sizes       *string       `json:"sizes"`
	Colors      *string       `json:"colors"`
	Images      *[]imageEntry `json:"images"`
}

// List handles retrieving all products, newest first
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	products, err := h.svc.List(c.Request().Context())
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return respondError(c, err)
	}

	prometheus.RecordProductOperation("list")
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"products": products,
	})
}

// Get handles retrieving a single product by ID
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := cast.ToUint(c.Param("id"))

	product, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		log.Warn("Product lookup failed",
			zap.String("product_id", c.Param("id")),
			zap.Error(err))
		return respondError(c, err)
	}

	prometheus.RecordProductOperation("get")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"product": product,
	})
}

// Create handles creating a new product with its image payloads
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req productRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "invalid request data",
		})
	}

	log.Info("Product creation request",
		zap.String("name", req.Name),
		zap.String("sku", req.SKU),
		zap.Int("images", len(req.Images)))

	product, err := h.svc.Create(c.Request().Context(), mid.CallerFromContext(c), catalog.CreateInput{
		Name:        req.Name,
		Category:    req.Category,
		Brand:       req.Brand,
		SKU:         req.SKU,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
		Class:       req.Class,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		Images:      req.Images,
	})
	if err != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.Error(err))
		return respondError(c, err)
	}

	prometheus.RecordProductOperation("create")
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"product": product,
	})
}

// Update handles updating an existing product
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := cast.ToUint(c.Param("id"))

	var req productUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("product_id", c.Param("id")),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "invalid request data",
		})
	}

	in := catalog.UpdateInput{
		Name:        req.Name,
		Category:    req.Category,
		Brand:       req.Brand,
		SKU:         req.SKU,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
		Class:       req.Class,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
	}
	if req.Images != nil {
		entries := make([]catalog.ImageInput, 0, len(*req.Images))
		for _, e := range *req.Images {
			entries = append(entries, catalog.ImageInput{URL: e.URL, Data: e.Data})
		}
		in.Images = &entries
	}

	product, err := h.svc.Update(c.Request().Context(), mid.CallerFromContext(c), id, in)
	if err != nil {
		log.Error("Failed to update product",
			zap.String("product_id", c.Param("id")),
			zap.Error(err))
		return respondError(c, err)
	}

	prometheus.RecordProductOperation("update")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"product": product,
	})
}

// Delete handles deleting a product and reclaiming its images
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	id := cast.ToUint(c.Param("id"))

	if err := h.svc.Delete(c.Request().Context(), mid.CallerFromContext(c), id); err != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", c.Param("id")),
			zap.Error(err))
		return respondError(c, err)
	}

	prometheus.RecordProductOperation("delete")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "product deleted successfully",
	})
}

// respondError maps the catalog error taxonomy onto status codes and
// the response envelope.
func respondError(c echo.Context, err error) error {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": verr.Error(),
		})
	case errors.Is(err, catalog.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"message": "product not found",
		})
	case errors.Is(err, catalog.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{
			"success": false,
			"message": "not allowed to modify this product",
		})
	case errors.Is(err, catalog.ErrSKUConflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"success": false,
			"message": "product with this SKU already exists",
		})
	case errors.Is(err, catalog.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"success": false,
			"message": "service temporarily unavailable",
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "something went wrong",
		})
	}
}
