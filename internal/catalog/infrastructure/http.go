package infrastructure

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-commerce/internal/catalog/application"
	"go-commerce/internal/catalog/domain"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/middleware"
)

// HTTPHandler handles HTTP requests for products
type HTTPHandler struct {
	useCase *application.ProductUseCase
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.ProductUseCase) *HTTPHandler {
	return &HTTPHandler{useCase: useCase}
}

// RegisterRoutes registers the product routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("/:id", h.GetProduct)
		products.POST("/:id/restock", h.Restock)
	}
}

// CreateProductRequest is the request body for creating a product
type CreateProductRequest struct {
	SKU       string `json:"sku" binding:"required"`
	Name      string `json:"name" binding:"required"`
	UnitPrice int64  `json:"unitPrice" binding:"gte=0"`
	Stock     int64  `json:"stock" binding:"gte=0"`
}

// RestockRequest is the request body for adding stock
type RestockRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// ProductResponse is the response body for product operations
type ProductResponse struct {
	ID        string `json:"id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Stock     int64  `json:"stock"`
	CreatedAt string `json:"created_at"`
}

func toResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

// CreateProduct handles POST /products
func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	output, err := h.useCase.CreateProduct(c.Request.Context(), application.CreateProductInput{
		SKU:       req.SKU,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Stock:     req.Stock,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":     toResponse(output.Product),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// GetProduct handles GET /products/:id, where id may also be a SKU
func (h *HTTPHandler) GetProduct(c *gin.Context) {
	output, err := h.useCase.GetProduct(c.Request.Context(), application.GetProductInput{
		Ref: c.Param("id"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     toResponse(output.Product),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// Restock handles POST /products/:id/restock
func (h *HTTPHandler) Restock(c *gin.Context) {
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	output, err := h.useCase.Restock(c.Request.Context(), application.RestockInput{
		ID:       c.Param("id"),
		Quantity: req.Quantity,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     toResponse(output.Product),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}
