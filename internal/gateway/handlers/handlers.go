package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogv1 "go-commerce/api/catalog/v1"
	ordersv1 "go-commerce/api/orders/v1"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/middleware"
)

// Handler handles all gateway HTTP requests
type Handler struct {
	catalogClient catalogv1.CatalogServiceClient
	ordersClient  ordersv1.OrderServiceClient
}

// NewHandler creates a new gateway handler
func NewHandler(catalogClient catalogv1.CatalogServiceClient, ordersClient ordersv1.OrderServiceClient) *Handler {
	return &Handler{
		catalogClient: catalogClient,
		ordersClient:  ordersClient,
	}
}

// RegisterRoutes registers all gateway routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.GET("/:id", h.GetProduct)
	}

	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/transitions", h.RequestTransition)
		orders.POST("/:id/payment", h.UpdatePayment)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}

// =============================================================================
// Request/Response DTOs
// =============================================================================

// LineItemRequest is one line of a checkout
type LineItemRequest struct {
	ProductRef string `json:"productRef" binding:"required" example:"prd_01HZX3"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0" example:"2"`
	UnitPrice  int64  `json:"unitPrice" binding:"gte=0" example:"1500"`
}

// AddressRequest is a shipping address
type AddressRequest struct {
	Name       string `json:"name" example:"Ada Lovelace"`
	Line1      string `json:"line1" binding:"required" example:"12 Analytical Row"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required" example:"London"`
	PostalCode string `json:"postalCode" example:"N1 9GU"`
	Country    string `json:"country" binding:"required" example:"GB"`
	Phone      string `json:"phone"`
}

// CreateOrderRequest represents the request body for placing an order
type CreateOrderRequest struct {
	CustomerID    string            `json:"customerId" example:"cus_42"`
	PaymentMethod string            `json:"paymentMethod" binding:"required,oneof=COD CARD BANK" example:"COD"`
	Items         []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Address       AddressRequest    `json:"address" binding:"required"`
	Shipping      int64             `json:"shipping" binding:"gte=0" example:"500"`
	Discount      int64             `json:"discount" binding:"gte=0" example:"0"`
}

// TransitionRequest asks for a move on one state dimension
type TransitionRequest struct {
	Dimension string            `json:"dimension" binding:"required,oneof=order delivery payment" example:"delivery"`
	Target    string            `json:"target" binding:"required" example:"SHIPPED"`
	Evidence  ordersv1.Evidence `json:"evidence"`
}

// PaymentRequest reports a payment status
type PaymentRequest struct {
	Status     string `json:"status" binding:"required" example:"PAID"`
	GatewayRef string `json:"gatewayRef" example:"ch_3PZ"`
}

// CancelRequest carries an optional cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" example:"changed my mind"`
}

// SuccessResponse is the standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	TraceID string      `json:"trace_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	TraceID string    `json:"trace_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ErrorBody contains error details
type ErrorBody struct {
	Code    string      `json:"code" example:"VALIDATION_ERROR"`
	Message string      `json:"message" example:"Invalid request body"`
	Details interface{} `json:"details,omitempty"`
}

// upstream keeps errors the client interceptor already translated
func upstream(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return errors.FromGRPCStatus(err)
}

func (h *Handler) ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:    data,
		TraceID: c.GetString(middleware.TraceIDKey),
	})
}

// =============================================================================
// Catalog Handlers
// =============================================================================

// GetProduct retrieves a product by ID or SKU
// @Summary Get a product
// @Description Retrieve catalog details and current stock of a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID or SKU"
// @Success 200 {object} SuccessResponse{data=catalogv1.Product} "Product retrieved successfully"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	resp, err := h.catalogClient.GetProduct(c.Request.Context(), &catalogv1.GetProductRequest{ID: c.Param("id")})
	if err != nil {
		c.Error(upstream(err))
		return
	}
	h.ok(c, http.StatusOK, resp)
}

// =============================================================================
// Orders Handlers
// =============================================================================

// CreateOrder places a new order
// @Summary Place an order
// @Description Price the cart against the catalog, reserve stock for COD and BANK orders and open the order
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Checkout request"
// @Success 201 {object} SuccessResponse{data=ordersv1.Order} "Order created successfully"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 409 {object} ErrorResponse "Insufficient stock"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	items := make([]ordersv1.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = ordersv1.LineItem{
			ProductRef: item.ProductRef,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
	}

	resp, err := h.ordersClient.CreateOrder(c.Request.Context(), &ordersv1.CreateOrderRequest{
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		Address:       ordersv1.Address(req.Address),
		Shipping:      req.Shipping,
		Discount:      req.Discount,
	})
	if err != nil {
		c.Error(upstream(err))
		return
	}

	h.ok(c, http.StatusCreated, resp)
}

// GetOrder retrieves an order by ID
// @Summary Get an order by ID
// @Description Retrieve the three state dimensions and the display status of an order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} SuccessResponse{data=ordersv1.Order} "Order retrieved successfully"
// @Failure 404 {object} ErrorResponse "Order not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	resp, err := h.ordersClient.GetOrder(c.Request.Context(), &ordersv1.GetOrderRequest{ID: c.Param("id")})
	if err != nil {
		c.Error(upstream(err))
		return
	}
	h.ok(c, http.StatusOK, resp)
}

// RequestTransition moves one state dimension of an order
// @Summary Request a state transition
// @Description Move the order, delivery or payment dimension; delivery proof and failure reasons travel as evidence
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body TransitionRequest true "Transition request"
// @Success 200 {object} SuccessResponse{data=ordersv1.Order} "Transition applied or already in place"
// @Failure 400 {object} ErrorResponse "Illegal transition or missing evidence"
// @Failure 404 {object} ErrorResponse "Order not found"
// @Failure 409 {object} ErrorResponse "Payment not adequate for dispatch"
// @Router /api/v1/orders/{id}/transitions [post]
func (h *Handler) RequestTransition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	resp, err := h.ordersClient.RequestTransition(c.Request.Context(), &ordersv1.TransitionRequest{
		OrderID:   c.Param("id"),
		Dimension: req.Dimension,
		Target:    req.Target,
		Evidence:  req.Evidence,
	})
	if err != nil {
		c.Error(upstream(err))
		return
	}
	h.ok(c, http.StatusOK, resp)
}

// UpdatePayment reports a payment status for an order
// @Summary Update payment status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body PaymentRequest true "Payment status"
// @Success 200 {object} SuccessResponse{data=ordersv1.Order} "Payment status applied"
// @Failure 400 {object} ErrorResponse "Illegal payment transition"
// @Failure 409 {object} ErrorResponse "Refund blocked while the parcel is in transit"
// @Router /api/v1/orders/{id}/payment [post]
func (h *Handler) UpdatePayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	resp, err := h.ordersClient.UpdatePaymentStatus(c.Request.Context(), &ordersv1.UpdatePaymentRequest{
		OrderID:    c.Param("id"),
		Status:     req.Status,
		GatewayRef: req.GatewayRef,
	})
	if err != nil {
		c.Error(upstream(err))
		return
	}
	h.ok(c, http.StatusOK, resp)
}

// CancelOrder cancels an order that has not been dispatched
// @Summary Cancel an order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body CancelRequest false "Cancellation reason"
// @Success 200 {object} SuccessResponse{data=ordersv1.Order} "Order cancelled"
// @Failure 409 {object} ErrorResponse "Order already dispatched"
// @Router /api/v1/orders/{id}/cancel [post]
func (h *Handler) CancelOrder(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidation("invalid request body", err.Error()))
			return
		}
	}

	resp, err := h.ordersClient.CancelOrder(c.Request.Context(), &ordersv1.CancelOrderRequest{
		OrderID: c.Param("id"),
		Reason:  req.Reason,
	})
	if err != nil {
		c.Error(upstream(err))
		return
	}
	h.ok(c, http.StatusOK, resp)
}
