package infrastructure

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-commerce/internal/orders/application"
	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/middleware"
)

// OrderService is the application surface the transports call
type OrderService interface {
	CreateOrder(ctx context.Context, input application.CreateOrderInput) (*application.CreateOrderOutput, error)
	GetOrder(ctx context.Context, input application.GetOrderInput) (*application.GetOrderOutput, error)
	RequestTransition(ctx context.Context, input application.TransitionInput) (*application.OrderOutput, error)
	UpdatePaymentStatus(ctx context.Context, input application.UpdatePaymentInput) (*application.OrderOutput, error)
	CancelOrder(ctx context.Context, input application.CancelOrderInput) (*application.OrderOutput, error)
	DeleteOrder(ctx context.Context, input application.DeleteOrderInput) error
	RequestReturn(ctx context.Context, input application.RequestReturnInput) (*application.OrderOutput, error)
	UpdateReturnStatus(ctx context.Context, input application.UpdateReturnInput) (*application.OrderOutput, error)
	GetReturn(ctx context.Context, orderID string) (*domain.ReturnRecord, error)
	GetRefund(ctx context.Context, orderID string) (*domain.RefundRecord, error)
	ApproveRefund(ctx context.Context, orderID string) (*domain.RefundRecord, error)
}

// HTTPHandler handles HTTP requests for orders
type HTTPHandler struct {
	useCase OrderService
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase OrderService) *HTTPHandler {
	return &HTTPHandler{useCase: useCase}
}

// RegisterRoutes registers the order routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.DELETE("/:id", h.DeleteOrder)
		orders.POST("/:id/transitions", h.RequestTransition)
		orders.POST("/:id/payment", h.UpdatePayment)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.POST("/:id/return", h.RequestReturn)
		orders.PATCH("/:id/return", h.UpdateReturn)
		orders.GET("/:id/return", h.GetReturn)
		orders.GET("/:id/refund", h.GetRefund)
		orders.POST("/:id/refund/approve", h.ApproveRefund)
	}
}

// LineItemRequest is one line of a checkout request
type LineItemRequest struct {
	ProductRef string `json:"productRef" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
	UnitPrice  int64  `json:"unitPrice" binding:"gte=0"`
}

// AddressRequest is the shipping address of a checkout request
type AddressRequest struct {
	Name       string `json:"name"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone"`
}

// CreateOrderRequest is the request body for creating an order
type CreateOrderRequest struct {
	CustomerID    string            `json:"customerId"`
	PaymentMethod string            `json:"paymentMethod" binding:"required,oneof=COD CARD BANK"`
	Items         []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Address       AddressRequest    `json:"address" binding:"required"`
	Shipping      int64             `json:"shipping" binding:"gte=0"`
	Discount      int64             `json:"discount" binding:"gte=0"`
}

// TransitionRequest is the request body for a state transition
type TransitionRequest struct {
	Dimension string          `json:"dimension" binding:"required,oneof=order delivery payment"`
	Target    string          `json:"target" binding:"required"`
	Evidence  domain.Evidence `json:"evidence"`
}

// PaymentRequest is the request body for a payment status update
type PaymentRequest struct {
	Status     string `json:"status" binding:"required"`
	GatewayRef string `json:"gatewayRef"`
}

// CancelRequest is the optional request body for a cancellation
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ReturnRequest is the request body for opening a return
type ReturnRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReturnStatusRequest is the request body for moving a return
type ReturnStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected received closed"`
}

// OrderResponse is the response body for order operations
type OrderResponse struct {
	ID              string                `json:"id"`
	CustomerID      string                `json:"customerId"`
	Status          string                `json:"status"`
	OrderState      string                `json:"orderState"`
	DeliveryState   string                `json:"deliveryState"`
	Payment         domain.Payment        `json:"payment"`
	InventoryStatus string                `json:"inventoryStatus"`
	Items           []domain.LineItem     `json:"items"`
	Totals          domain.Totals         `json:"totals"`
	ShippingAddress domain.Address        `json:"shippingAddress"`
	StatusHistory   []domain.HistoryEntry `json:"statusHistory"`
	DeliveryMeta    domain.DeliveryMeta   `json:"deliveryMeta"`
	ReturnRequest   *domain.ReturnRequest `json:"returnRequest,omitempty"`
	Version         int64                 `json:"version"`
	CreatedAt       string                `json:"createdAt"`
	UpdatedAt       string                `json:"updatedAt"`
}

func toResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Status:          o.LegacyStatus,
		OrderState:      string(o.OrderState),
		DeliveryState:   string(o.DeliveryState),
		Payment:         o.Payment,
		InventoryStatus: string(o.InventoryStatus),
		Items:           o.Items,
		Totals:          o.Totals,
		ShippingAddress: o.ShippingAddress,
		StatusHistory:   o.StatusHistory,
		DeliveryMeta:    o.DeliveryMeta,
		ReturnRequest:   o.ReturnRequest,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
	}
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"data":     data,
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

func respondOrder(c *gin.Context, out *application.OrderOutput) {
	c.JSON(http.StatusOK, gin.H{
		"data":     toResponse(out.Order),
		"changed":  out.Changed,
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// CreateOrder handles POST /orders
//
//	@Summary	Place an order
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateOrderRequest	true	"checkout"
//	@Success	201		{object}	OrderResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	409		{object}	errors.ErrorResponse
//	@Router		/orders [post]
func (h *HTTPHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	items := make([]application.CreateOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = application.CreateOrderItem{
			ProductRef: item.ProductRef,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
	}

	output, err := h.useCase.CreateOrder(c.Request.Context(), application.CreateOrderInput{
		CustomerID: req.CustomerID,
		Method:     domain.PaymentMethod(req.PaymentMethod),
		Items:      items,
		Address:    domain.Address(req.Address),
		Shipping:   req.Shipping,
		Discount:   req.Discount,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":                         toResponse(output.Order),
		"requiresExternalConfirmation": output.RequiresExternalConfirmation,
		"trace_id":                     c.GetString(middleware.TraceIDKey),
	})
}

// GetOrder handles GET /orders/:id
//
//	@Summary	Get an order
//	@Tags		orders
//	@Produce	json
//	@Param		id	path		string	true	"order id"
//	@Success	200	{object}	OrderResponse
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/orders/{id} [get]
func (h *HTTPHandler) GetOrder(c *gin.Context) {
	output, err := h.useCase.GetOrder(c.Request.Context(), application.GetOrderInput{
		ID: c.Param("id"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, toResponse(output.Order))
}

// RequestTransition handles POST /orders/:id/transitions
//
//	@Summary	Move one state dimension
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"order id"
//	@Param		body	body		TransitionRequest	true	"transition"
//	@Success	200		{object}	OrderResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	409		{object}	errors.ErrorResponse
//	@Router		/orders/{id}/transitions [post]
func (h *HTTPHandler) RequestTransition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	output, err := h.useCase.RequestTransition(c.Request.Context(), application.TransitionInput{
		OrderID:   c.Param("id"),
		Dimension: domain.Dimension(req.Dimension),
		Target:    req.Target,
		Evidence:  req.Evidence,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respondOrder(c, output)
}

// UpdatePayment handles POST /orders/:id/payment
//
//	@Summary	Report a payment status
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"order id"
//	@Param		body	body		PaymentRequest	true	"payment"
//	@Success	200		{object}	OrderResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	409		{object}	errors.ErrorResponse
//	@Router		/orders/{id}/payment [post]
func (h *HTTPHandler) UpdatePayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	output, err := h.useCase.UpdatePaymentStatus(c.Request.Context(), application.UpdatePaymentInput{
		OrderID:    c.Param("id"),
		Status:     domain.PaymentStatus(req.Status),
		GatewayRef: req.GatewayRef,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respondOrder(c, output)
}

// CancelOrder handles POST /orders/:id/cancel
//
//	@Summary	Cancel an undispatched order
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"order id"
//	@Param		body	body		CancelRequest	false	"reason"
//	@Success	200		{object}	OrderResponse
//	@Failure	409		{object}	errors.ErrorResponse
//	@Router		/orders/{id}/cancel [post]
func (h *HTTPHandler) CancelOrder(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidation("invalid request body", err.Error()))
			return
		}
	}

	output, err := h.useCase.CancelOrder(c.Request.Context(), application.CancelOrderInput{
		OrderID: c.Param("id"),
		Reason:  req.Reason,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respondOrder(c, output)
}

// DeleteOrder handles DELETE /orders/:id
//
//	@Summary	Delete an undispatched order
//	@Tags		orders
//	@Param		id	path	string	true	"order id"
//	@Success	204
//	@Failure	404	{object}	errors.ErrorResponse
//	@Failure	409	{object}	errors.ErrorResponse
//	@Router		/orders/{id} [delete]
func (h *HTTPHandler) DeleteOrder(c *gin.Context) {
	if err := h.useCase.DeleteOrder(c.Request.Context(), application.DeleteOrderInput{OrderID: c.Param("id")}); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestReturn handles POST /orders/:id/return
//
//	@Summary	Open a return for a delivered order
//	@Tags		returns
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"order id"
//	@Param		body	body		ReturnRequest	true	"reason"
//	@Success	200		{object}	OrderResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Router		/orders/{id}/return [post]
func (h *HTTPHandler) RequestReturn(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	output, err := h.useCase.RequestReturn(c.Request.Context(), application.RequestReturnInput{
		OrderID: c.Param("id"),
		Reason:  req.Reason,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respondOrder(c, output)
}

// UpdateReturn handles PATCH /orders/:id/return
//
//	@Summary	Approve, reject, receive or close a return
//	@Tags		returns
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"order id"
//	@Param		body	body		ReturnStatusRequest	true	"status"
//	@Success	200		{object}	OrderResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Router		/orders/{id}/return [patch]
func (h *HTTPHandler) UpdateReturn(c *gin.Context) {
	var req ReturnStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	output, err := h.useCase.UpdateReturnStatus(c.Request.Context(), application.UpdateReturnInput{
		OrderID: c.Param("id"),
		Status:  domain.ReturnStatus(req.Status),
	})
	if err != nil {
		c.Error(err)
		return
	}

	respondOrder(c, output)
}

// GetReturn handles GET /orders/:id/return
//
//	@Summary	Get the return audit record
//	@Tags		returns
//	@Produce	json
//	@Param		id	path	string	true	"order id"
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/orders/{id}/return [get]
func (h *HTTPHandler) GetReturn(c *gin.Context) {
	record, err := h.useCase.GetReturn(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, record)
}

// GetRefund handles GET /orders/:id/refund
//
//	@Summary	Get the refund audit record
//	@Tags		refunds
//	@Produce	json
//	@Param		id	path	string	true	"order id"
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/orders/{id}/refund [get]
func (h *HTTPHandler) GetRefund(c *gin.Context) {
	record, err := h.useCase.GetRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, record)
}

// ApproveRefund handles POST /orders/:id/refund/approve
//
//	@Summary	Approve a requested refund
//	@Tags		refunds
//	@Produce	json
//	@Param		id	path	string	true	"order id"
//	@Failure	404	{object}	errors.ErrorResponse
//	@Failure	409	{object}	errors.ErrorResponse
//	@Router		/orders/{id}/refund/approve [post]
func (h *HTTPHandler) ApproveRefund(c *gin.Context) {
	record, err := h.useCase.ApproveRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, record)
}
