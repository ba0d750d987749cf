// Package swagger holds the OpenAPI document served by the gateway at /swagger.
// It mirrors the swag annotations on internal/gateway/handlers.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/orders": {
            "post": {
                "description": "Price the cart against the catalog, reserve stock for COD and BANK orders and open the order",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Place an order",
                "parameters": [
                    {
                        "description": "Checkout request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.CreateOrderRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Order created successfully", "schema": {"$ref": "#/definitions/handlers.OrderEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Insufficient stock", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/v1/orders/{id}": {
            "get": {
                "description": "Retrieve the three state dimensions and the display status of an order",
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get an order by ID",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Order retrieved successfully", "schema": {"$ref": "#/definitions/handlers.OrderEnvelope"}},
                    "404": {"description": "Order not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/v1/orders/{id}/transitions": {
            "post": {
                "description": "Move the order, delivery or payment dimension; delivery proof and failure reasons travel as evidence",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Request a state transition",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Transition request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Transition applied or already in place", "schema": {"$ref": "#/definitions/handlers.OrderEnvelope"}},
                    "400": {"description": "Illegal transition or missing evidence", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Order not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Payment not adequate for dispatch", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/v1/orders/{id}/payment": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Update payment status",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Payment status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Payment status applied", "schema": {"$ref": "#/definitions/handlers.OrderEnvelope"}},
                    "400": {"description": "Illegal payment transition", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Refund blocked while the parcel is in transit", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/v1/orders/{id}/cancel": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Cancel an order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Cancellation reason", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/handlers.CancelRequest"}}
                ],
                "responses": {
                    "200": {"description": "Order cancelled", "schema": {"$ref": "#/definitions/handlers.OrderEnvelope"}},
                    "409": {"description": "Order already dispatched", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/v1/products/{id}": {
            "get": {
                "description": "Retrieve catalog details and current stock of a product",
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Get a product",
                "parameters": [
                    {"type": "string", "description": "Product ID or SKU", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Product retrieved successfully", "schema": {"$ref": "#/definitions/handlers.ProductEnvelope"}},
                    "404": {"description": "Product not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.AddressRequest": {
            "type": "object",
            "required": ["city", "country", "line1"],
            "properties": {
                "name": {"type": "string", "example": "Ada Lovelace"},
                "line1": {"type": "string", "example": "12 Analytical Row"},
                "line2": {"type": "string"},
                "city": {"type": "string", "example": "London"},
                "postalCode": {"type": "string", "example": "N1 9GU"},
                "country": {"type": "string", "example": "GB"},
                "phone": {"type": "string"}
            }
        },
        "handlers.LineItemRequest": {
            "type": "object",
            "required": ["productRef", "quantity"],
            "properties": {
                "productRef": {"type": "string", "example": "prd_01HZX3"},
                "quantity": {"type": "integer", "example": 2},
                "unitPrice": {"type": "integer", "example": 1500}
            }
        },
        "handlers.CreateOrderRequest": {
            "type": "object",
            "required": ["address", "items", "paymentMethod"],
            "properties": {
                "customerId": {"type": "string", "example": "cus_42"},
                "paymentMethod": {"type": "string", "enum": ["COD", "CARD", "BANK"], "example": "COD"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/handlers.LineItemRequest"}},
                "address": {"$ref": "#/definitions/handlers.AddressRequest"},
                "shipping": {"type": "integer", "example": 500},
                "discount": {"type": "integer", "example": 0}
            }
        },
        "handlers.Evidence": {
            "type": "object",
            "properties": {
                "photoUrl": {"type": "string"},
                "signature": {"type": "string"},
                "otp": {"type": "string"},
                "reasonCode": {"type": "string"},
                "detail": {"type": "string"},
                "carrier": {"type": "string"},
                "trackingNumber": {"type": "string"}
            }
        },
        "handlers.TransitionRequest": {
            "type": "object",
            "required": ["dimension", "target"],
            "properties": {
                "dimension": {"type": "string", "enum": ["order", "delivery", "payment"], "example": "delivery"},
                "target": {"type": "string", "example": "SHIPPED"},
                "evidence": {"$ref": "#/definitions/handlers.Evidence"}
            }
        },
        "handlers.PaymentRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "example": "PAID"},
                "gatewayRef": {"type": "string", "example": "ch_3PZ"}
            }
        },
        "handlers.CancelRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string", "example": "changed my mind"}
            }
        },
        "handlers.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "customerId": {"type": "string"},
                "orderState": {"type": "string", "example": "CONFIRMED"},
                "deliveryState": {"type": "string", "example": "NOT_DISPATCHED"},
                "paymentMethod": {"type": "string", "example": "COD"},
                "paymentStatus": {"type": "string", "example": "UNPAID"},
                "status": {"type": "string", "example": "placed"},
                "inventoryStatus": {"type": "string", "example": "RESERVED"},
                "totals": {
                    "type": "object",
                    "properties": {
                        "subtotal": {"type": "integer"},
                        "shipping": {"type": "integer"},
                        "discount": {"type": "integer"},
                        "grandTotal": {"type": "integer"}
                    }
                },
                "version": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "changed": {"type": "boolean"},
                "requiresExternalConfirmation": {"type": "boolean"}
            }
        },
        "handlers.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "sku": {"type": "string"},
                "name": {"type": "string"},
                "unitPrice": {"type": "integer"},
                "stock": {"type": "integer"}
            }
        },
        "handlers.OrderEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handlers.Order"},
                "trace_id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"}
            }
        },
        "handlers.ProductEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handlers.Product"},
                "trace_id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"}
            }
        },
        "handlers.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string", "example": "Invalid request body"},
                "details": {}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handlers.ErrorBody"},
                "trace_id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8443",
	BasePath:         "/",
	Schemes:          []string{"https", "http"},
	Title:            "go-commerce Storefront API",
	Description:      "Checkout, order tracking and catalog lookups for go-commerce",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
