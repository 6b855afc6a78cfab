// Package docs holds the OpenAPI document served under /swagger. Regenerate
// it with: swag init -g cmd/kart/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/admin/feedback": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "description": "new|in_review|resolved",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Feedback"
                            }
                        }
                    }
                },
                "summary": "List all feedback, most urgent first"
            }
        },
        "/admin/feedback/{id}": {
            "patch": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Feedback ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.UpdateFeedbackStatusRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Feedback"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Move feedback through review",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/admin/merchandise": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.CreateMerchandiseRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Merchandise"
                        }
                    }
                },
                "summary": "Create merchandise item",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/admin/merchandise/{id}/stock": {
            "patch": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Merchandise ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.AdjustStockRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Merchandise"
                        }
                    },
                    "409": {
                        "description": "stock would go negative",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Restock or write off merchandise",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/admin/payments/{id}/refund": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Payment ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.RefundRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Payment"
                        }
                    },
                    "400": {
                        "description": "exceeds remaining",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "not refundable",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Refund a completed payment",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/admin/routes": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.CreateRouteRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Route"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Create route",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/admin/routes/{id}": {
            "patch": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Route ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.SetRouteActiveRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Activate or deactivate a route",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/admin/tickets/sweep": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "integer"
                            }
                        }
                    }
                },
                "summary": "Mark tickets of departed trips as used"
            }
        },
        "/admin/trips": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.CreateTripRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Trip"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Schedule a trip on a route",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/admin/users/{id}/points": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.AdjustPointsRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PointsTransaction"
                        }
                    },
                    "409": {
                        "description": "balance would go negative",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Manually adjust a user's points",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/book-ticket": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.BookTicketRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Ticket"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "no seats / trip mismatch / idem in progress",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Book a ticket (idempotent)",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/feedback": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.SubmitFeedbackRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Feedback"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Submit feedback",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/feedback/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Feedback ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Feedback"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Get feedback"
            }
        },
        "/api/merchandise": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "all",
                        "in": "query",
                        "required": false,
                        "description": "include inactive items",
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Merchandise"
                            }
                        }
                    }
                },
                "summary": "List merchandise"
            }
        },
        "/api/merchandise/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Merchandise ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Merchandise"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Get merchandise item"
            }
        },
        "/api/payments/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Payment ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Payment"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Get payment"
            }
        },
        "/api/process-payment": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ProcessPaymentRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Payment"
                        }
                    },
                    "400": {
                        "description": "amount mismatch / bad method",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "already paid / idem in progress",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Pay for a booked ticket (idempotent)",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/routes": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "all",
                        "in": "query",
                        "required": false,
                        "description": "include inactive routes",
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Route"
                            }
                        }
                    }
                },
                "summary": "List routes"
            }
        },
        "/api/routes/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Route ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Route"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Get route"
            }
        },
        "/api/trips": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "origin",
                        "in": "query",
                        "required": true,
                        "description": "origin station",
                        "type": "string"
                    },
                    {
                        "name": "destination",
                        "in": "query",
                        "required": true,
                        "description": "destination station",
                        "type": "string"
                    },
                    {
                        "name": "date",
                        "in": "query",
                        "required": true,
                        "description": "YYYY-MM-DD",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.TripListing"
                            }
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Search trips departing on a date"
            }
        },
        "/api/trips/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Trip ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Trip"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Get trip"
            }
        },
        "/api/users/login": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.User"
                        }
                    },
                    "401": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    },
                    "429": {
                        "description": "rate limited",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Log in",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/register": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.RegisterRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.User"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "email taken",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Register account",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.User"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Get user profile"
            },
            "put": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.UpdateProfileRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.User"
                        }
                    }
                },
                "summary": "Update user profile",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}/booking": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.BookingDraft"
                        }
                    }
                },
                "summary": "Current booking draft"
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                },
                "summary": "Abandon the booking draft"
            }
        },
        "/api/users/{id}/booking/book": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httpgin.BookDraftResponse"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Wizard step 4: book the drafted journey"
            }
        },
        "/api/users/{id}/booking/confirm": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Ticket"
                        }
                    },
                    "402": {
                        "description": "ticket not paid",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Wizard step 5: confirm once paid"
            }
        },
        "/api/users/{id}/booking/passengers": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.SetPassengersRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.BookingDraft"
                        }
                    },
                    "409": {
                        "description": "step out of order / no seats",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Wizard step 3: passengers",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}/booking/stations": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.SelectStationsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.BookingDraft"
                        }
                    },
                    "409": {
                        "description": "step out of order",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Wizard step 1: stations and date",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}/booking/trip": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.SelectTripRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.BookingDraft"
                        }
                    },
                    "409": {
                        "description": "step out of order",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Wizard step 2: trip",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}/cart": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Order"
                        }
                    }
                },
                "summary": "Get cart"
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Order"
                        }
                    }
                },
                "summary": "Empty the cart"
            }
        },
        "/api/users/{id}/cart/checkout": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.CheckoutRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/orders.CheckoutResult"
                        }
                    },
                    "409": {
                        "description": "empty cart / out of stock",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Check out the cart (idempotent)",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}/cart/items": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.AddCartItemRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Order"
                        }
                    },
                    "404": {
                        "description": "item not found",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "out of stock / already in cart",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Add ticket or merchandise to cart",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}/cart/items/{itemId}": {
            "put": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "itemId",
                        "in": "path",
                        "required": true,
                        "description": "Cart line ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.UpdateCartItemRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Order"
                        }
                    }
                },
                "summary": "Change quantity of a cart line (0 removes it)",
                "consumes": [
                    "application/json"
                ]
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "itemId",
                        "in": "path",
                        "required": true,
                        "description": "Cart line ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Order"
                        }
                    }
                },
                "summary": "Remove a cart line"
            }
        },
        "/api/users/{id}/cart/points": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ApplyPointsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Order"
                        }
                    },
                    "409": {
                        "description": "insufficient points",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Redeem points against the cart",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}/feedback": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Feedback"
                            }
                        }
                    }
                },
                "summary": "List user's feedback"
            }
        },
        "/api/users/{id}/notifications": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "unread",
                        "in": "query",
                        "required": false,
                        "description": "only unread",
                        "type": "boolean"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "page size",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Notification"
                            }
                        }
                    }
                },
                "summary": "List notifications, newest first"
            }
        },
        "/api/users/{id}/notifications/read-all": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httpgin.MarkAllReadResponse"
                        }
                    }
                },
                "summary": "Mark all notifications read"
            }
        },
        "/api/users/{id}/notifications/unread-count": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httpgin.UnreadCountResponse"
                        }
                    }
                },
                "summary": "Unread notification count"
            }
        },
        "/api/users/{id}/notifications/{nid}": {
            "delete": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "nid",
                        "in": "path",
                        "required": true,
                        "description": "Notification ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Delete a notification"
            }
        },
        "/api/users/{id}/notifications/{nid}/read": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "nid",
                        "in": "path",
                        "required": true,
                        "description": "Notification ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Mark one notification read"
            }
        },
        "/api/users/{id}/orders": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Order"
                            }
                        }
                    }
                },
                "summary": "List placed orders"
            }
        },
        "/api/users/{id}/orders/{orderId}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "orderId",
                        "in": "path",
                        "required": true,
                        "description": "Order ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Order"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Get order"
            }
        },
        "/api/users/{id}/orders/{orderId}/cancel": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "orderId",
                        "in": "path",
                        "required": true,
                        "description": "Order ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Order"
                        }
                    },
                    "409": {
                        "description": "not cancellable",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Cancel an unpaid order"
            }
        },
        "/api/users/{id}/password": {
            "put": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "description": "payload",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ChangePasswordRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "old password wrong",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Change password",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/users/{id}/payments": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Payment"
                            }
                        }
                    }
                },
                "summary": "List user's payments"
            }
        },
        "/api/users/{id}/points": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httpgin.PointsBalanceResponse"
                        }
                    }
                },
                "summary": "Loyalty points balance"
            }
        },
        "/api/users/{id}/points/history": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.PointsTransaction"
                            }
                        }
                    }
                },
                "summary": "Loyalty points history"
            }
        },
        "/api/users/{id}/tickets": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Ticket"
                            }
                        }
                    }
                },
                "summary": "List user's tickets"
            }
        },
        "/api/users/{id}/tickets/{ticketId}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "ticketId",
                        "in": "path",
                        "required": true,
                        "description": "Ticket ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Ticket"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Get ticket"
            }
        },
        "/api/users/{id}/tickets/{ticketId}/cancel": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "ticketId",
                        "in": "path",
                        "required": true,
                        "description": "Ticket ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/booking.CancelResult"
                        }
                    },
                    "409": {
                        "description": "not cancellable",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Cancel ticket and refund per cancellation window"
            }
        },
        "/healthz": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "503": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/httpgin.ErrorResponse"
                        }
                    }
                },
                "summary": "Liveness and dependency check"
            }
        }
    },
    "definitions": {
        "booking.CancelResult": {
            "type": "object",
            "properties": {
                "ticket": {
                    "$ref": "#/definitions/domain.Ticket"
                },
                "refund_percentage": {
                    "type": "string",
                    "example": "0.00"
                },
                "refunded": {
                    "type": "string",
                    "example": "0.00"
                }
            }
        },
        "domain.BookingDraft": {
            "type": "object",
            "properties": {}
        },
        "domain.Feedback": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "subject": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "rating": {
                    "type": "integer"
                },
                "category": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "priority": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "domain.Merchandise": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "price": {
                    "type": "string",
                    "example": "0.00"
                },
                "stock": {
                    "type": "integer"
                },
                "active": {
                    "type": "boolean"
                }
            }
        },
        "domain.Notification": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "type": {
                    "type": "string"
                },
                "priority": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "read": {
                    "type": "boolean"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "domain.Order": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.OrderItem"
                    }
                },
                "subtotal": {
                    "type": "string",
                    "example": "0.00"
                },
                "tax": {
                    "type": "string",
                    "example": "0.00"
                },
                "discount": {
                    "type": "string",
                    "example": "0.00"
                },
                "total": {
                    "type": "string",
                    "example": "0.00"
                },
                "points_redeemed": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "payment_status": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "domain.OrderItem": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "order_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "item_type": {
                    "type": "string"
                },
                "item_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "name": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                },
                "unit_price": {
                    "type": "string",
                    "example": "0.00"
                },
                "subtotal": {
                    "type": "string",
                    "example": "0.00"
                }
            }
        },
        "domain.Payment": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "order_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "ticket_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "amount": {
                    "type": "string",
                    "example": "0.00"
                },
                "refunded_amount": {
                    "type": "string",
                    "example": "0.00"
                },
                "method": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "transaction_ref": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "domain.PointsTransaction": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "kind": {
                    "type": "string"
                },
                "points": {
                    "type": "integer"
                },
                "balance_after": {
                    "type": "integer"
                },
                "reference": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "domain.Route": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "start_location": {
                    "type": "string"
                },
                "end_location": {
                    "type": "string"
                },
                "distance_km": {
                    "type": "number"
                },
                "duration_min": {
                    "type": "integer"
                },
                "fare": {
                    "type": "string",
                    "example": "0.00"
                },
                "active": {
                    "type": "boolean"
                }
            }
        },
        "domain.Ticket": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "route_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "trip_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "origin": {
                    "type": "string"
                },
                "destination": {
                    "type": "string"
                },
                "departure_time": {
                    "type": "string",
                    "format": "date-time"
                },
                "arrival_time": {
                    "type": "string",
                    "format": "date-time"
                },
                "passengers": {
                    "type": "integer"
                },
                "price": {
                    "type": "string",
                    "example": "0.00"
                },
                "status": {
                    "type": "string"
                },
                "booked_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "domain.Trip": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "route_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "departs_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "arrives_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "seats_total": {
                    "type": "integer"
                },
                "seats_available": {
                    "type": "integer"
                }
            }
        },
        "domain.TripListing": {
            "type": "object",
            "properties": {
                "origin": {
                    "type": "string"
                },
                "destination": {
                    "type": "string"
                },
                "fare": {
                    "type": "string",
                    "example": "0.00"
                }
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "loyalty_points": {
                    "type": "integer"
                },
                "registration_date": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "httpgin.AddCartItemRequest": {
            "type": "object",
            "properties": {
                "item_type": {
                    "type": "string"
                },
                "item_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer"
                }
            }
        },
        "httpgin.AdjustPointsRequest": {
            "type": "object",
            "properties": {
                "delta": {
                    "type": "integer"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "httpgin.AdjustStockRequest": {
            "type": "object",
            "properties": {
                "delta": {
                    "type": "integer"
                }
            }
        },
        "httpgin.ApplyPointsRequest": {
            "type": "object",
            "properties": {
                "points": {
                    "type": "integer"
                }
            }
        },
        "httpgin.BookDraftResponse": {
            "type": "object",
            "properties": {
                "ticket": {
                    "$ref": "#/definitions/domain.Ticket"
                },
                "draft": {
                    "type": "string"
                }
            }
        },
        "httpgin.BookTicketRequest": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "trip_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "origin": {
                    "type": "string"
                },
                "destination": {
                    "type": "string"
                },
                "travel_date": {
                    "type": "string"
                },
                "passengers": {
                    "type": "integer"
                }
            }
        },
        "httpgin.ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {
                    "type": "string"
                },
                "new_password": {
                    "type": "string"
                }
            }
        },
        "httpgin.CheckoutRequest": {
            "type": "object",
            "properties": {
                "method": {
                    "type": "string"
                }
            }
        },
        "httpgin.CreateMerchandiseRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "price": {
                    "type": "string",
                    "example": "0.00"
                },
                "stock": {
                    "type": "integer"
                }
            }
        },
        "httpgin.CreateRouteRequest": {
            "type": "object",
            "properties": {
                "start_location": {
                    "type": "string"
                },
                "end_location": {
                    "type": "string"
                },
                "distance_km": {
                    "type": "number"
                },
                "duration_min": {
                    "type": "integer"
                },
                "fare": {
                    "type": "string",
                    "example": "0.00"
                }
            }
        },
        "httpgin.CreateTripRequest": {
            "type": "object",
            "properties": {
                "route_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "departs_at": {
                    "type": "string"
                },
                "seats": {
                    "type": "integer"
                }
            }
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                }
            }
        },
        "httpgin.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "httpgin.MarkAllReadResponse": {
            "type": "object",
            "properties": {
                "updated": {
                    "type": "integer"
                }
            }
        },
        "httpgin.PointsBalanceResponse": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "balance": {
                    "type": "integer"
                }
            }
        },
        "httpgin.ProcessPaymentRequest": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "ticket_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "amount": {
                    "type": "string",
                    "example": "0.00"
                },
                "method": {
                    "type": "string"
                }
            }
        },
        "httpgin.RefundRequest": {
            "type": "object",
            "properties": {
                "amount": {
                    "type": "string",
                    "example": "0.00"
                }
            }
        },
        "httpgin.RegisterRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                }
            }
        },
        "httpgin.SelectStationsRequest": {
            "type": "object",
            "properties": {
                "origin": {
                    "type": "string"
                },
                "destination": {
                    "type": "string"
                },
                "travel_date": {
                    "type": "string"
                }
            }
        },
        "httpgin.SelectTripRequest": {
            "type": "object",
            "properties": {
                "trip_id": {
                    "type": "string",
                    "format": "uuid"
                }
            }
        },
        "httpgin.SetPassengersRequest": {
            "type": "object",
            "properties": {
                "passengers": {
                    "type": "integer"
                }
            }
        },
        "httpgin.SetRouteActiveRequest": {
            "type": "object",
            "properties": {
                "active": {
                    "type": "boolean"
                }
            }
        },
        "httpgin.SubmitFeedbackRequest": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "subject": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "rating": {
                    "type": "integer"
                },
                "category": {
                    "type": "string"
                }
            }
        },
        "httpgin.UnreadCountResponse": {
            "type": "object",
            "properties": {
                "unread": {
                    "type": "integer"
                }
            }
        },
        "httpgin.UpdateCartItemRequest": {
            "type": "object",
            "properties": {
                "quantity": {
                    "type": "integer"
                }
            }
        },
        "httpgin.UpdateFeedbackStatusRequest": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                }
            }
        },
        "httpgin.UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                }
            }
        },
        "orders.CheckoutResult": {
            "type": "object",
            "properties": {
                "order": {
                    "$ref": "#/definitions/domain.Order"
                },
                "payments": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.Payment"
                    }
                },
                "points_earned": {
                    "type": "integer"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Kuching ART API",
	Description:      "Ticket booking, merchandise shop and loyalty points for the Kuching ART line.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
