package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Portal API",
        "description": "Backend-for-frontend serving the student, department, university and super-admin portals",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Portal sign-in per app"},
        {"name": "Session", "description": "Signed-in profile and UI preferences"},
        {"name": "SuperAdmin", "description": "Universities, payments and activity tables"},
        {"name": "Dashboard", "description": "Platform totals and growth series"},
        {"name": "Students", "description": "Admin student lists and exports"},
        {"name": "Reference", "description": "Programs, levels and departments"},
        {"name": "Registration", "description": "Course cart, confirmation and checkout"},
        {"name": "Payments", "description": "Provider callbacks and slip downloads"}
    ],
    "paths": {
        "/auth/{app}/signin": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign in to a portal app",
                "parameters": [
                    {"name": "app", "in": "path", "required": true, "type": "string", "enum": ["students", "department-admin", "university-admin", "super-admin"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SigninRequest"}}
                ],
                "responses": {
                    "200": {"description": "Signed in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/signout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign out",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Signed out"}}
            }
        },
        "/session/preferences": {
            "get": {
                "tags": ["Session"],
                "summary": "Current profile and preferences",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Session"],
                "summary": "Update preferences",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Preferences"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/super-admin/universities": {
            "get": {
                "tags": ["SuperAdmin"],
                "summary": "List universities",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/search"},
                    {"$ref": "#/parameters/category"},
                    {"$ref": "#/parameters/page"},
                    {"$ref": "#/parameters/refresh"}
                ],
                "responses": {
                    "200": {"description": "Page of universities", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend unavailable, retryable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["SuperAdmin"],
                "summary": "Onboard a university",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUniversityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/super-admin/payments": {
            "get": {
                "tags": ["SuperAdmin"],
                "summary": "List payments with totals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/search"},
                    {"$ref": "#/parameters/category"},
                    {"$ref": "#/parameters/page"},
                    {"$ref": "#/parameters/refresh"}
                ],
                "responses": {"200": {"description": "Page of payments", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/super-admin/activity-logs": {
            "get": {
                "tags": ["SuperAdmin"],
                "summary": "List activity logs",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/search"},
                    {"$ref": "#/parameters/page"},
                    {"$ref": "#/parameters/refresh"}
                ],
                "responses": {"200": {"description": "Page of activity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/super-admin/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Summary totals and both growth series",
                "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/refresh"}],
                "responses": {"200": {"description": "Dashboard snapshot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/super-admin/dashboard/series/{kind}": {
            "put": {
                "tags": ["Dashboard"],
                "summary": "Change the range of one series",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["transaction-growth", "user-growth"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"days": {"type": "integer", "enum": [7, 14, 30, 90]}}}}
                ],
                "responses": {
                    "200": {"description": "Series", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown series", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/super-admin/ops/metrics": {
            "get": {
                "tags": ["SuperAdmin"],
                "summary": "Request, cache and backend call aggregates",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Metrics snapshot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/{app}/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "app", "in": "path", "required": true, "type": "string", "enum": ["university-admin", "department-admin"]},
                    {"$ref": "#/parameters/search"},
                    {"$ref": "#/parameters/category"},
                    {"$ref": "#/parameters/page"},
                    {"$ref": "#/parameters/refresh"}
                ],
                "responses": {"200": {"description": "Page of students", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/{app}/students/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Export the filtered student list",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "app", "in": "path", "required": true, "type": "string", "enum": ["university-admin", "department-admin"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/reference/{kind}": {
            "get": {
                "tags": ["Reference"],
                "summary": "Reference data",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["programs", "levels", "departments"]}
                ],
                "responses": {
                    "200": {"description": "Items", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown kind", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/registration": {
            "get": {
                "tags": ["Registration"],
                "summary": "Current cart",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Registration"],
                "summary": "Start a new registration",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Empty cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/registration/picker": {
            "get": {
                "tags": ["Registration"],
                "summary": "Filter the open picker",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "q", "in": "query", "type": "string"}],
                "responses": {
                    "200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Picker closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registration"],
                "summary": "Open the picker",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Registration"],
                "summary": "Close the picker",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/registration/picker/toggle": {
            "post": {
                "tags": ["Registration"],
                "summary": "Tick or untick a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"code": {"type": "string"}}}}
                ],
                "responses": {"200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/registration/picker/commit": {
            "post": {
                "tags": ["Registration"],
                "summary": "Add ticked courses to the cart",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/registration/courses": {
            "delete": {
                "tags": ["Registration"],
                "summary": "Empty the cart",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/registration/courses/{code}": {
            "delete": {
                "tags": ["Registration"],
                "summary": "Remove one course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not in cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/registration/confirmation": {
            "post": {
                "tags": ["Registration"],
                "summary": "Show the confirmation summary",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Registration"],
                "summary": "Back to the cart",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Cart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/registration/checkout": {
            "post": {
                "tags": ["Registration"],
                "summary": "Confirm and open a payment",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Registration and payment link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "501": {"description": "Checkout disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/registrations": {
            "get": {
                "tags": ["Registration"],
                "summary": "List registrations",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Registrations", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student/registrations/{id}": {
            "get": {
                "tags": ["Registration"],
                "summary": "Registration status and slip link",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Registration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/notifications": {
            "post": {
                "tags": ["Payments"],
                "summary": "Payment provider callback",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PaymentNotification"}}
                ],
                "responses": {
                    "200": {"description": "Applied or ignored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid signature", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Payments"],
                "summary": "Download a registration slip",
                "produces": ["application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "PDF"},
                    "403": {"description": "Link expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "search": {"name": "search", "in": "query", "type": "string", "description": "Case-insensitive substring; empty clears"},
        "category": {"name": "category", "in": "query", "type": "string", "description": "Category value, all to clear"},
        "page": {"name": "page", "in": "query", "type": "integer", "minimum": 1},
        "refresh": {"name": "refresh", "in": "query", "type": "boolean", "description": "Refetch from the backend"}
    },
    "definitions": {
        "SigninRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Preferences": {
            "type": "object",
            "properties": {"sidebar_collapsed": {"type": "boolean"}}
        },
        "CreateUniversityRequest": {
            "type": "object",
            "required": ["code", "name", "contact_person", "email"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "contact_person": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"}
            }
        },
        "PaymentNotification": {
            "type": "object",
            "required": ["order_id", "transaction_status"],
            "properties": {
                "order_id": {"type": "string"},
                "transaction_status": {"type": "string"},
                "fraud_status": {"type": "string"},
                "gross_amount": {"type": "string"},
                "status_code": {"type": "string"},
                "signature_key": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "from": {"type": "integer"},
                "to": {"type": "integer"},
                "summary": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
