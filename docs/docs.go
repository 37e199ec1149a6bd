// Package docs registers the OpenAPI description served at /swagger.
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
        "/health": {"get": {"tags": ["health"], "summary": "Service health", "responses": {"200": {"description": "OK"}}}},
        "/contingent-bills": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["contingent-bills"], "summary": "List contingent bills", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["contingent-bills"], "summary": "Create a contingent bill", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/contingent-bills/from-eproc": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["contingent-bills"], "summary": "Import a bill from an e-procurement order", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/contingent-bills/{bill_id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["contingent-bills"], "summary": "Get a contingent bill", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["contingent-bills"], "summary": "Update a contingent bill", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/contingent-bills/{bill_id}/approve": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["contingent-bills"], "summary": "Record a tri-signature approval", "responses": {"200": {"description": "OK"}}}
        },
        "/contingent-bills/{bill_id}/reject": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["contingent-bills"], "summary": "Reject a contingent bill", "responses": {"200": {"description": "OK"}}}
        },
        "/workflow/bills/{bill_id}/{action}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["workflow"], "summary": "Advance a bill through the approval chain", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/schedule-of-payments/batch": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["schedule-of-payments"], "summary": "Batch approved bills into a schedule", "responses": {"201": {"description": "Created"}}}
        },
        "/schedule-of-payments/{schedule_id}/approve": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["schedule-of-payments"], "summary": "Record a schedule approval", "responses": {"200": {"description": "OK"}}}
        },
        "/asaan-cheques/{cheque_id}/approve": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["asaan-cheques"], "summary": "Sign an Asaan cheque", "responses": {"200": {"description": "OK"}}}
        },
        "/asaan-cheques/{cheque_id}/forward": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["asaan-cheques"], "summary": "Forward a cheque to the bank", "responses": {"200": {"description": "OK"}}}
        },
        "/asaan-cheques/{cheque_id}/advice": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["asaan-cheques"], "summary": "Download the bank advice PDF", "produces": ["application/pdf"], "responses": {"200": {"description": "OK"}}}
        },
        "/budgets": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["budgets"], "summary": "List budget heads", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["budgets"], "summary": "Create or update a budget head", "responses": {"200": {"description": "OK"}}}
        },
        "/eproc/orders": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["eproc"], "summary": "Search e-procurement purchase orders", "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "CBMS API",
	Description:      "Contingent bill workflow, budget ledger and Asaan cheque issuance for the hospital finance office",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
