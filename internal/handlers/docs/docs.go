// Package docs contains the swagger documentation for the development backend.
// Regenerate with `swag init -g internal/handlers/handler.go -o internal/handlers/docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fridge Monitor API",
        "description": "Development backend serving fridge telemetry readings, aggregates and a live push feed.",
        "version": "1.0"
    },
    "host": "localhost:8080",
    "basePath": "/",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/fridges": {
            "get": {
                "description": "Newest first. Filters match as substrings; fridge_id against the decimal id, names case-insensitively.",
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List fridge readings",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "1-based page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Fridge id substring", "name": "fridge_id", "in": "query"},
                    {"type": "string", "description": "Instrument name substring", "name": "instrument_name", "in": "query"},
                    {"type": "string", "description": "Parameter name substring", "name": "parameter_name", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FridgePage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "description": "Stores one reading and pushes it to /ws subscribers.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Add a reading",
                "parameters": [
                    {"description": "Reading", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddRecordRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Record"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/settings": {
            "get": {
                "description": "Same contract as /fridges.",
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List settings",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "1-based page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Fridge id substring", "name": "fridge_id", "in": "query"},
                    {"type": "string", "description": "Instrument name substring", "name": "instrument_name", "in": "query"},
                    {"type": "string", "description": "Parameter name substring", "name": "parameter_name", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FridgePage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/analytics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Aggregate statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Analytics"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket upgrade. The server pushes one JSON reading per text message as readings are stored.",
                "tags": ["live"],
                "summary": "Live feed",
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        }
    },
    "definitions": {
        "Record": {
            "type": "object",
            "properties": {
                "fridge_id": {"type": "integer"},
                "instrument_name": {"type": "string"},
                "parameter_name": {"type": "string"},
                "applied_value": {"type": "number"},
                "timestamp": {"type": "integer", "description": "epoch millis"}
            }
        },
        "AddRecordRequest": {
            "type": "object",
            "required": ["fridge_id", "instrument_name", "parameter_name"],
            "properties": {
                "fridge_id": {"type": "integer", "example": 1},
                "instrument_name": {"type": "string", "example": "instrument_one"},
                "parameter_name": {"type": "string", "example": "flux_bias"},
                "applied_value": {"type": "number", "example": 0.37},
                "timestamp": {"type": "integer", "example": 1739596596000}
            }
        },
        "FridgePage": {
            "type": "object",
            "properties": {
                "fridges": {"type": "array", "items": {"$ref": "#/definitions/Record"}},
                "total": {"type": "integer"}
            }
        },
        "GroupStats": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "avgValue": {"type": "number"},
                "minValue": {"type": "number"},
                "maxValue": {"type": "number"}
            }
        },
        "OverallStats": {
            "type": "object",
            "properties": {
                "totalRecords": {"type": "integer"},
                "avgValue": {"type": "number"},
                "minValue": {"type": "number"},
                "maxValue": {"type": "number"}
            }
        },
        "Analytics": {
            "type": "object",
            "properties": {
                "byFridge": {"type": "object", "additionalProperties": {"$ref": "#/definitions/GroupStats"}},
                "byInstrument": {"type": "object", "additionalProperties": {"$ref": "#/definitions/GroupStats"}},
                "byParameter": {"type": "object", "additionalProperties": {"$ref": "#/definitions/GroupStats"}},
                "overall": {"$ref": "#/definitions/OverallStats"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
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
	Title:            "Fridge Monitor API",
	Description:      "Development backend serving fridge telemetry readings, aggregates and a live push feed.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
