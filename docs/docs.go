// Package docs registers the Swagger document served at /swagger/.
// Regenerate with `swag init` after changing handler annotations.
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
        "/health": {
            "get": {
                "description": "Returns the health status of the cache store and the queue broker",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "All dependencies healthy",
                        "schema": {"$ref": "#/definitions/models.HealthResponse"}
                    },
                    "503": {
                        "description": "A dependency is unhealthy",
                        "schema": {"$ref": "#/definitions/models.HealthResponse"}
                    }
                }
            }
        },
        "/integration/v1/create-external-call": {
            "post": {
                "description": "Executes the described HTTP call synchronously with cache-aside semantics, or queues it when operationType is FIRE_AND_FORGET and returns only the assigned id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["integration"],
                "summary": "Create external call",
                "parameters": [
                    {
                        "description": "Outbound call description",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.IntegrationRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Upstream response, cached response or queued id",
                        "schema": {"$ref": "#/definitions/models.ResponseEnvelope"}
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    },
                    "502": {
                        "description": "Upstream call failed",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    },
                    "503": {
                        "description": "Queue unavailable",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            }
        },
        "/integration/v1/health": {
            "get": {
                "description": "Returns the literal string Success while the process is up",
                "produces": ["text/plain"],
                "tags": ["system"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "Success",
                        "schema": {"type": "string"}
                    }
                }
            }
        }
    },
    "definitions": {
        "models.CachePolicy": {
            "type": "object",
            "properties": {
                "alwaysReadFromCache": {"type": "boolean"},
                "bypassCache": {"type": "boolean"},
                "strictCacheTimeInMinutes": {"type": "integer", "minimum": -1}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string", "example": "url is required"},
                "statusCode": {"type": "integer", "example": 503}
            }
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string", "example": "healthy"}
            }
        },
        "models.IntegrationRequest": {
            "type": "object",
            "required": ["operationType", "requestMethod", "url"],
            "properties": {
                "bodyEncoding": {"type": "string", "enum": ["JSON", "FORM", "RAW"]},
                "cachePolicy": {"$ref": "#/definitions/models.CachePolicy"},
                "id": {"type": "string"},
                "isFormData": {"type": "boolean"},
                "operationType": {"type": "string", "enum": ["SYNC", "FIRE_AND_FORGET"]},
                "requestBody": {"type": "object"},
                "requestHeader": {"type": "object", "additionalProperties": {"type": "string"}},
                "requestMethod": {"type": "string", "enum": ["GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"]},
                "url": {"type": "string"}
            }
        },
        "models.ResponseEnvelope": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "responseData": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Integration Gateway API",
	Description:      "Executes or queues generic outbound HTTP calls with fingerprint keyed response caching.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
