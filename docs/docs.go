// Package docs holds the OpenAPI document served under /swagger.
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
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Dependency health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.HealthResponse"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/model.CredentialsDTO"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Session"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/model.CredentialsDTO"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Session"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange a refresh token",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/model.RefreshDTO"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Session"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Revoke the current session",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AuthUser"}}}
            }
        },
        "/climate": {
            "get": {
                "produces": ["application/json"],
                "tags": ["climate"],
                "summary": "Monthly temperature and rainfall for a coordinate",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "integer", "name": "months", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ClimateSeries"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/climate/ndvi": {
            "get": {
                "produces": ["application/json"],
                "tags": ["climate"],
                "summary": "Monthly NDVI for a coordinate",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "integer", "name": "year", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.NdviSeries"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/regions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["regions"],
                "summary": "List regions",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Page-entity_Region"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["regions"],
                "summary": "Create a region",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/model.CreateRegionDTO"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entity.Region"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/regions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["regions"],
                "summary": "Region detail",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.Region"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["regions"],
                "summary": "Delete a region created by the caller",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/regions/{id}/climate": {
            "get": {
                "produces": ["application/json"],
                "tags": ["regions"],
                "summary": "Monthly climate at the region center",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ClimateSeries"}}}
            }
        },
        "/regions/{id}/ndvi": {
            "get": {
                "produces": ["application/json"],
                "tags": ["regions"],
                "summary": "Monthly NDVI at the region center",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.NdviSeries"}}}
            }
        },
        "/regions/{id}/sites": {
            "get": {
                "produces": ["application/json"],
                "tags": ["regions"],
                "summary": "Nature sites around the region",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "number", "name": "radiusKm", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/watchlist": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["watchlist"],
                "summary": "Regions watched by the caller",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["watchlist"],
                "summary": "Watch a region",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/watchlist/{regionId}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["watchlist"],
                "summary": "Stop watching a region",
                "parameters": [{"type": "string", "name": "regionId", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/dashboard": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Climate and NDVI overview for several regions",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/locations/countries": {
            "get": {
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Countries",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/predictions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Predict the bloom window of one region",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/model.PredictionRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PredictionResult"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/predictions/batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Predict several regions",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/predictions/jobs": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Queue a batch prediction",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/predictions/jobs/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Batch prediction job status",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/predictions/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Previous predictions of the caller",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "model.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "model.ComponentHealthStatus": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "details": {"type": "object", "additionalProperties": {"type": "string"}}}
        },
        "model.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "database": {"$ref": "#/definitions/model.ComponentHealthStatus"},
                "cache": {"$ref": "#/definitions/model.ComponentHealthStatus"},
                "queue": {"$ref": "#/definitions/model.ComponentHealthStatus"}
            }
        },
        "model.CredentialsDTO": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "model.RefreshDTO": {
            "type": "object",
            "properties": {"refreshToken": {"type": "string"}}
        },
        "model.AuthUser": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "email": {"type": "string"}, "role": {"type": "string"}}
        },
        "model.Session": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"},
                "tokenType": {"type": "string"},
                "expiresIn": {"type": "integer"},
                "expiresAt": {"type": "integer"},
                "user": {"$ref": "#/definitions/model.AuthUser"}
            }
        },
        "model.ClimateDataPoint": {
            "type": "object",
            "properties": {
                "month": {"type": "string"},
                "label": {"type": "string"},
                "temperature": {"type": "number"},
                "rainfall": {"type": "number"},
                "days": {"type": "integer"}
            }
        },
        "model.ClimateSeries": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/model.ClimateDataPoint"}}
            }
        },
        "entity.NdviReading": {
            "type": "object",
            "properties": {"month": {"type": "string"}, "value": {"type": "number"}}
        },
        "model.NdviSeries": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "year": {"type": "integer"},
                "readings": {"type": "array", "items": {"$ref": "#/definitions/entity.NdviReading"}}
            }
        },
        "entity.Region": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "ndvi": {"type": "array", "items": {"$ref": "#/definitions/entity.NdviReading"}},
                "lastBloomDate": {"type": "string"},
                "custom": {"type": "boolean"},
                "createdBy": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.CreateRegionDTO": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "lastBloomDate": {"type": "string"}
            }
        },
        "model.Page-entity_Region": {
            "type": "object",
            "properties": {
                "content": {"type": "array", "items": {"$ref": "#/definitions/entity.Region"}},
                "number": {"type": "integer"},
                "size": {"type": "integer"},
                "totalElements": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "model.PredictionRequest": {
            "type": "object",
            "properties": {
                "regionId": {"type": "string"},
                "name": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "months": {"type": "integer"}
            }
        },
        "model.PredictionResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "regionId": {"type": "string"},
                "regionName": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "predictedBloomDate": {"type": "string"},
                "explanation": {"type": "string"},
                "climateFactors": {"type": "string"},
                "vegetationTrend": {"type": "string"},
                "confidence": {"type": "string", "enum": ["low", "medium", "high", "unknown"]},
                "model": {"type": "string"},
                "generatedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/bloomwatch",
	Schemes:          []string{},
	Title:            "BloomWatch API",
	Description:      "Climate, vegetation and bloom prediction API backed by NASA POWER, OpenStreetMap and Gemini.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
