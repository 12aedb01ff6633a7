// Package docs registers the OpenAPI document served at /openapi.json.
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
        "/api/analyze": {
            "post": {
                "description": "Classifies the exam, attaches normal reference images and returns the model report.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Exam"],
                "summary": "Analyse an exam image",
                "parameters": [
                    {"type": "string", "description": "Model credential; falls back to the configured key", "name": "X-API-Key", "in": "header"},
                    {"type": "file", "description": "Exam image", "name": "exam_image", "in": "formData", "required": true},
                    {"type": "string", "description": "Clinical context", "name": "description", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.AnalysisResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/exam.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/exam.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/exam.errorResponse"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Exam"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/api/references": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Exam"],
                "summary": "Reference manifest",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "exam.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "httptransport.APIResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "services.AnalysisResult": {
            "type": "object",
            "properties": {
                "analysis": {"type": "string"},
                "exam_type": {"type": "string"},
                "model_used": {"type": "string"},
                "references_used": {"type": "integer"},
                "success": {"type": "boolean"}
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
	Title:            "Medical Exam Analyzer API",
	Description:      "Comparative analysis of medical exam images against normal references.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
