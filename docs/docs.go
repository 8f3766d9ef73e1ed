// Package docs is generated by swag init from the handler annotations.
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
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "parameters": [{"description": "Credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Credentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SignInResult"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Sign out and revoke the session token", "responses": {"204": {"description": "No Content"}}}
        },
        "/api/auth/password": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["auth"],
                "summary": "Change the password of the signed-in account",
                "parameters": [{"description": "Passwords", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.ChangePasswordInput"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/parent/dashboard": {
            "get": {"produces": ["application/json"], "tags": ["dashboard"], "summary": "Parent dashboard: own children, their entries and week buckets", "responses": {"200": {"description": "OK"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/coach/dashboard": {
            "get": {"produces": ["application/json"], "tags": ["dashboard"], "summary": "Coach dashboard: coached players and the tournament matrix", "responses": {"200": {"description": "OK"}}}
        },
        "/api/manager/dashboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Manager dashboard with optional coach and week filters",
                "parameters": [
                    {"type": "string", "description": "Coach account id", "name": "coach_id", "in": "query"},
                    {"type": "integer", "description": "Week number", "name": "week", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/parent/entries": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["entries"], "summary": "Plan a tournament for one of the parent's children", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/api/parent/entries/{entryID}": {
            "put": {
                "consumes": ["application/json"], "produces": ["application/json"], "tags": ["entries"],
                "summary": "Edit an entry and its shared tournament",
                "parameters": [{"type": "string", "description": "Entry id", "name": "entryID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            },
            "delete": {
                "produces": ["application/json"], "tags": ["entries"],
                "summary": "Delete an entry; its tournament goes with the last entry",
                "parameters": [
                    {"type": "string", "description": "Entry id", "name": "entryID", "in": "path", "required": true},
                    {"type": "boolean", "description": "Must be true", "name": "confirm", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/manager/export.xlsx": {
            "get": {"produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "tags": ["manager"], "summary": "Download the manager matrix as XLSX", "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}}
        },
        "/api/manager/exports": {
            "post": {"produces": ["application/json"], "tags": ["manager"], "summary": "Store the manager matrix workbook in object storage", "responses": {"201": {"description": "Created"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/manager/chart.png": {
            "get": {"produces": ["image/png"], "tags": ["manager"], "summary": "Played tournaments per player as PNG", "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}}
        }
    },
    "definitions": {
        "models.Credentials": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "services.ChangePasswordInput": {
            "type": "object",
            "required": ["current_password", "new_password", "confirm_password"],
            "properties": {"current_password": {"type": "string"}, "new_password": {"type": "string"}, "confirm_password": {"type": "string"}}
        },
        "services.SignInResult": {
            "type": "object",
            "properties": {"redirectPath": {"type": "string"}, "token": {"type": "string"}, "expires_at": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tennis planner API",
	Description:      "Tournament planning for a tennis club: parents, coaches and managers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
