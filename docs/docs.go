// Package docs swagger document of the chat service, served on /swagger/*.
// Regenerate with: swag init -g internal/chat/router/router.go -o docs
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
        "/": {
            "get": {
                "tags": ["Shared"],
                "summary": "Check chat service status",
                "responses": {"200": {"description": "chat service start!", "schema": {"type": "string"}}}
            }
        },
        "/healthz": {
            "get": {
                "tags": ["Shared"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/debug": {
            "post": {
                "tags": ["Shared"],
                "summary": "Toggle Debug Log Flag",
                "parameters": [{"type": "boolean", "description": "Debug status", "name": "status", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "debug mode updated", "schema": {"type": "string"}},
                    "400": {"description": "Invalid status value", "schema": {"type": "string"}}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["Shared"],
                "summary": "Registry stats",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/hub.Stats"}}}
            }
        },
        "/messages": {
            "post": {
                "tags": ["Chat"],
                "summary": "Send text message",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/app.SendMessageRequest"}},
                    {"type": "string", "description": "session id to leave out of the fan-out", "name": "X-Chat-Session", "in": "header"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Message"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/app.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/messages/audio": {
            "post": {
                "tags": ["Chat"],
                "summary": "Upload audio",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "sender", "name": "senderId", "in": "formData", "required": true},
                    {"type": "string", "description": "receiver", "name": "receiverId", "in": "formData", "required": true},
                    {"type": "file", "description": "audio", "name": "audio", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/app.UploadAudioResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/app.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/messages/file": {
            "post": {
                "tags": ["Chat"],
                "summary": "Upload file",
                "description": "pdf, ppt, pptx, doc and docx only",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "sender", "name": "senderId", "in": "formData", "required": true},
                    {"type": "string", "description": "receiver", "name": "receiverId", "in": "formData", "required": true},
                    {"type": "file", "description": "document", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/app.UploadFileResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/app.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/app.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/media/{object}": {
            "get": {
                "tags": ["Chat"],
                "summary": "Download media kept in memory",
                "parameters": [{"type": "string", "description": "object name", "name": "object", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/messages/history": {
            "get": {
                "tags": ["Chat"],
                "summary": "Message history of a pair",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "user id", "name": "userA", "in": "query", "required": true},
                    {"type": "string", "description": "user id", "name": "userB", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/conversations/{userId}": {
            "get": {
                "tags": ["Chat"],
                "summary": "Conversation list",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "user id", "name": "userId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Conversation"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "app.ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "error": {"type": "string"}}
        },
        "app.SendMessageRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "receiverId": {"type": "string"},
                "senderId": {"type": "string"},
                "senderName": {"type": "string"},
                "timestamp": {"type": "integer"}
            }
        },
        "app.UploadAudioResponse": {
            "type": "object",
            "properties": {"audioUrl": {"type": "string"}}
        },
        "app.UploadFileResponse": {
            "type": "object",
            "properties": {"fileName": {"type": "string"}, "fileType": {"type": "string"}, "fileUrl": {"type": "string"}}
        },
        "domain.Conversation": {
            "type": "object",
            "properties": {
                "counterpartId": {"type": "string"},
                "counterpartName": {"type": "string"},
                "lastMessageAt": {"type": "integer"}
            }
        },
        "domain.FileMeta": {
            "type": "object",
            "properties": {"fileName": {"type": "string"}, "fileType": {"type": "string"}}
        },
        "domain.Message": {
            "type": "object",
            "properties": {
                "fileMeta": {"$ref": "#/definitions/domain.FileMeta"},
                "id": {"type": "string"},
                "kind": {"type": "string", "enum": ["text", "audio", "file"]},
                "mediaRef": {"type": "string"},
                "message": {"type": "string"},
                "receiverId": {"type": "string"},
                "senderId": {"type": "string"},
                "senderName": {"type": "string"},
                "timestamp": {"type": "integer"}
            }
        },
        "hub.Stats": {
            "type": "object",
            "properties": {"rooms": {"type": "integer"}, "sessions": {"type": "integer"}}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Gig Chat Service API",
	Description:      "Real-time buyer/seller chat: text, audio and document messages",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
