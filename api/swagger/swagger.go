package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mail Tracking API",
        "description": "Access-controlled mail registry and referral workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and profile"},
        {"name": "Mail", "description": "Mail registry and attachments"},
        {"name": "Referrals", "description": "Referral workflow and comments"},
        {"name": "Directory", "description": "Departments and sections"},
        {"name": "Admin", "description": "Account and directory administration"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive a bearer token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/mails": {
            "get": {
                "tags": ["Mail"],
                "summary": "List visible mail",
                "parameters": [
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "departmentId", "in": "query", "type": "string"},
                    {"name": "referenceNumber", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "direction", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Mail"],
                "summary": "Register mail with attachments (multipart)",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "reference_number", "in": "formData", "required": true, "type": "string"},
                    {"name": "mail_date", "in": "formData", "required": true, "type": "string"},
                    {"name": "subject", "in": "formData", "required": true, "type": "string"},
                    {"name": "direction", "in": "formData", "required": true, "type": "string"},
                    {"name": "from_department_id", "in": "formData", "type": "string"},
                    {"name": "to_department_id", "in": "formData", "type": "string"},
                    {"name": "files", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Duplicate reference number"}
                }
            }
        },
        "/mails/{id}": {
            "get": {
                "tags": ["Mail"],
                "summary": "Mail detail with attachments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found or out of scope"}
                }
            }
        },
        "/mails/{id}/attachments": {
            "get": {
                "tags": ["Mail"],
                "summary": "List attachments of one mail item",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/attachments/{id}/download": {
            "get": {
                "tags": ["Mail"],
                "summary": "Download one attachment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "404": {"description": "Not found or out of scope"}
                }
            }
        },
        "/referrals": {
            "post": {
                "tags": ["Referrals"],
                "summary": "Refer mail to a section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReferralRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Already referred to this section"}
                }
            }
        },
        "/referrals/{id}": {
            "get": {
                "tags": ["Referrals"],
                "summary": "Referral detail (head reads advance Pending to Viewed)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Outside the caller's section"}
                }
            },
            "delete": {
                "tags": ["Referrals"],
                "summary": "Delete a referral and its comments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/referrals/{id}/status": {
            "patch": {
                "tags": ["Referrals"],
                "summary": "Apply a forward-only status transition",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateReferralStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/referrals/{id}/comments": {
            "get": {
                "tags": ["Referrals"],
                "summary": "Discussion trail, oldest first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Referrals"],
                "summary": "Append a comment (closed once Completed)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddCommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Referral completed"}
                }
            }
        },
        "/sections/{id}/referrals": {
            "get": {
                "tags": ["Referrals"],
                "summary": "List a section's referrals",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Outside the caller's section"}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Directory"],
                "summary": "List departments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/departments/{id}/sections": {
            "get": {
                "tags": ["Directory"],
                "summary": "List one department's sections",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/sections": {
            "get": {
                "tags": ["Directory"],
                "summary": "List all sections",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List accounts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Create an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Username taken"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateReferralRequest": {
            "type": "object",
            "properties": {
                "mailId": {"type": "string"},
                "sectionId": {"type": "string"}
            }
        },
        "UpdateReferralStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["Pending", "Viewed", "Completed"]}
            }
        },
        "AddCommentRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "fullName": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "manager", "head"]},
                "departmentId": {"type": "string"},
                "sectionId": {"type": "string"}
            }
        },
        "Meta": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "meta": {"$ref": "#/definitions/Meta"},
                "errors": {"type": "array", "items": {"type": "string"}}
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
