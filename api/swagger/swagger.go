package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Attendance API",
        "description": "Per-period class attendance tracking for a college department",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Attendance", "description": "Period attendance records"},
        {"name": "Leaves", "description": "Class and college leave days"},
        {"name": "Analytics", "description": "Aggregate attendance views and exports"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance for one class period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkPeriodRequest"}}
                ],
                "responses": {
                    "201": {"description": "Record stored"},
                    "422": {"description": "Validation error"}
                }
            }
        },
        "/attendance/{id}": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Replace the entries of a record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Record updated"},
                    "404": {"description": "Record not found"}
                }
            },
            "delete": {
                "tags": ["Attendance"],
                "summary": "Delete a record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Record deleted"},
                    "404": {"description": "Record not found"}
                }
            }
        },
        "/attendance/department": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List raw records for a semester",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Records"}
                }
            }
        },
        "/attendance/students/{id}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Student marks with per-semester statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report"},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/attendance/students/{id}/calendar": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Reconstructed day-by-day calendar",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Calendar"}
                }
            }
        },
        "/leaves/class": {
            "post": {
                "tags": ["Leaves"],
                "summary": "Mark a class leave day",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Leave created"},
                    "409": {"description": "Leave already exists"}
                }
            },
            "get": {
                "tags": ["Leaves"],
                "summary": "List class leaves",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Leaves"}
                }
            },
            "delete": {
                "tags": ["Leaves"],
                "summary": "Remove a class leave",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Leave removed"},
                    "404": {"description": "Leave not found"}
                }
            }
        },
        "/leaves/college": {
            "post": {
                "tags": ["Leaves"],
                "summary": "Mark a college leave day",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Leave created"},
                    "409": {"description": "Leave exists or attendance already recorded"}
                }
            },
            "get": {
                "tags": ["Leaves"],
                "summary": "List college leaves",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Leaves"}
                }
            },
            "delete": {
                "tags": ["Leaves"],
                "summary": "Remove a college leave",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Leave removed"},
                    "404": {"description": "Leave not found"}
                }
            }
        },
        "/analytics/students": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Students of a semester with attendance percentage",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Rows"}
                }
            }
        },
        "/analytics/low-attendance": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Students below the percentage threshold",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "threshold", "in": "query", "type": "number"}
                ],
                "responses": {
                    "200": {"description": "Rows, worst first"}
                }
            }
        },
        "/analytics/summary": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Semester summary with period completion",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Summary"}
                }
            }
        },
        "/analytics/low-attendance/export": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Low-attendance list as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV attachment"}
                }
            }
        },
        "/analytics/students/{id}/report": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Student attendance report as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "PDF attachment"}
                }
            }
        },
        "/analytics/exports/{token}": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Download an archived export by signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Archived export attachment"},
                    "404": {"description": "Link invalid, expired or export removed"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "MarkPeriodRequest": {
            "type": "object",
            "required": ["semester", "date", "period", "entries"],
            "properties": {
                "semester": {"type": "integer", "minimum": 1, "maximum": 8},
                "date": {"type": "string", "format": "date"},
                "period": {"type": "integer", "minimum": 1, "maximum": 5},
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/PeriodEntry"}
                }
            }
        },
        "PeriodEntry": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "status": {"type": "string", "enum": ["present", "absent"]}
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
                "pagination": {"type": "object"},
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
