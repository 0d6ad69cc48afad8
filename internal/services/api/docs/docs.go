// Package docs holds the OpenAPI document served under /api/docs
// regenerate with swag init -g cmd/storepulse-api/main.go --v3.1 -o internal/services/api/docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.0.3",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "paths": {
        "/reports/trigger": {
            "post": {
                "tags": ["Reports"],
                "summary": "Start a report job",
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.TriggerResult"}}}
                    },
                    "503": {
                        "description": "Job queue full or shutting down",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}
                    }
                }
            }
        },
        "/reports/{report_id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Poll a report job, the CSV is returned once complete",
                "parameters": [
                    {"name": "report_id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}
                ],
                "responses": {
                    "200": {
                        "description": "Job status, or the report file",
                        "content": {
                            "application/json": {"schema": {"$ref": "#/components/schemas/domain.Job"}},
                            "text/csv": {"schema": {"type": "string", "format": "binary"}}
                        }
                    },
                    "404": {
                        "description": "Unknown report",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}
                    },
                    "422": {
                        "description": "Malformed report id",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}
                    }
                }
            }
        },
        "/reports/{report_id}/stats": {
            "get": {
                "tags": ["Reports"],
                "summary": "Summary statistics of a completed CSV report",
                "parameters": [
                    {"name": "report_id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.ReportStats"}}}
                    },
                    "404": {
                        "description": "Unknown report or no readable result",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}
                    }
                }
            }
        },
        "/meta/health": {
            "get": {
                "tags": ["Meta"],
                "summary": "Liveness",
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.HealthResponse"}}}}
                }
            }
        },
        "/meta/ready": {
            "get": {
                "tags": ["Meta"],
                "summary": "Readiness, pings every configured store",
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.ReadyResponse"}}}},
                    "503": {"description": "A store failed its ping", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.ReadyResponse"}}}}
                }
            }
        },
        "/meta/version": {
            "get": {
                "tags": ["Meta"],
                "summary": "Build and version info",
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/version.BuildInfo"}}}}
                }
            }
        },
        "/meta/service": {
            "get": {
                "tags": ["Meta"],
                "summary": "Service info and uptime",
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.ServiceResponse"}}}}
                }
            }
        }
    },
    "components": {
        "schemas": {
            "domain.TriggerResult": {
                "type": "object",
                "properties": {
                    "report_id": {"type": "string", "example": "5b0c3a4e-8f7d-4b7e-9a51-4c1f0f1d2a77"}
                }
            },
            "domain.Job": {
                "type": "object",
                "properties": {
                    "report_id": {"type": "string", "example": "5b0c3a4e-8f7d-4b7e-9a51-4c1f0f1d2a77"},
                    "status": {"type": "string", "enum": ["Running", "Complete", "Failed"], "example": "Complete"},
                    "created_at": {"type": "string", "format": "date-time"},
                    "completed_at": {"type": "string", "format": "date-time"},
                    "result_handle": {"type": "string", "example": "reports/report_5b0c3a4e-8f7d-4b7e-9a51-4c1f0f1d2a77.csv"},
                    "error": {"type": "string"},
                    "entities": {"type": "integer"},
                    "failed_entities": {"type": "integer"}
                }
            },
            "domain.StoreUptime": {
                "type": "object",
                "properties": {
                    "store_id": {"type": "string", "example": "8419537941919820732"},
                    "uptime_last_week": {"type": "number", "example": 131.5}
                }
            },
            "domain.ReportStats": {
                "type": "object",
                "properties": {
                    "total_stores": {"type": "integer", "example": 42},
                    "averages": {"type": "object", "additionalProperties": {"type": "number"}},
                    "best_performing_store": {"$ref": "#/components/schemas/domain.StoreUptime"},
                    "worst_performing_store": {"$ref": "#/components/schemas/domain.StoreUptime"}
                }
            },
            "http.HealthResponse": {
                "type": "object",
                "properties": {
                    "ok": {"type": "boolean"},
                    "service": {"type": "string", "example": "storepulse-api"},
                    "now": {"type": "string"}
                }
            },
            "http.ReadyCheck": {
                "type": "object",
                "properties": {
                    "name": {"type": "string", "example": "pg"},
                    "status": {"type": "string", "enum": ["ok", "fail", "skipped"]},
                    "error": {"type": "string"},
                    "ms": {"type": "integer", "example": 3}
                }
            },
            "http.ReadyResponse": {
                "type": "object",
                "properties": {
                    "status": {"type": "string", "example": "ok"},
                    "checks": {"type": "array", "items": {"$ref": "#/components/schemas/http.ReadyCheck"}},
                    "now": {"type": "string"}
                }
            },
            "http.ServiceResponse": {
                "type": "object",
                "properties": {
                    "name": {"type": "string", "example": "storepulse-api"},
                    "started": {"type": "string"},
                    "uptime": {"type": "integer", "example": 300},
                    "report_sink": {"type": "string", "enum": ["csv", "clickhouse"]}
                }
            },
            "version.BuildInfo": {
                "type": "object",
                "properties": {
                    "service": {"type": "string"},
                    "version": {"type": "string"},
                    "commit": {"type": "string"},
                    "date": {"type": "string"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Title:            "Storepulse API",
	Description:      "Store uptime and downtime reports over business hours",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
