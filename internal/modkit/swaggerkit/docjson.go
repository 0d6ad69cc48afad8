package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"storepulse/internal/platform/config"

	docs "storepulse/internal/services/api/docs"
)

// SpecMutator adjusts the parsed OpenAPI document before it is served
type SpecMutator func(map[string]any)

// docReader is a seam so tests can feed a broken document
var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

const requestIDExample = "579f33bf50b1/abc-000001"

// fallback is an error response added to every operation that does not declare the status itself
type fallback struct {
	status  int
	label   string
	code    int
	message string
	// only applies when the route has a path parameter
	pathParamOnly bool
}

var fallbacks = []fallback{
	{status: http.StatusInternalServerError, label: "Internal Server Error", code: 1, message: "panic recovered"},
	{status: http.StatusUnprocessableEntity, label: "Unprocessable Entity", code: 4, message: "report_id failed uuid validation", pathParamOnly: true},
}

func serveDocJSON(mut []SpecMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, "/api/v1")
		if suffix := config.New().Prefix("CORE_API_").MayString("DOCS_TITLE_SUFFIX", ""); suffix != "" {
			if info, ok := spec["info"].(map[string]any); ok {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + suffix
				}
			}
		}
		ensureErrorResponse(spec)
		eachOperation(spec, func(path string, responses map[string]any) {
			for _, f := range fallbacks {
				if f.pathParamOnly && !strings.Contains(path, "{") {
					continue
				}
				if _, ok := responses[strconv.Itoa(f.status)]; !ok {
					responses[strconv.Itoa(f.status)] = f.response()
				}
			}
		})

		for _, m := range mut {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers pins the document to OAS 3.0.3, the bundled swagger ui cannot render 3.1
func ensureServers(spec map[string]any, url string) {
	if _, ok := spec["swagger"]; ok {
		delete(spec, "swagger")
		spec["openapi"] = "3.0.3"
	}
	if v, ok := spec["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

// ensureErrorResponse adds the error envelope schema when the document lacks it
// it mirrors the wire written by phttp.Error
func ensureErrorResponse(spec map[string]any) {
	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Standard error response",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

// eachOperation calls fn with the path and responses object of every operation
func eachOperation(spec map[string]any, fn func(path string, responses map[string]any)) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	for path, node := range paths {
		ops, ok := node.(map[string]any)
		if !ok {
			continue
		}
		for _, v := range ops {
			op, ok := v.(map[string]any)
			if !ok {
				continue
			}
			fn(path, child(op, "responses"))
		}
	}
}

func (f fallback) response() map[string]any {
	return map[string]any{
		"description": f.label,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": f.status,
					"status":      f.label,
					"code":        f.code,
					"error":       f.message,
					"request_id":  requestIDExample,
				},
			},
		},
	}
}

// child returns m[key] as an object, creating it when missing
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}
