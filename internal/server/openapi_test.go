package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleOpenAPI(t *testing.T) {
	h := handleOpenAPI()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()

	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("content-type = %q, want application/json", got)
	}

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding document: %v", err)
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		t.Errorf("openapi = %q, want 3.x", doc.OpenAPI)
	}

	want := map[string]string{
		"/healthz":                               "get",
		"/api/join":                              "post",
		"/api/submissions":                       "post",
		"/api/events":                            "get",
		"/api/admin/submissions/{id}/verify":     "post",
		"/api/admin/submissions/{id}/deny":       "post",
		"/api/admin/control-room":                "get",
		"/api/admin/game/start":                  "post",
		"/api/admin/resets/{name}":               "post",
		"/api/admin/sessions/{id}/unblock":       "post",
		"/api/admin/options/rules/save-defaults": "post",
	}
	for path, method := range want {
		if _, ok := doc.Paths[path][method]; !ok {
			t.Errorf("document is missing %s %s", strings.ToUpper(method), path)
		}
	}

	documented := 0
	for _, item := range doc.Paths {
		for method := range item {
			switch method {
			case "get", "post", "put", "delete", "patch":
				documented++
			}
		}
	}
	if want := len(apiOperations()); documented != want {
		t.Errorf("documented %d operations, want %d", documented, want)
	}
}

func TestOpenAPIPathParameters(t *testing.T) {
	spec, err := newOpenAPISpec()
	if err != nil {
		t.Fatalf("building document: %v", err)
	}
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Paths map[string]map[string]struct {
			Parameters []struct {
				Name string `json:"name"`
				In   string `json:"in"`
			} `json:"parameters"`
			RequestBody *json.RawMessage `json:"requestBody"`
		} `json:"paths"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path, method, param string
		body                bool
	}{
		{"/api/admin/submissions/{id}/verify", "post", "id", true},
		{"/api/admin/submissions/{id}/queue", "get", "id", false},
		{"/api/admin/teams/{id}", "put", "id", true},
		{"/api/admin/options/{kind}", "put", "kind", true},
		{"/api/admin/resets/{name}", "post", "name", false},
		{"/api/admin/sessions/{id}/unblock", "post", "id", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			op, ok := doc.Paths[tt.path][tt.method]
			if !ok {
				t.Fatal("operation missing")
			}
			found := false
			for _, p := range op.Parameters {
				if p.Name == tt.param && p.In == "path" {
					found = true
				}
			}
			if !found {
				t.Errorf("parameters = %+v, want path parameter %q", op.Parameters, tt.param)
			}
			if (op.RequestBody != nil) != tt.body {
				t.Errorf("request body present = %v, want %v", op.RequestBody != nil, tt.body)
			}
		})
	}
}
