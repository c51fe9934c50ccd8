package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/information-sharing-networks/https-app/internal/response"
	"github.com/information-sharing-networks/https-app/internal/server/middleware"
)

func TestNewAppRegistersTwoBodyParsersBeforeRoutes(t *testing.T) {
	calls := 0
	middlewareCount := -1

	app, err := NewApp(AppOptions{}, func(r chi.Router) {
		calls++
		middlewareCount = len(r.Middlewares())
		r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {})
	})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("route registrar called %d times, want 1", calls)
	}
	if middlewareCount != 2 {
		t.Errorf("middleware registered before routes: got %d, want 2", middlewareCount)
	}
	if got := len(app.Middlewares()); got != 2 {
		t.Errorf("application middleware: got %d, want 2", got)
	}
}

func TestNewAppBodyParserOrder(t *testing.T) {
	var jsonBody, formBody any

	app, err := NewApp(AppOptions{}, func(r chi.Router) {
		r.Post("/json", func(w http.ResponseWriter, r *http.Request) {
			jsonBody, _ = middleware.Body(r)
		})
		r.Post("/form", func(w http.ResponseWriter, r *http.Request) {
			formBody, _ = middleware.Body(r)
		})
	})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/json", strings.NewReader(`{"a":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	app.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/form", strings.NewReader("a[b]=c"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	app.ServeHTTP(httptest.NewRecorder(), req)

	if m, ok := jsonBody.(map[string]any); !ok || m["a"] != "b" {
		t.Errorf("json body: got %#v", jsonBody)
	}
	// the form parser runs in extended mode
	if m, ok := formBody.(map[string]any); !ok {
		t.Errorf("form body: got %#v", formBody)
	} else if nested, ok := m["a"].(map[string]any); !ok || nested["b"] != "c" {
		t.Errorf("form body is not nested: got %#v", formBody)
	}
}

func TestNewAppRegistrationPanicIsReturned(t *testing.T) {
	_, err := NewApp(AppOptions{}, func(r chi.Router) {
		r.Get("no-leading-slash", func(w http.ResponseWriter, r *http.Request) {})
	})
	if err == nil {
		t.Fatal("expected an error from an invalid route pattern")
	}
	if !strings.Contains(err.Error(), "route registration failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewAppNilRegistrar(t *testing.T) {
	if _, err := NewApp(AppOptions{}, nil); err == nil {
		t.Fatal("expected an error for a nil registrar")
	}
}

func TestNewAppNotFoundUsesEnvelope(t *testing.T) {
	app, err := NewApp(AppOptions{}, func(r chi.Router) {
		r.Get("/exists", func(w http.ResponseWriter, r *http.Request) {})
	})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rr.Code)
	}
	var got response.APIResponse[struct{}]
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("not an envelope: %v", err)
	}
	if got.Success || !strings.Contains(got.Message, "/missing") {
		t.Errorf("unexpected envelope: %+v", got)
	}
}

func TestNewAppLimitsBodySizeWithoutServer(t *testing.T) {
	tests := []struct {
		name     string
		opts     AppOptions
		bodySize int
		wantCode int
	}{
		{"default limit accepts small bodies", AppOptions{}, 1024, http.StatusOK},
		{"default limit rejects large bodies", AppOptions{}, 5 << 20, http.StatusRequestEntityTooLarge},
		{"configured limit", AppOptions{MaxRequestBody: 256}, 512, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			app, err := NewApp(tt.opts, func(r chi.Router) {
				r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
					called = true
				})
			})
			if err != nil {
				t.Fatalf("NewApp failed: %v", err)
			}

			body := `{"data":"` + strings.Repeat("x", tt.bodySize) + `"}`
			for _, declared := range []bool{true, false} {
				called = false
				req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				if !declared {
					req.ContentLength = -1
				}
				rr := httptest.NewRecorder()
				app.ServeHTTP(rr, req)

				if rr.Code != tt.wantCode {
					t.Errorf("declared length %v: status got %d, want %d", declared, rr.Code, tt.wantCode)
				}
				if called != (tt.wantCode == http.StatusOK) {
					t.Errorf("declared length %v: handler called %v", declared, called)
				}
			}
		})
	}
}
