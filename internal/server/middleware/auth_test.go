package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// okHandler counts the requests that got past the middleware
func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireKey_ValidKey(t *testing.T) {
	var calls int
	handler := RequireKey("s3cret")(okHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/runs/current", nil)
	req.Header.Set(AuthHeader, "s3cret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func TestRequireKey_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong", "guess"},
		{"prefix", "s3cre"},
		{"longer", "s3cret!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			handler := RequireKey("s3cret")(okHandler(&calls))

			req := httptest.NewRequest(http.MethodPost, "/runs", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Zero(t, calls)
		})
	}
}

func TestRequireKey_OpenPathsAndPreflight(t *testing.T) {
	var calls int
	handler := RequireKey("s3cret", "/health")(okHandler(&calls))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/runs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, calls)
}

func TestRequireKey_DisabledWhenEmpty(t *testing.T) {
	var calls int
	handler := RequireKey("")(okHandler(&calls))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}
