package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		cookie     string
		header     string
		wantStatus int
	}{
		{name: "login page is public", path: "/login", wantStatus: http.StatusOK},
		{name: "camera upload is public", path: "/api/frames", wantStatus: http.StatusOK},
		{name: "static assets are public", path: "/css/app.css", wantStatus: http.StatusOK},
		{name: "api without cookie", path: "/api/captures", wantStatus: http.StatusUnauthorized},
		{name: "ajax without cookie", path: "/gallery", header: "XMLHttpRequest", wantStatus: http.StatusUnauthorized},
		{name: "page without cookie redirects", path: "/gallery", wantStatus: http.StatusSeeOther},
		{name: "wrong cookie value", path: "/api/captures", cookie: "false", wantStatus: http.StatusUnauthorized},
		{name: "logged in", path: "/api/captures", cookie: "true", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("X-Requested-With", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
