package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 30},
		{raw: "limit=5", want: 5},
		{raw: "limit=%20%2012%20", want: 12},
		{raw: "limit=0", want: 30},
		{raw: "limit=-3", want: 30},
		{raw: "limit=ten", want: 30},
		{raw: "limit=1000", want: 500},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			if got := ParseLimit(q, 30, 500); got != tt.want {
				t.Errorf("ParseLimit(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		check   func(*http.Request) *HTMXResponseBuilder
		allowed bool
		allow   string
	}{
		{name: "get ok", method: http.MethodGet, check: RequireGET, allowed: true},
		{name: "head ok", method: http.MethodHead, check: RequireGET, allowed: true},
		{name: "post on get route", method: http.MethodPost, check: RequireGET, allow: "GET, HEAD"},
		{name: "post ok", method: http.MethodPost, check: RequirePOST, allowed: true},
		{name: "get on post route", method: http.MethodGet, check: RequirePOST, allow: "POST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.check(httptest.NewRequest(tt.method, "/", nil))
			if tt.allowed {
				if resp != nil {
					t.Fatal("expected request to be allowed")
				}
				return
			}
			if resp == nil {
				t.Fatal("expected a rejection")
			}
			w := httptest.NewRecorder()
			resp.Write(w)
			if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != tt.allow {
				t.Errorf("status=%d Allow=%q", w.Code, w.Header().Get("Allow"))
			}
		})
	}
}
