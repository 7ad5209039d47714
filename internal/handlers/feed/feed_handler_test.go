package feed

import (
	"net/http/httptest"
	"testing"
)

func TestOriginChecker(t *testing.T) {
	check := originChecker("https://destiny-store.co.il")

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "site origin", origin: "https://destiny-store.co.il", want: true},
		{name: "site origin different case", origin: "https://Destiny-Store.co.il", want: true},
		{name: "no origin header", origin: "", want: true},
		{name: "foreign host", origin: "https://evil.example.com", want: false},
		{name: "scheme downgrade", origin: "http://destiny-store.co.il", want: false},
		{name: "host with extra port", origin: "https://destiny-store.co.il:8443", want: false},
		{name: "garbage origin", origin: "://not-a-url", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws/admin/orders", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			if got := check(req); got != tt.want {
				t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestOriginCheckerRejectsBrowsersWhenBaseURLUnset(t *testing.T) {
	check := originChecker("")

	req := httptest.NewRequest("GET", "/ws/admin/orders", nil)
	req.Header.Set("Origin", "https://destiny-store.co.il")
	if check(req) {
		t.Error("expected browser origins to be rejected when no base URL is configured")
	}

	req = httptest.NewRequest("GET", "/ws/admin/orders", nil)
	if !check(req) {
		t.Error("expected header-less clients to pass")
	}
}
