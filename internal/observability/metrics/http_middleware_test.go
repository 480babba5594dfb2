package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/catalogue":                   "/api/catalogue",
		"/api/lessons/abc-123":             "/api/lessons/{id}",
		"/api/lessons/abc-123/validate":    "/api/lessons/{id}/validate",
		"/api/lessons/abc-123/entitlement": "/api/lessons/{id}/entitlement",
		"/api/themes/t1":                   "/api/themes/{id}",
		"/api/checkout/cursuses/c9":        "/api/checkout/cursuses/{id}",
		"/api/payments/lessons/l2/confirm": "/api/payments/lessons/{id}/confirm",
		"/healthz":                         "/healthz",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
