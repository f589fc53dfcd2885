package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"canteen/internal/core"
)

func mustMoney(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseAmount(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func httptestRequest(authorization string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/cron/daily-report", nil)
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	return r
}

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("X-Custom = %q", w.Header().Get("X-Custom"))
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"n":1}` {
		t.Errorf("Body = %s", got)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		builder    *JSONResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{"bad request", BadRequestError("Invalid expense", errors.New("invalid amount")), http.StatusBadRequest, `{"message":"Invalid expense","error":"invalid amount"}`},
		{"internal", InternalServerError("Failed to fetch expenses"), http.StatusInternalServerError, `{"message":"Failed to fetch expenses"}`},
		{"validation", ValidationError("Invalid expense", map[string]string{"amount": "required"}), http.StatusBadRequest, `{"message":"Invalid expense","fields":{"amount":"required"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestMethodNotAllowedHasNoBody(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowedError("GET").Write(w)
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "GET" || w.Body.Len() != 0 {
		t.Fatalf("status=%d allow=%q body=%q", w.Code, w.Header().Get("Allow"), w.Body.String())
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain  ":         "plain",
		"tab\tkept":         "tab\tkept",
		"bell\x07gone":      "bellgone",
		"line\nbreak\r\nok": "line\nbreak\r\nok",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
