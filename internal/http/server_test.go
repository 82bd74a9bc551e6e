package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"labbudget/internal/auth"
	"labbudget/internal/storage"
)

type recordingPublisher struct {
	keys    []string
	savedBy []string
}

func (p *recordingPublisher) PublishDocumentSaved(_ context.Context, key, savedBy string) error {
	p.keys = append(p.keys, key)
	p.savedBy = append(p.savedBy, savedBy)
	return nil
}

func newTestServer(t *testing.T) (*Server, *recordingPublisher, string) {
	t.Helper()

	hash, err := auth.HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	authSvc := auth.NewService("test-jwt-secret", "lab", hash, time.Hour)
	docs := storage.NewDocumentStore(storage.NewMemoryStore())
	pub := &recordingPublisher{}

	srv := NewServer(":0", docs, authSvc, pub)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	token, err := authSvc.Login("lab", "secret-password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return srv, pub, token
}

func doRequest(srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestDataRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodGet, "/api/data", tt.token, "")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body["error"] != "Unauthorized" {
				t.Errorf("error = %q, want Unauthorized", body["error"])
			}
			if body["hint"] == "" {
				t.Error("expected a hint in the 401 body")
			}
		})
	}
}

func TestDataRoundTrip(t *testing.T) {
	srv, pub, token := newTestServer(t)

	payload := `{
		"budgets": {"Fonctionnement": 1000, "Investissement": 500},
		"expenses": [
			{"id": "e1", "date": "2026-01-10", "label": "Pipettes", "type": "Consommables",
			 "envelope": "Fonctionnement", "status": "Service fait", "amount": 120.5}
		]
	}`

	rec := doRequest(srv, http.MethodPut, "/api/data", token, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var ok map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &ok); err != nil || !ok["ok"] {
		t.Fatalf("PUT body = %s, want {\"ok\":true}", rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/data", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var doc struct {
		Budgets struct {
			Fonctionnement float64 `json:"Fonctionnement"`
		} `json:"budgets"`
		Expenses []struct {
			ID     string  `json:"id"`
			Label  string  `json:"label"`
			Amount float64 `json:"amount"`
		} `json:"expenses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("GET body decode: %v", err)
	}
	if doc.Budgets.Fonctionnement != 1000 {
		t.Errorf("Fonctionnement = %v, want 1000", doc.Budgets.Fonctionnement)
	}
	if len(doc.Expenses) != 1 || doc.Expenses[0].Label != "Pipettes" || doc.Expenses[0].Amount != 120.5 {
		t.Errorf("unexpected expenses: %+v", doc.Expenses)
	}

	if len(pub.keys) != 1 || pub.keys[0] != storage.DocumentKey {
		t.Errorf("published keys = %v, want [%s]", pub.keys, storage.DocumentKey)
	}
	if len(pub.savedBy) != 1 || pub.savedBy[0] != "lab" {
		t.Errorf("savedBy = %v, want [lab]", pub.savedBy)
	}
}

func TestPutRejectsBadPayloads(t *testing.T) {
	srv, pub, token := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"expenses not a list", `{"expenses": "not-a-list"}`},
		{"missing expenses", `{"budgets": {}}`},
		{"not json at all", `<html>`},
		{"top level array", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPut, "/api/data", token, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body["error"] != "Bad payload" {
				t.Errorf("error = %q, want Bad payload", body["error"])
			}
		})
	}
	if len(pub.keys) != 0 {
		t.Errorf("rejected payloads must not publish events, got %v", pub.keys)
	}
}

func TestDataMethodNotAllowed(t *testing.T) {
	srv, _, token := newTestServer(t)

	for _, method := range []string{http.MethodDelete, http.MethodPatch} {
		rec := doRequest(srv, method, "/api/data", token, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s status = %d, want 405", method, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if body["method"] != method {
			t.Errorf("method = %q, want %q", body["method"], method)
		}
	}
}

func TestEmptyStoreServesDefaults(t *testing.T) {
	srv, _, token := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/data", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var doc struct {
		Expenses []json.RawMessage `json:"expenses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Expenses) != 0 {
		t.Errorf("expected empty expense list, got %d entries", len(doc.Expenses))
	}
}

func TestLogin(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/login", "", `{"user":"lab","password":"secret-password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("expected a token, body = %s", rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/data", resp.Token, "")
	if rec.Code != http.StatusOK {
		t.Errorf("token from login rejected, status = %d", rec.Code)
	}

	rec = doRequest(srv, http.MethodPost, "/api/login", "", `{"user":"lab","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/login", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET login status = %d, want 405", rec.Code)
	}
}

func TestSummary(t *testing.T) {
	srv, _, token := newTestServer(t)

	payload := `{
		"budgets": {"Fonctionnement": 1000, "Investissement": 500},
		"expenses": [
			{"id": "e1", "date": "2026-01-10", "label": "Pipettes", "type": "Consommables",
			 "envelope": "Fonctionnement", "status": "Service fait", "amount": 300, "project": "ANR-X"},
			{"id": "e2", "date": "2026-02-01", "label": "Oscilloscope", "type": "Équipement",
			 "envelope": "Investissement", "status": "Engagée", "amount": 450,
			 "quoteNumber": "Q-17", "quoteDate": "2020-01-01"}
		]
	}`
	if rec := doRequest(srv, http.MethodPut, "/api/data", token, payload); rec.Code != http.StatusOK {
		t.Fatalf("seed PUT failed: %d", rec.Code)
	}

	rec := doRequest(srv, http.MethodGet, "/api/summary", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Total            float64            `json:"total"`
		Remaining        map[string]float64 `json:"remaining"`
		TotalsByEnvelope map[string]float64 `json:"totalsByEnvelope"`
		Reminders        []json.RawMessage  `json:"reminders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 750 {
		t.Errorf("total = %v, want 750", resp.Total)
	}
	if resp.Remaining["Fonctionnement"] != 700 {
		t.Errorf("remaining Fonctionnement = %v, want 700", resp.Remaining["Fonctionnement"])
	}
	if resp.Remaining["Investissement"] != 50 {
		t.Errorf("remaining Investissement = %v, want 50", resp.Remaining["Investissement"])
	}
	if len(resp.Reminders) == 0 {
		t.Error("expected a quote-without-po reminder for e2")
	}

	rec = doRequest(srv, http.MethodGet, "/api/summary?envelope=Fonctionnement", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered status = %d", rec.Code)
	}
	var filtered struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &filtered); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if filtered.Total != 300 {
		t.Errorf("filtered total = %v, want 300", filtered.Total)
	}

	if rec := doRequest(srv, http.MethodGet, "/api/summary", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("summary without token = %d, want 401", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(srv, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/data", "", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
