package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"labbudget/internal/core"
)

type fakeSession struct {
	active bool
	token  string
	err    error
}

func (s *fakeSession) Active() bool { return s.active }

func (s *fakeSession) Token(context.Context) (string, error) { return s.token, s.err }

func TestLoadNormalizesSparseDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"expenses": [{"label": "Pipettes", "amount": "12,50"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeSession{active: true, token: "tok-1"})
	doc, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !doc.Budgets.Fonctionnement.IsZero() || !doc.Budgets.Investissement.IsZero() {
		t.Errorf("missing budgets should default to zero, got %+v", doc.Budgets)
	}
	if len(doc.Expenses) != 1 {
		t.Fatalf("expenses = %d, want 1", len(doc.Expenses))
	}
	e := doc.Expenses[0]
	if e.ID == "" {
		t.Error("missing id should be generated")
	}
	if e.Type != core.DefaultType {
		t.Errorf("type = %q, want %q", e.Type, core.DefaultType)
	}
	if !e.Amount.Equal(core.NewAmount(12.5)) {
		t.Errorf("amount = %s, want 12.5", e.Amount)
	}
}

func TestLoadExpensesNotAList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"expenses": "not-a-list"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeSession{active: true, token: "tok"})
	doc, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Expenses) != 0 {
		t.Errorf("non-list expenses should normalize to empty, got %d", len(doc.Expenses))
	}
}

func TestAuthRequiredSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeSession{active: true, token: "stale"})

	if _, err := c.Load(context.Background()); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Load error = %v, want ErrAuthRequired", err)
	}
	if err := c.Save(context.Background(), core.EmptyDocument()); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Save error = %v, want ErrAuthRequired", err)
	}
}

func TestNoCredentialWithoutSession(t *testing.T) {
	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeSession{active: false, token: "should-not-be-sent"})
	if _, err := c.Load(context.Background()); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if sawAuth != "" {
		t.Errorf("request carried Authorization %q without a session", sawAuth)
	}
}

func TestSaveSendsWholeDocument(t *testing.T) {
	var method string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		body, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	doc := core.EmptyDocument()
	doc.Budgets.Fonctionnement = core.NewAmount(1000)
	doc.Expenses = append(doc.Expenses, core.Expense{
		ID: "e1", Date: "2026-03-01", Label: "Pipettes",
		Type: "Consommables", Envelope: core.EnvelopeFonctionnement,
		Status: core.StatusVotee, Amount: core.NewAmount(42),
	})

	c := New(srv.URL, &fakeSession{active: true, token: "tok"})
	if err := c.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if method != http.MethodPut {
		t.Errorf("method = %s, want PUT", method)
	}
	var sent map[string]json.RawMessage
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("sent body is not JSON: %v", err)
	}
	if _, ok := sent["expenses"]; !ok {
		t.Error("sent body missing expenses field")
	}
	if _, ok := sent["budgets"]; !ok {
		t.Error("sent body missing budgets field")
	}
}

func TestServerFaultIsNotAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeSession{active: true, token: "tok"})
	_, err := c.Load(context.Background())
	if err == nil || errors.Is(err, ErrAuthRequired) {
		t.Errorf("want a generic error, got %v", err)
	}
}
