package http

import (
	"io"
	"log/slog"
	"net/http"

	"labbudget/internal/auth"
	"labbudget/internal/core"
	"labbudget/internal/storage"
)

// maxBodySize bounds the document payload. The whole dataset travels in
// one blob, so a megabyte leaves ample headroom for years of records.
const maxBodySize = 1 << 20

// handleData serves the single-document endpoint: GET returns the stored
// dataset, PUT replaces it wholesale. Last write wins.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getData(w, r)
	case http.MethodPut:
		s.putData(w, r, user)
	default:
		writeMethodNotAllowed(w, r.Method)
	}
}

// authenticate resolves the bearer token. On failure it writes the 401
// envelope and returns ok=false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeUnauthorized(w)
		return "", false
	}
	user, err := s.authSvc.Verify(token)
	if err != nil {
		slog.WarnContext(r.Context(), "Token rejected", "error", err)
		writeUnauthorized(w)
		return "", false
	}
	return user, true
}

func (s *Server) getData(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Load(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load document", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load data")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) putData(w http.ResponseWriter, r *http.Request, user string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad payload")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}
	if !core.HasExpenseList(body) {
		writeError(w, http.StatusBadRequest, "Bad payload")
		return
	}

	// The payload is stored verbatim. Tolerant decoding happens on read,
	// so older client snapshots keep working.
	if err := s.docs.SaveRaw(r.Context(), body); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save document", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save data")
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDocumentSaved(r.Context(), storage.DocumentKey, user); err != nil {
			// The write succeeded; a missed event only delays the mirror.
			slog.WarnContext(r.Context(), "Failed to publish document saved event", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
