// Package handler exposes a Database over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stevemurr/laws/database"
	"github.com/stevemurr/laws/dberr"
	"github.com/stevemurr/laws/table"
)

// maxBodyBytes bounds a request body.
const maxBodyBytes = 32 << 20

// Handler holds the server dependencies and registers routes.
type Handler struct {
	db     *database.Database
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Handler and wires up all routes. A nil logger uses slog.Default().
func New(db *database.Database, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{db: db, logger: logger, mux: http.NewServeMux()}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /health", h.health)

	h.mux.HandleFunc("GET /db", h.readDB)
	h.mux.HandleFunc("POST /db/save", h.save)

	h.mux.HandleFunc("POST /db/table/{table_name}", h.createTable)
	h.mux.HandleFunc("GET /db/table/{table_name}", h.readTable)
	h.mux.HandleFunc("DELETE /db/table/{table_name}", h.deleteTable)

	h.mux.HandleFunc("POST /db/table/{table_name}/doc", h.document(h.db.CreateDocument))
	h.mux.HandleFunc("GET /db/table/{table_name}/doc", h.readDocument)
	h.mux.HandleFunc("PUT /db/table/{table_name}/doc", h.document(h.db.UpdateDocument))
	h.mux.HandleFunc("DELETE /db/table/{table_name}/doc", h.document(h.db.DeleteDocument))
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch dberr.KindOf(err) {
	case dberr.ErrMissingFields:
		return http.StatusFailedDependency
	case dberr.ErrTableNotFound:
		return http.StatusNotFound
	case dberr.ErrBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func readJSON(w http.ResponseWriter, r *http.Request) (any, error) {
	defer r.Body.Close()
	v, err := table.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, dberr.BadInput("invalid JSON body: %v", err)
	}
	return v, nil
}

// ---------- status endpoints ----------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------- database endpoints ----------

func (h *Handler) readDB(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.db.ReadDB())
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Save(); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// ---------- table endpoints ----------

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	info, err := readJSON(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	name := r.PathValue("table_name")
	if obj, ok := info.(map[string]any); ok {
		switch given := obj["table_name"].(type) {
		case nil:
			obj["table_name"] = name
		case string:
			if given != name {
				h.fail(w, r, dberr.BadInput("table_name %q does not match path %q", given, name))
				return
			}
		}
	}
	if err := h.db.CreateTable(info); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) readTable(w http.ResponseWriter, r *http.Request) {
	def, err := h.db.ReadTable(r.PathValue("table_name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteTable(r.PathValue("table_name")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// ---------- document endpoints ----------

func (h *Handler) document(op func(name string, payload any) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := readJSON(w, r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := op(r.PathValue("table_name"), info); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nil)
	}
}

func (h *Handler) readDocument(w http.ResponseWriter, r *http.Request) {
	info, err := readJSON(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.db.ReadDocument(r.PathValue("table_name"), info)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// A nil Document encodes as null.
	writeJSON(w, http.StatusOK, doc)
}
