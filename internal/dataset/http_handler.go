package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/repository"

	"github.com/gorilla/mux"
)

// Handler exposes dataset import, listing, export, and deletion.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service for REST routing.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the dataset routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/datasets", h.upload).Methods(http.MethodPost)
	r.HandleFunc("/datasets", h.list).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/datasets/{id}/export", h.export).Methods(http.MethodGet)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}
	if len(payload) == 0 {
		http.Error(w, "file is empty", http.StatusBadRequest)
		return
	}

	ds, err := h.service.Import(r.Context(), header.Filename, payload)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, ds)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	fileName, csvText, err := h.service.Export(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	_, _ = w.Write([]byte(csvText))
}

func statusFor(err error) int {
	var parseErr *ParseError
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &parseErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
