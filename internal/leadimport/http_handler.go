package leadimport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/domain"
	"github.com/warmloop/warmloop/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Handler exposes mapping suggestion, validation, import, undo, and the
// import error log.
type Handler struct {
	service     *Service
	datasetRepo repository.DatasetRepository
	logRepo     repository.ImportLogRepository
}

// NewHTTPHandler wraps the import service for REST routing.
func NewHTTPHandler(service *Service, datasetRepo repository.DatasetRepository, logRepo repository.ImportLogRepository) *Handler {
	return &Handler{service: service, datasetRepo: datasetRepo, logRepo: logRepo}
}

// Register mounts the import routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/datasets/{id}/mappings", h.mappings).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}/validate", h.validate).Methods(http.MethodPost)
	r.HandleFunc("/datasets/{id}/import", h.doImport).Methods(http.MethodPost)
	r.HandleFunc("/imports/undo", h.undo).Methods(http.MethodPost)
	r.HandleFunc("/imports/logs", h.logs).Methods(http.MethodGet)
}

type mappingsResponse struct {
	TargetFields []TargetField          `json:"targetFields"`
	Mappings     []domain.ColumnMapping `json:"mappings"`
}

func (h *Handler) mappings(w http.ResponseWriter, r *http.Request) {
	ds, err := h.datasetRepo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, mappingsResponse{
		TargetFields: TargetFields,
		Mappings:     AutoMap(ds),
	})
}

type mappingsRequest struct {
	Mappings []domain.ColumnMapping `json:"mappings"`
}

type validateResponse struct {
	ValidCount   int                    `json:"validCount"`
	InvalidCount int                    `json:"invalidCount"`
	Results      []domain.RowValidation `json:"results"`
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	ds, req, ok := h.datasetAndMappings(w, r)
	if !ok {
		return
	}

	results := ValidateRows(ds, req.Mappings)
	resp := validateResponse{Results: results}
	for _, result := range results {
		if result.Valid {
			resp.ValidCount++
		} else {
			resp.InvalidCount++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) doImport(w http.ResponseWriter, r *http.Request) {
	ds, req, ok := h.datasetAndMappings(w, r)
	if !ok {
		return
	}

	result, err := h.service.Import(r.Context(), Request{Dataset: ds, Mappings: req.Mappings})
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type undoRequest struct {
	InsertedIDs []uuid.UUID `json:"insertedIds"`
}

type undoResponse struct {
	DeletedCount int `json:"deletedCount"`
}

func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	deleted, err := h.service.Undo(r.Context(), req.InsertedIDs)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, undoResponse{DeletedCount: deleted})
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	datasetID := strings.TrimSpace(r.URL.Query().Get("dataset"))
	if datasetID == "" {
		http.Error(w, "dataset query parameter is required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.logRepo.List(r.Context(), userID, datasetID, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) datasetAndMappings(w http.ResponseWriter, r *http.Request) (domain.Dataset, mappingsRequest, bool) {
	ds, err := h.datasetRepo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return domain.Dataset{}, mappingsRequest{}, false
	}

	var req mappingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return domain.Dataset{}, mappingsRequest{}, false
	}
	if len(req.Mappings) == 0 {
		req.Mappings = AutoMap(ds)
	}

	return ds, req, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
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
