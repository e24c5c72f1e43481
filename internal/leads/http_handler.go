package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/notify"
	"github.com/warmloop/warmloop/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Handler exposes lead CRUD, stats, top leads, and the change event stream.
type Handler struct {
	service *Service
	broker  *notify.Broker
}

// NewHTTPHandler wraps the service for REST routing. The broker may be nil,
// in which case the events endpoint streams nothing.
func NewHTTPHandler(service *Service, broker *notify.Broker) *Handler {
	return &Handler{service: service, broker: broker}
}

// Register mounts the lead routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/leads", h.create).Methods(http.MethodPost)
	r.HandleFunc("/leads", h.list).Methods(http.MethodGet)
	r.HandleFunc("/leads/stats", h.stats).Methods(http.MethodGet)
	r.HandleFunc("/leads/top", h.top).Methods(http.MethodGet)
	r.HandleFunc("/leads/events", h.events).Methods(http.MethodGet)
	r.HandleFunc("/leads/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/leads/{id}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/leads/{id}", h.delete).Methods(http.MethodDelete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	lead, err := h.service.Create(r.Context(), input)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) top(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	leads, err := h.service.TopLeads(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	lead, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// events streams lead change notifications as server-sent events. Slow
// clients drop events rather than block the publisher.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireUser(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if h.broker == nil {
		<-r.Context().Done()
		return
	}

	events := make(chan notify.Event, 16)
	unsubscribe := h.broker.Subscribe(func(evt notify.Event) {
		select {
		case events <- evt:
		default:
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: lead\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid lead id: %v", err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
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
