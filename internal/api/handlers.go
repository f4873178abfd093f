package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
)

// validate checks request structs with the same tag convention
// internal/config uses for its own fields.
var validate = validator.New()

// decodeValid decodes the request body into req and runs struct-tag
// validation over it, writing a problem response on failure.
func decodeValid(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), "")
		return false
	}
	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), "")
		return false
	}
	return true
}

// routeHandler exposes fib.Core's route lifecycle over HTTP/JSON.
type routeHandler struct {
	core *fib.Core
}

type installRouteRequest struct {
	Key  routeKeyPayload `json:"key"`
	Root handle.Handle   `json:"root" validate:"required"`
}

// routeKeyPayload mirrors fib.RouteKey with validation tags on the
// fields a caller must always supply.
type routeKeyPayload struct {
	Family    store.Family `json:"Family"`
	Prefix    string       `json:"Prefix" validate:"required"`
	PrefixLen int          `json:"PrefixLen" validate:"gte=0,lte=128"`
	Protocol  uint8        `json:"Protocol"`
	AdminPref uint8        `json:"AdminPref"`
}

func (p routeKeyPayload) key() fib.RouteKey {
	return fib.RouteKey{
		Family:    p.Family,
		Prefix:    p.Prefix,
		PrefixLen: p.PrefixLen,
		Protocol:  p.Protocol,
		AdminPref: p.AdminPref,
	}
}

func (h *routeHandler) Install(w http.ResponseWriter, r *http.Request) {
	var req installRouteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.core.InstallRoute(r.Context(), req.Key.key(), req.Root); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

type updateRouteRequest struct {
	Key     routeKeyPayload `json:"key"`
	NewRoot handle.Handle   `json:"new_root" validate:"required"`
}

func (h *routeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRouteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.core.UpdateRoute(r.Context(), req.Key.key(), req.NewRoot); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type withdrawRouteRequest struct {
	Key routeKeyPayload `json:"key"`
}

func (h *routeHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRouteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.core.WithdrawRoute(r.Context(), req.Key.key()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

// storeHandler exposes read-only node store introspection.
type storeHandler struct {
	core *fib.Core
}

func (h *storeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"node_count": h.core.Store().Len()})
}

func (h *storeHandler) Node(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "handle")
	hv, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "handle must be a uint64", "")
		return
	}
	n, err := h.core.Store().Get(handle.Handle(hv))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// eventHandler lets operators and test rigs inject the same liveness events
// that a real dataplane agent would call on the core directly, without a
// compiled-in HAL driver between them.
type eventHandler struct {
	core *fib.Core
}

type linkEventRequest struct {
	Link string `json:"link" validate:"required"`
	Up   bool   `json:"up"`
}

func (h *eventHandler) LinkEvent(w http.ResponseWriter, r *http.Request) {
	var req linkEventRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.core.OnLinkEvent(r.Context(), req.Link, req.Up); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

type bfdEventRequest struct {
	Session string `json:"session" validate:"required"`
}

func (h *eventHandler) BfdDown(w http.ResponseWriter, r *http.Request) {
	var req bfdEventRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.core.OnBfdDown(r.Context(), req.Session); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (h *eventHandler) BfdUp(w http.ResponseWriter, r *http.Request) {
	var req bfdEventRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.core.OnBfdUp(r.Context(), req.Session); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

type interfaceEventRequest struct {
	Port uint32 `json:"port"`
}

func (h *eventHandler) InterfaceDown(w http.ResponseWriter, r *http.Request) {
	var req interfaceEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), "")
		return
	}
	if err := h.core.OnInterfaceDown(r.Context(), req.Port); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (h *eventHandler) InterfaceUp(w http.ResponseWriter, r *http.Request) {
	var req interfaceEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), "")
		return
	}
	if err := h.core.OnInterfaceUp(r.Context(), req.Port); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

type routeChangeRequest struct {
	RouteID store.RouteID         `json:"route_id"`
	Change  routetable.ChangeKind `json:"change"`
}

func (h *eventHandler) RouteChange(w http.ResponseWriter, r *http.Request) {
	var req routeChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), "")
		return
	}
	if err := h.core.OnRouteChange(r.Context(), req.RouteID, req.Change); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// healthHandler answers liveness/readiness probes.
type healthHandler struct {
	core *fib.Core
}

func (h *healthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *healthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.core.Store() == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "node store not initialized", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "node_count": h.core.Store().Len()})
}
