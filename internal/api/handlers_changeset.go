package api

import (
	"encoding/json"
	"net/http"

	"github.com/teshtvele/groups-management/internal/api/respond"
	"github.com/teshtvele/groups-management/internal/api/validate"
	"github.com/teshtvele/groups-management/internal/services"
)

// ChangeSetHandler exposes the changeset ledger.
type ChangeSetHandler struct {
	svc *services.ChangeSetService
}

func NewChangeSetHandler(svc *services.ChangeSetService) *ChangeSetHandler {
	return &ChangeSetHandler{svc: svc}
}

// CreateChangeSet POST /api/changesets
func (h *ChangeSetHandler) CreateChangeSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Author string `json:"author"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.MaxLen("author", &req.Author, maxNoteLen); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.MaxLen("reason", &req.Reason, maxNoteLen); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	cs, err := h.svc.CreateChangeSet(r.Context(), req.Author, req.Reason)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, cs)
}

// ListChangeSets GET /api/changesets?limit=
func (h *ChangeSetHandler) ListChangeSets(w http.ResponseWriter, r *http.Request) {
	limit, err := validate.NonNegativeInt(r, "limit")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	list, err := h.svc.List(r.Context(), limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"changesets": nonNil(list), "count": len(list)})
}

// GetChangeSet GET /api/changesets/{changeSetId}
func (h *ChangeSetHandler) GetChangeSet(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(r, "changeSetId")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	details, err := h.svc.Details(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, details)
}
