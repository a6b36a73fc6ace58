package api

import (
	"net/http"

	"github.com/teshtvele/groups-management/internal/api/respond"
	"github.com/teshtvele/groups-management/internal/api/validate"
	"github.com/teshtvele/groups-management/internal/services"
)

// GroupHandler serves the temporal queries over person groups.
type GroupHandler struct {
	svc *services.TimelineService
}

func NewGroupHandler(svc *services.TimelineService) *GroupHandler { return &GroupHandler{svc: svc} }

// ListGroups GET /api/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := validate.Page(r)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	groups, err := h.svc.ListGroups(r.Context(), limit, offset)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"groups": nonNil(groups), "count": len(groups), "offset": offset})
}

// PersonAsOf GET /api/groups/{groupId}/as-of?timestamp=
func (h *GroupHandler) PersonAsOf(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(r, "groupId")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	at, err := validate.Timestamp(r, "timestamp")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	snap, err := h.svc.PersonAsOf(r.Context(), id, at)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"groupId": id, "timestamp": at, "snapshot": snap})
}

// GroupAtTime GET /api/groups/{groupId}/at-time?timestamp=
func (h *GroupHandler) GroupAtTime(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(r, "groupId")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	at, err := validate.Timestamp(r, "timestamp")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	version, err := h.svc.GroupAtTime(r.Context(), id, at)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"groupId": id, "timestamp": at, "version": version})
}

// GroupHistory GET /api/groups/{groupId}/history?limit=
func (h *GroupHandler) GroupHistory(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(r, "groupId")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	limit, err := validate.NonNegativeInt(r, "limit")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	hist, err := h.svc.GroupHistory(r.Context(), id, limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"groupId": id, "history": hist, "count": len(hist)})
}

// GroupTimeline GET /api/groups/{groupId}/timeline
func (h *GroupHandler) GroupTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(r, "groupId")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	tl, err := h.svc.GroupTimeline(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"groupId": id, "timeline": tl, "count": len(tl)})
}
