package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/teshtvele/groups-management/internal/api/respond"
	"github.com/teshtvele/groups-management/internal/api/validate"
	"github.com/teshtvele/groups-management/internal/core/person"
	"github.com/teshtvele/groups-management/internal/model"
	"github.com/teshtvele/groups-management/internal/services"
)

const (
	maxAddressLen = 500
	maxNoteLen    = 255
)

// personRequest is the body of POST /api/persons and POST /api/persons/match.
type personRequest struct {
	LastName   string  `json:"lastName"`
	FirstName  string  `json:"firstName"`
	MiddleName *string `json:"middleName"`
	BirthDate  string  `json:"birthDate"`
	Gender     string  `json:"gender"`
	Address    string  `json:"address"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`

	ChangeSetID *int64 `json:"changeSetId"`
	Author      string `json:"author"`
	Reason      string `json:"reason"`
}

func (req *personRequest) input() (model.PersonInput, error) {
	var errs []error
	birth, err := validate.Date("birthDate", req.BirthDate)
	if err != nil {
		errs = append(errs, person.NewValidationError("birth_date", person.RuleDate, err.Error()))
	}
	if err := validate.MaxLen("address", &req.Address, maxAddressLen); err != nil {
		errs = append(errs, person.NewValidationError("address", person.RuleLength, err.Error()))
	}
	if err := validate.MaxLen("author", &req.Author, maxNoteLen); err != nil {
		errs = append(errs, person.NewValidationError("author", person.RuleLength, err.Error()))
	}
	if err := validate.MaxLen("reason", &req.Reason, maxNoteLen); err != nil {
		errs = append(errs, person.NewValidationError("reason", person.RuleLength, err.Error()))
	}
	if len(errs) > 0 {
		return model.PersonInput{}, errors.Join(errs...)
	}
	return model.PersonInput{
		LastName:   req.LastName,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		BirthDate:  birth,
		Gender:     model.Gender(req.Gender),
		Address:    req.Address,
		Phone:      req.Phone,
		Email:      req.Email,
	}, nil
}

func (req *personRequest) changeSet() *services.ChangeSetRef {
	if req.ChangeSetID == nil && req.Author == "" && req.Reason == "" {
		return nil
	}
	return &services.ChangeSetRef{ID: req.ChangeSetID, Author: req.Author, Reason: req.Reason}
}

// PersonHandler is a thin HTTP transport over PersonService.
type PersonHandler struct {
	svc *services.PersonService
}

func NewPersonHandler(svc *services.PersonService) *PersonHandler { return &PersonHandler{svc: svc} }

// CreatePerson POST /api/persons
func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	in, err := req.input()
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	p, err := h.svc.CreatePerson(r.Context(), in, req.changeSet())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, p)
}

// MatchPerson POST /api/persons/match
func (h *PersonHandler) MatchPerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	in, err := req.input()
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	groupID, found, err := h.svc.FindMatchingGroup(r.Context(), in)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	resp := map[string]interface{}{"matched": found, "groupId": nil}
	if found {
		resp["groupId"] = groupID
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}

// GetPerson GET /api/persons/{personId}
func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(r, "personId")
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	p, err := h.svc.GetPerson(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// ListPersons GET /api/persons
func (h *PersonHandler) ListPersons(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := validate.Page(r)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	list, err := h.svc.ListPersons(r.Context(), limit, offset)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	writePersons(w, list, offset)
}

// SearchPersons GET /api/persons/search
func (h *PersonHandler) SearchPersons(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := validate.Page(r)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	q := r.URL.Query()
	list, err := h.svc.SearchPersons(r.Context(), model.SearchFilter{
		LastName:   q.Get("lastName"),
		FirstName:  q.Get("firstName"),
		MiddleName: q.Get("middleName"),
		Address:    q.Get("address"),
		Email:      q.Get("email"),
		Phone:      q.Get("phone"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	writePersons(w, list, offset)
}

func writePersons(w http.ResponseWriter, list []*model.Person, offset int) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"persons": nonNil(list),
		"count":   len(list),
		"offset":  offset,
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
