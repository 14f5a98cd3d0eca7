package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type createPollRequest struct {
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Options            []string       `json:"options"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	IsPublic           bool           `json:"is_public"`
	AllowMultipleVotes bool           `json:"allow_multiple_votes"`
	Tags               []string       `json:"tags"`
	Settings           map[string]any `json:"settings"`
}

type updatePollRequest struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	Options            *[]string       `json:"options"`
	ExpiresAt          *time.Time      `json:"expires_at"`
	ClearExpiry        bool            `json:"clear_expiry"`
	IsActive           *bool           `json:"is_active"`
	IsPublic           *bool           `json:"is_public"`
	AllowMultipleVotes *bool           `json:"allow_multiple_votes"`
	Tags               *[]string       `json:"tags"`
	Settings           *map[string]any `json:"settings"`
}

func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	if identity == nil {
		ErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := ports.CreatePollInput{
		Title:              req.Title,
		Description:        req.Description,
		Options:            req.Options,
		ExpiresAt:          req.ExpiresAt,
		IsPublic:           req.IsPublic,
		AllowMultipleVotes: req.AllowMultipleVotes,
		Tags:               req.Tags,
		Settings:           req.Settings,
	}

	poll, err := h.service.Create(r.Context(), identity.ID, input)
	if err != nil {
		ServiceError(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, poll)
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		ServiceError(w, err)
		return
	}

	poll, err := h.service.Get(r.Context(), pollID, identityFrom(r))
	if err != nil {
		ServiceError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, poll)
}

func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	if identity == nil {
		ErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	pollID, err := pollIDParam(r)
	if err != nil {
		ServiceError(w, err)
		return
	}

	var req updatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := ports.UpdatePollInput{
		Title:              req.Title,
		Description:        req.Description,
		Options:            req.Options,
		ExpiresAt:          req.ExpiresAt,
		ClearExpiry:        req.ClearExpiry,
		IsActive:           req.IsActive,
		IsPublic:           req.IsPublic,
		AllowMultipleVotes: req.AllowMultipleVotes,
		Tags:               req.Tags,
		Settings:           req.Settings,
	}

	poll, err := h.service.Update(r.Context(), identity.ID, pollID, patch)
	if err != nil {
		ServiceError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, poll)
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	if identity == nil {
		ErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	pollID, err := pollIDParam(r)
	if err != nil {
		ServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), identity.ID, pollID); err != nil {
		ServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PollHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	if identity == nil {
		ErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	summaries, err := h.service.ListForOwner(r.Context(), identity.ID)
	if err != nil {
		ServiceError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, summaries)
}

func (h *PollHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListPublic(r.Context())
	if err != nil {
		ServiceError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, summaries)
}

func (h *PollHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		ServiceError(w, err)
		return
	}

	view := &domain.PollView{
		PollID:    pollID,
		Referrer:  r.Referer(),
		UserAgent: r.UserAgent(),
	}
	if identity := identityFrom(r); identity != nil {
		view.ViewerID = &identity.ID
	}

	if err := h.service.RecordView(r.Context(), view); err != nil {
		ServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func pollIDParam(r *http.Request) (uuid.UUID, error) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidPollID
	}
	return pollID, nil
}
