package http

import (
	"encoding/json"
	"net/http"

	"github.com/pollingx/api/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type castVoteRequest struct {
	OptionIndex int `json:"option_index"`
}

func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
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

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vote, err := h.service.CastVote(r.Context(), *identity, ports.CastVoteInput{
		PollID:      pollID,
		OptionIndex: req.OptionIndex,
	})
	if err != nil {
		ServiceError(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, vote)
}
