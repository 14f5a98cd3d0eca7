package http

import (
	"net/http"

	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type ResultHandler struct {
	polls   ports.PollService
	results ports.ResultService
}

func NewResultHandler(polls ports.PollService, results ports.ResultService) *ResultHandler {
	return &ResultHandler{
		polls:   polls,
		results: results,
	}
}

type resultsResponse struct {
	PollID     string                `json:"poll_id"`
	Results    []domain.OptionResult `json:"results"`
	TotalVotes int64                 `json:"total_votes"`
	HasVoted   bool                  `json:"has_voted"`
	UserVote   *int                  `json:"user_vote,omitempty"`
}

func (h *ResultHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		ServiceError(w, err)
		return
	}

	// Visibility is the lifecycle service's rule; going through Get keeps
	// private polls private on the results path too.
	if _, err := h.polls.Get(r.Context(), pollID, identityFrom(r)); err != nil {
		ServiceError(w, err)
		return
	}

	results, err := h.results.ComputeResults(r.Context(), pollID)
	if err != nil {
		ServiceError(w, err)
		return
	}

	resp := resultsResponse{
		PollID:  pollID.String(),
		Results: results,
	}
	for _, row := range results {
		resp.TotalVotes += row.VoteCount
	}

	if identity := identityFrom(r); identity != nil {
		voted, err := h.results.HasVoted(r.Context(), pollID, identity.ID)
		if err != nil {
			ServiceError(w, err)
			return
		}
		resp.HasVoted = voted

		if choice, ok, err := h.results.VoterChoice(r.Context(), pollID, identity.ID); err != nil {
			ServiceError(w, err)
			return
		} else if ok {
			resp.UserVote = &choice
		}
	}

	JSONResponse(w, http.StatusOK, resp)
}

// GetAnalytics is owner-only: view counts and voter breakdowns are not
// part of the public result surface.
func (h *ResultHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
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

	poll, err := h.polls.Get(r.Context(), pollID, identity)
	if err != nil {
		ServiceError(w, err)
		return
	}
	if poll.CreatedBy != identity.ID {
		ServiceError(w, domain.ErrForbidden)
		return
	}

	analytics, err := h.results.Analytics(r.Context(), pollID)
	if err != nil {
		ServiceError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, analytics)
}
