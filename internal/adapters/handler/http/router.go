package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewHandler(pollHandler *PollHandler, voteHandler *VoteHandler, resultHandler *ResultHandler, auth *AuthMiddleware) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/polls", func(r chi.Router) {
			r.With(auth.Optional).Get("/", pollHandler.ListPublic)
			r.With(auth.Optional).Get("/{id}", pollHandler.GetPoll)
			r.With(auth.Optional).Get("/{id}/results", resultHandler.GetResults)
			r.With(auth.Optional).Post("/{id}/views", pollHandler.RecordView)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require)
				r.Post("/", pollHandler.CreatePoll)
				r.Get("/mine", pollHandler.ListMine)
				r.Patch("/{id}", pollHandler.UpdatePoll)
				r.Delete("/{id}", pollHandler.DeletePoll)
				r.Post("/{id}/votes", voteHandler.VoteOnPoll)
				r.Get("/{id}/analytics", resultHandler.GetAnalytics)
			})
		})
	})

	return r
}
