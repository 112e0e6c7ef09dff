// AngelaMos | 2026
// handler.go

package achievement

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightclass/backend/internal/core"
	"github.com/brightclass/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/achievements", func(r chi.Router) {
		r.Get("/tiers", h.GetTiers)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMine)
		})
	})
}

// RegisterStaffRoutes lets teachers and admins look up any student's
// record; the caller mounts the role middleware.
func (h *Handler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/students/{userID}/achievement", h.GetForUser)
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, middleware.GetUserID(r.Context()))
}

func (h *Handler) GetForUser(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) GetTiers(w http.ResponseWriter, r *http.Request) {
	core.OK(w, TiersResponse{Tiers: h.service.Tiers()})
}

func (h *Handler) respond(
	w http.ResponseWriter,
	r *http.Request,
	userID string,
) {
	ach, err := h.service.GetForUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// No scored submission yet; show the floor of the ladder
			// rather than a 404.
			tier := h.service.Tiers().For(0)
			core.OK(w, AchievementResponse{
				UserID:        userID,
				TotalScore:    0,
				CurrentTier:   tier.Name,
				UnlockedTiers: []string{},
			})
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAchievementResponse(ach))
}
