// AngelaMos | 2026
// handler.go

package submission

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brightclass/backend/internal/achievement"
	"github.com/brightclass/backend/internal/core"
	"github.com/brightclass/backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/submissions", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Submit)
		r.Get("/me", h.ListMine)
	})
}

// RegisterStaffRoutes mounts the grading endpoint; the caller wraps it
// in auth plus the staff role check.
func (h *Handler) RegisterStaffRoutes(r chi.Router) {
	r.Put("/submissions/{id}/grade", h.Grade)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, ach, err := h.service.Submit(r.Context(), userID, req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, toSubmittedResponse(sub, ach))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	page := parseIntQuery(r, "page", 1)
	pageSize := parseIntQuery(r, "page_size", 20)

	subs, total, err := h.service.ListForUser(r.Context(), userID, page, pageSize)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToSubmissionResponseList(subs), page, pageSize, total)
}

func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	graderID := middleware.GetUserID(r.Context())

	var req GradeSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, ach, err := h.service.Grade(r.Context(), id, req.Score, graderID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "submission")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, toSubmittedResponse(sub, ach))
}

func toSubmittedResponse(
	sub *Submission,
	ach *achievement.StudentAchievement,
) SubmittedResponse {
	resp := SubmittedResponse{Submission: ToSubmissionResponse(sub)}
	if ach != nil {
		achResp := achievement.ToAchievementResponse(ach)
		resp.Achievement = &achResp
	}
	return resp
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
