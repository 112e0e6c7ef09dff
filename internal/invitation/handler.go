// AngelaMos | 2026
// handler.go

package invitation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brightclass/backend/internal/core"
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

// RegisterRoutes registers the invitee-facing endpoints. These are
// unauthenticated: possession of the token is the credential.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/invitations", func(r chi.Router) {
		r.Get("/{token}", h.GetByToken)
		r.Post("/{token}/accept", h.Accept)
		r.Post("/{token}/reject", h.Reject)
	})
}

// RegisterAdminRoutes registers invitation management under the admin
// router; the caller is expected to have mounted auth + role middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/invitations", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	inv, err := h.service.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "invalid role")
		case errors.Is(err, ErrEmailTaken):
			core.Conflict(w, ErrEmailTaken.Error())
		case errors.Is(err, ErrAlreadyInvited):
			core.Conflict(w, ErrAlreadyInvited.Error())
		case errors.Is(err, ErrDeliveryFailed):
			core.JSONError(w, core.NewAppError(
				err,
				ErrDeliveryFailed.Error(),
				http.StatusBadGateway,
				"DELIVERY_FAILED",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, CreatedInvitationResponse{
		InvitationResponse: ToInvitationResponse(inv),
		Token:              inv.Token,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListInvitationsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Status:   r.URL.Query().Get("status"),
	}

	if params.Status != "" && !Status(params.Status).Valid() {
		core.BadRequest(w, "status must be one of: pending, accepted, rejected")
		return
	}

	invs, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToInvitationResponseList(invs),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	inv, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			core.NotFound(w, "invitation")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToInvitationResponse(inv))
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req AcceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	userID, err := h.service.Accept(r.Context(), token, req)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	core.Created(w, AcceptInvitationResponse{UserID: userID})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.service.Reject(r.Context(), token); err != nil {
		h.writeLifecycleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeLifecycleError(w http.ResponseWriter, err error) {
	var stateErr *InvalidStateError

	switch {
	case errors.Is(err, ErrNotFound):
		core.NotFound(w, "invitation")
	case errors.As(err, &stateErr):
		core.Conflict(w, stateErr.Error())
	case errors.Is(err, ErrExpired):
		core.JSONError(w, core.NewAppError(
			err,
			ErrExpired.Error(),
			http.StatusGone,
			"EXPIRED",
		))
	case errors.Is(err, ErrUserExists):
		core.JSONError(w, core.NewAppError(
			err,
			ErrUserExists.Error(),
			http.StatusConflict,
			"USER_EXISTS",
		))
	default:
		core.InternalServerError(w, err)
	}
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
