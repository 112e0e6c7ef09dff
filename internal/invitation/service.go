// AngelaMos | 2026
// service.go

package invitation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/brightclass/backend/internal/config"
	"github.com/brightclass/backend/internal/core"
	"github.com/brightclass/backend/internal/email"
	"github.com/brightclass/backend/internal/user"
)

var (
	ErrNotFound       = errors.New("invitation not found")
	ErrAlreadyInvited = errors.New("a live invitation already exists for this email")
	ErrEmailTaken     = errors.New("a user with this email already exists")
	ErrExpired        = errors.New("invitation has expired")
	ErrDeliveryFailed = errors.New("invitation email could not be delivered")
	ErrUserExists     = errors.New("email already registered, sign in instead")
)

// InvalidStateError is returned when accept or reject finds the
// invitation outside pending. The current status is carried so handlers
// can name it in the message.
type InvalidStateError struct {
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invitation has already been %s", e.Status)
}

const listCacheKey = "invitations:list:default"

type Service struct {
	store           Store
	users           user.Repository
	dispatcher      email.Dispatcher
	redis           *redis.Client
	cfg             config.InviteConfig
	dispatchTimeout time.Duration
	logger          *slog.Logger

	// now is swappable in tests to pin expiry behavior.
	now func() time.Time
}

func NewService(
	store Store,
	users user.Repository,
	dispatcher email.Dispatcher,
	redisClient *redis.Client,
	cfg config.InviteConfig,
	dispatchTimeout time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:           store,
		users:           users,
		dispatcher:      dispatcher,
		redis:           redisClient,
		cfg:             cfg,
		dispatchTimeout: dispatchTimeout,
		logger:          logger,
		now:             time.Now,
	}
}

// Create persists a pending invitation and dispatches the invitation
// email. If dispatch fails the invitation is deleted again so the email
// address is immediately re-invitable; the delete is best-effort and the
// dispatch failure stays the reported error either way.
func (s *Service) Create(
	ctx context.Context,
	req CreateInvitationRequest,
) (*Invitation, error) {
	role := user.Role(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("create invitation: %w", core.ErrInvalidInput)
	}

	// Stored lowercased so the pending-email uniqueness and the
	// accept-time user lookup agree with the user store's normalization.
	req.Email = strings.ToLower(req.Email)

	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	live, err := s.store.HasLivePending(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	if live {
		return nil, ErrAlreadyInvited
	}

	inv, err := s.insertWithRetry(ctx, req, role)
	if err != nil {
		return nil, err
	}

	if err := s.dispatch(ctx, inv); err != nil {
		if delErr := s.store.Delete(ctx, inv.ID); delErr != nil {
			s.logger.Error("compensating invitation delete failed",
				slog.String("invitation_id", inv.ID),
				slog.String("error", delErr.Error()))
		}
		return nil, ErrDeliveryFailed
	}

	s.invalidateListCache(ctx)

	return inv, nil
}

// insertWithRetry retries exactly once on a token collision; a repeat
// collision on 256 bits of entropy means something else is wrong.
func (s *Service) insertWithRetry(
	ctx context.Context,
	req CreateInvitationRequest,
	role user.Role,
) (*Invitation, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := core.GenerateInviteToken()
		if err != nil {
			return nil, fmt.Errorf("create invitation: %w", err)
		}

		inv := &Invitation{
			ID:        uuid.New().String(),
			Email:     req.Email,
			Name:      req.Name,
			Role:      role,
			Message:   req.Message,
			Token:     token,
			Status:    StatusPending,
			ExpiresAt: s.now().Add(s.cfg.TTL),
		}

		err = s.store.Create(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if errors.Is(err, ErrTokenCollision) {
			continue
		}
		if errors.Is(err, core.ErrDuplicateKey) {
			// Lost the race against a concurrent create for the same
			// email; the partial unique index is the authority.
			return nil, ErrAlreadyInvited
		}
		return nil, err
	}

	return nil, fmt.Errorf("create invitation: %w", ErrTokenCollision)
}

func (s *Service) dispatch(ctx context.Context, inv *Invitation) error {
	timeout := s.dispatchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var message string
	if inv.Message != nil {
		message = *inv.Message
	}

	err := s.dispatcher.SendInvitation(dispatchCtx, email.Invite{
		Email:   inv.Email,
		Name:    inv.Name,
		Role:    inv.Role.String(),
		Message: message,
		Token:   inv.Token,
	})
	if err != nil {
		s.logger.Warn("invitation dispatch failed",
			slog.String("invitation_id", inv.ID),
			slog.String("error", err.Error()))
		return err
	}

	return nil
}

func (s *Service) GetByToken(
	ctx context.Context,
	token string,
) (*Invitation, error) {
	inv, err := s.store.GetByToken(ctx, token)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// Accept consumes a pending invitation. On the happy path a user is
// created with the invitation's email, name and role inside the same
// transaction that flips the status, so either both land or neither
// does. When the email already belongs to a user the status flip still
// commits and ErrUserExists is surfaced afterwards: the invitation is
// consumed even though no account was created.
func (s *Service) Accept(
	ctx context.Context,
	token string,
	req AcceptInvitationRequest,
) (string, error) {
	inv, err := s.GetByToken(ctx, token)
	if err != nil {
		return "", err
	}

	if !inv.IsPending() {
		return "", &InvalidStateError{Status: inv.Status}
	}
	if inv.IsExpired(s.now()) {
		return "", ErrExpired
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("accept invitation: %w", err)
	}

	var (
		userID      string
		userExisted bool
	)

	err = s.store.InTx(ctx, func(invs Repository, users user.Repository) error {
		// Claim the invitation first. Exactly one concurrent accepter
		// wins the conditional update; everyone else sees zero rows.
		if err := invs.Transition(ctx, inv.ID, StatusPending, StatusAccepted); err != nil {
			return err
		}

		existing, err := users.GetByEmail(ctx, inv.Email)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return err
		}
		if existing != nil {
			// Commit the status flip anyway; the invitation is spent.
			userExisted = true
			return nil
		}

		u := &user.User{
			ID:           uuid.New().String(),
			Email:        inv.Email,
			PasswordHash: &passwordHash,
			Name:         inv.Name,
			Role:         inv.Role,
		}
		if err := users.Create(ctx, u); err != nil {
			return err
		}

		userID = u.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return "", s.invalidStateAfterRace(ctx, token)
		}
		return "", fmt.Errorf("accept invitation: %w", err)
	}

	s.invalidateListCache(ctx)

	if userExisted {
		return "", ErrUserExists
	}

	return userID, nil
}

// Reject moves a pending invitation to its other terminal state. Unlike
// Accept it does not check expiry: rejecting an invitation that has
// lapsed anyway is harmless and keeps the admin list tidy.
func (s *Service) Reject(ctx context.Context, token string) error {
	inv, err := s.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	if !inv.IsPending() {
		return &InvalidStateError{Status: inv.Status}
	}

	err = s.store.Transition(ctx, inv.ID, StatusPending, StatusRejected)
	if errors.Is(err, core.ErrConflict) {
		return s.invalidStateAfterRace(ctx, token)
	}
	if err != nil {
		return fmt.Errorf("reject invitation: %w", err)
	}

	s.invalidateListCache(ctx)

	return nil
}

// invalidStateAfterRace re-reads the invitation after a lost conditional
// update so the error can name the status that actually won.
func (s *Service) invalidStateAfterRace(
	ctx context.Context,
	token string,
) error {
	current, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return &InvalidStateError{Status: StatusAccepted}
	}
	return &InvalidStateError{Status: current.Status}
}

// List serves the admin invitation table. The default first-page view is
// cached briefly in redis; every other combination of params goes
// straight to the store.
func (s *Service) List(
	ctx context.Context,
	params ListInvitationsParams,
) ([]Invitation, int, error) {
	params.Normalize()

	if s.cacheable(params) {
		if invs, total, ok := s.listFromCache(ctx); ok {
			return invs, total, nil
		}
	}

	invs, total, err := s.store.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	if s.cacheable(params) {
		s.storeListCache(ctx, invs, total)
	}

	return invs, total, nil
}

func (s *Service) cacheable(params ListInvitationsParams) bool {
	return s.redis != nil && s.cfg.ListCacheTTL > 0 && params.Default()
}

type cachedList struct {
	Invitations []Invitation `json:"invitations"`
	Total       int          `json:"total"`
}

func (s *Service) listFromCache(ctx context.Context) ([]Invitation, int, bool) {
	raw, err := s.redis.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		return nil, 0, false
	}

	var cached cachedList
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, 0, false
	}

	return cached.Invitations, cached.Total, true
}

func (s *Service) storeListCache(
	ctx context.Context,
	invs []Invitation,
	total int,
) {
	raw, err := json.Marshal(cachedList{Invitations: invs, Total: total})
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, listCacheKey, raw, s.cfg.ListCacheTTL).Err(); err != nil {
		s.logger.Warn("invitation list cache write failed",
			slog.String("error", err.Error()))
	}
}

func (s *Service) invalidateListCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, listCacheKey).Err(); err != nil {
		s.logger.Warn("invitation list cache invalidation failed",
			slog.String("error", err.Error()))
	}
}
