// AngelaMos | 2026
// handler_test.go

package invitation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightclass/backend/internal/user"
)

func newTestRouter(store *fakeStore) chi.Router {
	handler := NewHandler(newTestService(store, &fakeDispatcher{}))
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func acceptBody() *strings.Reader {
	return strings.NewReader(`{"password":"correct horse battery"}`)
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestAcceptEndpoint(t *testing.T) {
	store := newFakeStore(newFakeUserRepo())
	pendingInvitation(store, "tok-1", "grace@example.com")
	router := newTestRouter(store)

	req := httptest.NewRequest(
		http.MethodPost,
		"/invitations/tok-1/accept",
		acceptBody(),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID == "" {
		t.Fatal("expected a user id in the response")
	}
}

func TestAcceptEndpointUnknownToken(t *testing.T) {
	router := newTestRouter(newFakeStore(newFakeUserRepo()))

	req := httptest.NewRequest(
		http.MethodPost,
		"/invitations/missing/accept",
		acceptBody(),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAcceptEndpointTerminalState(t *testing.T) {
	store := newFakeStore(newFakeUserRepo())
	inv := pendingInvitation(store, "tok-1", "grace@example.com")
	inv.Status = StatusRejected
	router := newTestRouter(store)

	req := httptest.NewRequest(
		http.MethodPost,
		"/invitations/tok-1/accept",
		acceptBody(),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rejected") {
		t.Fatalf("conflict message must name the current status: %s",
			rec.Body.String())
	}
}

func TestAcceptEndpointExpired(t *testing.T) {
	store := newFakeStore(newFakeUserRepo())
	inv := pendingInvitation(store, "tok-1", "grace@example.com")
	inv.ExpiresAt = fixedNow.Add(-time.Minute)
	router := newTestRouter(store)

	req := httptest.NewRequest(
		http.MethodPost,
		"/invitations/tok-1/accept",
		acceptBody(),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "EXPIRED" {
		t.Fatalf("expected EXPIRED code, got %s", code)
	}
}

func TestAcceptEndpointUserExists(t *testing.T) {
	users := newFakeUserRepo()
	users.users["u1"] = &user.User{ID: "u1", Email: "grace@example.com"}
	store := newFakeStore(users)
	pendingInvitation(store, "tok-1", "grace@example.com")
	router := newTestRouter(store)

	req := httptest.NewRequest(
		http.MethodPost,
		"/invitations/tok-1/accept",
		acceptBody(),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "USER_EXISTS" {
		t.Fatalf("expected USER_EXISTS code, got %s", code)
	}
}

func TestAcceptEndpointWeakPassword(t *testing.T) {
	store := newFakeStore(newFakeUserRepo())
	pendingInvitation(store, "tok-1", "grace@example.com")
	router := newTestRouter(store)

	req := httptest.NewRequest(
		http.MethodPost,
		"/invitations/tok-1/accept",
		strings.NewReader(`{"password":"short"}`),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRejectEndpoint(t *testing.T) {
	store := newFakeStore(newFakeUserRepo())
	pendingInvitation(store, "tok-1", "grace@example.com")
	router := newTestRouter(store)

	req := httptest.NewRequest(
		http.MethodPost,
		"/invitations/tok-1/reject",
		nil,
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	inv, _ := store.GetByToken(req.Context(), "tok-1")
	if inv.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", inv.Status)
	}
}

func TestResolveEndpoint(t *testing.T) {
	store := newFakeStore(newFakeUserRepo())
	pendingInvitation(store, "tok-1", "grace@example.com")
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/invitations/tok-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()

	var resp InvitationResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != "grace@example.com" {
		t.Fatalf("unexpected email %q", resp.Email)
	}
	if resp.Status != "pending" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
	if strings.Contains(body, "tok-1") {
		t.Fatal("resolution response must not echo the token")
	}
}
