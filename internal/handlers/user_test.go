package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/hvichare/go-estate/internal/middleware"
	"github.com/hvichare/go-estate/internal/repo"
)

// newRouteRequest builds a request with the chi {id} URL param set and the
// acting identity attached, as the session guard would have done.
func newRouteRequest(method, path, id, actingUserID string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithUserID(ctx, actingUserID)
	return req.WithContext(ctx)
}

func TestUserHandler_UpdateUser_NotSelf(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &UserHandler{Repo: repo.NewUserRepo(db), ListingRepo: repo.NewListingRepo(db)}

	body, _ := json.Marshal(map[string]string{"username": "evil"})
	req := newRouteRequest("POST", "/api/user/update/u-2", "u-2", "u-1", body)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	var out ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Message != "You can only update your own account!" {
		t.Errorf("unexpected message: %q", out.Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_UpdateUser_Self(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`UPDATE users`).
		WithArgs("newname", "", "", "", "u-1").
		WillReturnRows(sqlmock.NewRows(userRows).
			AddRow("u-1", "newname", "alice@x.com", "$2a$10$hash", "http://avatar", now, now))

	h := &UserHandler{Repo: repo.NewUserRepo(db), ListingRepo: repo.NewListingRepo(db)}

	body, _ := json.Marshal(map[string]string{"username": "newname"})
	req := newRouteRequest("POST", "/api/user/update/u-1", "u-1", "u-1", body)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["username"] != "newname" {
		t.Errorf("unexpected body: %v", out)
	}
	if _, present := out["password_hash"]; present {
		t.Error("response leaks password hash")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_UpdateUser_RehashesPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`UPDATE users`).
		WithArgs("", "", notEqualArg{"newpassword"}, "", "u-1").
		WillReturnRows(sqlmock.NewRows(userRows).
			AddRow("u-1", "alice", "alice@x.com", "$2a$10$newhash", "http://avatar", now, now))

	h := &UserHandler{Repo: repo.NewUserRepo(db), ListingRepo: repo.NewListingRepo(db)}

	body, _ := json.Marshal(map[string]string{"password": "newpassword"})
	req := newRouteRequest("POST", "/api/user/update/u-1", "u-1", "u-1", body)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser_Self(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &UserHandler{Repo: repo.NewUserRepo(db), ListingRepo: repo.NewListingRepo(db)}

	req := newRouteRequest("DELETE", "/api/user/delete/u-1", "u-1", "u-1", nil)
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	cookie := authCookie(rr)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Error("expected cleared access_token cookie")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser_NotSelf(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &UserHandler{Repo: repo.NewUserRepo(db), ListingRepo: repo.NewListingRepo(db)}

	req := newRouteRequest("DELETE", "/api/user/delete/u-2", "u-2", "u-1", nil)
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_GetUserListings_NotSelf(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &UserHandler{Repo: repo.NewUserRepo(db), ListingRepo: repo.NewListingRepo(db)}

	req := newRouteRequest("GET", "/api/user/listings/u-2", "u-2", "u-1", nil)
	rr := httptest.NewRecorder()
	h.GetUserListings(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	var out ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Message != "You can only view your own listings!" {
		t.Errorf("unexpected message: %q", out.Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, email, password_hash`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRows))

	h := &UserHandler{Repo: repo.NewUserRepo(db), ListingRepo: repo.NewListingRepo(db)}

	req := newRouteRequest("GET", "/api/user/missing", "missing", "u-1", nil)
	rr := httptest.NewRecorder()
	h.GetUser(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
