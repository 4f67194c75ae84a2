package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hvichare/go-estate/internal/token"
)

func guardedHandler(t *testing.T, wantUserID string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		if !ok {
			t.Error("identity missing from context")
		}
		if id != wantUserID {
			t.Errorf("user id: got %q, want %q", id, wantUserID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := token.New([]byte("guard-secret"), time.Hour)
	signed, err := tokens.Issue("u-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/listing/create", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: signed})
	rr := httptest.NewRecorder()

	RequireAuth(tokens)(guardedHandler(t, "u-1")).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestRequireAuth_MissingCookie(t *testing.T) {
	tokens := token.New([]byte("guard-secret"), time.Hour)

	req := httptest.NewRequest("POST", "/api/listing/create", nil)
	rr := httptest.NewRecorder()

	RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a cookie")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	var body struct {
		Success    bool   `json:"success"`
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.StatusCode != 401 || body.Message != "Unauthorized" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	secret := []byte("guard-secret")
	tokens := token.New(secret, time.Hour)

	// Correct signature, expiry in the past.
	claims := jwt.RegisteredClaims{
		Subject:   "u-1",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/api/listing/delete/l-1", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: signed})
	rr := httptest.NewRecorder()

	RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with an expired token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestRequireAuth_TamperedToken(t *testing.T) {
	tokens := token.New([]byte("guard-secret"), time.Hour)
	other := token.New([]byte("attacker-secret"), time.Hour)
	signed, err := other.Issue("u-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/user/update/u-1", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: signed})
	rr := httptest.NewRecorder()

	RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a tampered token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}
