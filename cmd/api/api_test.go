package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hvichare/go-estate/internal/config"
	"github.com/hvichare/go-estate/internal/middleware"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var userRows = []string{"id", "username", "email", "password_hash", "avatar", "created_at", "updated_at"}

var listingRows = []string{
	"id", "name", "description", "address", "type", "bedrooms", "bathrooms",
	"regular_price", "discount_price", "offer", "parking", "furnished",
	"image_urls", "user_ref", "created_at", "updated_at",
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:         "test-secret-for-integration",
		JWTExpireHours:    1,
		AuthRatePerMinute: 600,
		AuthRateBurst:     100,
	}
}

// TestAPI_SigninThenCreateListing is an integration test: it builds the full
// router with a sqlmock-backed DB, signs in to get the session cookie, then
// creates a listing with it.
func TestAPI_SigninThenCreateListing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	now := time.Now()

	// Signin: GetByEmail("alice@x.com")
	mock.ExpectQuery(`SELECT id, username, email, password_hash`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows(userRows).
			AddRow("u-1", "alice", "alice@x.com", string(hash), "http://avatar", now, now))

	// Create listing: INSERT with the authenticated user as owner.
	mock.ExpectQuery(`INSERT INTO listings`).
		WillReturnRows(sqlmock.NewRows(listingRows).
			AddRow("l-1", "Cozy loft", "a house", "1 Main St", "rent", 2, 1,
				int64(2000), int64(0), false, false, false,
				pq.Array([]string{"http://img/1.jpg"}), "u-1", now, now))

	r := newRouter(db, testConfig())
	srv := httptest.NewServer(r)
	defer srv.Close()

	// 1) Signin
	signinBody, _ := json.Marshal(map[string]string{"email": "alice@x.com", "password": "pw123456"})
	signinResp, err := http.Post(srv.URL+"/api/auth/signin", "application/json", bytes.NewReader(signinBody))
	if err != nil {
		t.Fatalf("signin request: %v", err)
	}
	defer signinResp.Body.Close()
	if signinResp.StatusCode != http.StatusOK {
		t.Fatalf("signin status: got %d, want 200", signinResp.StatusCode)
	}

	var cookie *http.Cookie
	for _, c := range signinResp.Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("signin did not set the access_token cookie")
	}
	if !cookie.HttpOnly {
		t.Error("access_token cookie must be http-only")
	}

	var signinOut map[string]any
	if err := json.NewDecoder(signinResp.Body).Decode(&signinOut); err != nil {
		t.Fatalf("decode signin response: %v", err)
	}
	if _, present := signinOut["password_hash"]; present {
		t.Error("signin response leaks password hash")
	}

	// 2) Create a listing with the session cookie
	listingBody, _ := json.Marshal(map[string]any{
		"name":         "Cozy loft",
		"description":  "a house",
		"address":      "1 Main St",
		"type":         "rent",
		"bedrooms":     2,
		"bathrooms":    1,
		"regularPrice": 2000,
		"imageUrls":    []string{"http://img/1.jpg"},
	})
	req, _ := http.NewRequest("POST", srv.URL+"/api/listing/create", bytes.NewReader(listingBody))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	createResp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	defer createResp.Body.Close()
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201", createResp.StatusCode)
	}
	var listing map[string]any
	if err := json.NewDecoder(createResp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing["id"] != "l-1" || listing["userRef"] != "u-1" {
		t.Errorf("unexpected listing: %v", listing)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_ProtectedRouteWithoutCookie checks the guard short-circuits with 401.
func TestAPI_ProtectedRouteWithoutCookie(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	r := newRouter(db, testConfig())
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/listing/create", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", resp.StatusCode)
	}
}

// TestAPI_PublicSearchNeedsNoAuth checks listing search is open.
func TestAPI_PublicSearchNeedsNoAuth(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs("", 9, 0).
		WillReturnRows(sqlmock.NewRows(listingRows))

	r := newRouter(db, testConfig())
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/listing/get")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	r := newRouter(db, testConfig())
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_Signout clears the cookie without requiring a session.
func TestAPI_Signout(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	r := newRouter(db, testConfig())
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/auth/signout")
	if err != nil {
		t.Fatalf("signout request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("signout status: got %d, want 200", resp.StatusCode)
	}
	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AccessTokenCookie && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Error("signout did not clear the access_token cookie")
	}
}
