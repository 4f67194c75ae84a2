package handlers

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hvichare/go-estate/internal/metrics"
	"github.com/hvichare/go-estate/internal/middleware"
	"github.com/hvichare/go-estate/internal/models"
	"github.com/hvichare/go-estate/internal/repo"
	"github.com/hvichare/go-estate/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Tokens   *token.Service

	// TokenTTL bounds the cookie lifetime to the token's own expiry.
	TokenTTL time.Duration
	// SecureCookie marks the auth cookie Secure; set when serving HTTPS.
	SecureCookie bool
}

const bcryptCost = 10

// federatedUsernameAttempts bounds the collision-retry loop on federated
// signup. The suffix is random, not negotiated, so a collision is possible
// and retried with a fresh suffix instead of surfacing the store error.
const federatedUsernameAttempts = 5

// ==========================
// Signup
// ==========================
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required,min=3,max=64"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6,max=72"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		metrics.RecordAuthAttempt("signup", "error")
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	_, err = h.UserRepo.Create(r.Context(), input.Username, input.Email, string(hash))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			metrics.RecordAuthAttempt("signup", "rejected")
			JSONError(w, "Email or username already taken!", http.StatusConflict)
			return
		}
		slog.Error("signup: create user failed", "error", err)
		metrics.RecordAuthAttempt("signup", "error")
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	// No session is established here; the user signs in separately.
	metrics.RecordAuthAttempt("signup", "success")
	JSON(w, http.StatusCreated, "User created successfully!")
}

// ==========================
// Signin
// ==========================
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			metrics.RecordAuthAttempt("signin", "rejected")
			JSONError(w, "User not found!", http.StatusNotFound)
			return
		}
		slog.Error("signin: lookup failed", "error", err)
		metrics.RecordAuthAttempt("signin", "error")
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		metrics.RecordAuthAttempt("signin", "rejected")
		JSONError(w, "Wrong Credentials!", http.StatusUnauthorized)
		return
	}

	if err := h.issueSession(w, user.ID); err != nil {
		metrics.RecordAuthAttempt("signin", "error")
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.RecordAuthAttempt("signin", "success")
	JSON(w, http.StatusOK, user)
}

// ==========================
// Google (federated sign-in)
// ==========================
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
		Photo string `json:"photo"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	switch {
	case err == nil:
		// Repeat federated login: reuse the existing identity. Profile
		// fields are not refreshed from the provider.
	case errors.Is(err, repo.ErrNotFound):
		user, err = h.createFederatedUser(r, input.Name, input.Email, input.Photo)
		if err != nil {
			slog.Error("google: create user failed", "error", err)
			metrics.RecordAuthAttempt("google", "error")
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
	default:
		slog.Error("google: lookup failed", "error", err)
		metrics.RecordAuthAttempt("google", "error")
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if err := h.issueSession(w, user.ID); err != nil {
		metrics.RecordAuthAttempt("google", "error")
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.RecordAuthAttempt("google", "success")
	JSON(w, http.StatusOK, user)
}

// ==========================
// Signout
// ==========================

// Signout is stateless: the server holds no session, so clearing the
// client's cookie is the whole operation. Outstanding tokens remain valid
// until they expire.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	JSON(w, http.StatusOK, "User has been logged out!")
}

// issueSession mints a token for the identity and sets it as the http-only
// auth cookie. The cookie MaxAge matches the token TTL so both expire
// together; server-side verification is still the authority.
func (h *AuthHandler) issueSession(w http.ResponseWriter, userID string) error {
	signed, err := h.Tokens.Issue(userID)
	if err != nil {
		slog.Error("issue token failed", "error", err)
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.TokenTTL.Seconds()),
	})
	return nil
}

// createFederatedUser synthesizes an account for a first-time federated
// sign-in: a random strong password (never shown to anyone) keeps the
// schema's password invariant, and the username is the normalized display
// name plus a random suffix, retried on collision.
func (h *AuthHandler) createFederatedUser(r *http.Request, name, email, photo string) (*models.User, error) {
	password, err := randomString(16)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	base := normalizeUsername(name)
	var lastErr error
	for attempt := 0; attempt < federatedUsernameAttempts; attempt++ {
		suffix, err := randomString(4)
		if err != nil {
			return nil, err
		}
		user, err := h.UserRepo.CreateWithAvatar(r.Context(), base+suffix, email, string(hash), photo)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, err
		}
		// A duplicate may also mean a concurrent signup claimed the
		// email; retrying the suffix cannot fix that, but the bounded
		// loop keeps the failure terminal either way.
		lastErr = err
	}
	return nil, lastErr
}

// normalizeUsername lowercases the display name and strips spaces.
func normalizeUsername(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomString returns n characters from a lowercase alphanumeric alphabet
// using crypto/rand.
func randomString(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(randomAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
