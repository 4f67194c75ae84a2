package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hvichare/go-estate/internal/middleware"
	"github.com/hvichare/go-estate/internal/models"
	"github.com/hvichare/go-estate/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Repo        *repo.UserRepo
	ListingRepo *repo.ListingRepo

	// SecureCookie must match the auth handler so the cleared cookie on
	// account deletion targets the same attributes.
	SecureCookie bool
}

// ==========================
// Update User (self only)
// ==========================
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID != id {
		JSONError(w, "You can only update your own account!", http.StatusUnauthorized)
		return
	}

	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Avatar   string `json:"avatar"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// A new password is hashed here; the store never sees plaintext.
	passwordHash := ""
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
		if err != nil {
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		passwordHash = string(hash)
	}

	user, err := h.Repo.Update(r.Context(), id, input.Username, input.Email, passwordHash, input.Avatar)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			JSONError(w, "User not found!", http.StatusNotFound)
		case errors.Is(err, repo.ErrDuplicate):
			JSONError(w, "Email or username already taken!", http.StatusConflict)
		default:
			slog.Error("update user failed", "error", err, "user_id", id)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		}
		return
	}

	JSON(w, http.StatusOK, user)
}

// ==========================
// Delete User (self only)
// ==========================
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID != id {
		JSONError(w, "You can only delete your own account!", http.StatusUnauthorized)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "User not found!", http.StatusNotFound)
			return
		}
		slog.Error("delete user failed", "error", err, "user_id", id)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	// The account is gone; drop the client's session cookie with it.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	JSON(w, http.StatusOK, "User has been deleted!")
}

// ==========================
// Get User Listings (self only)
// ==========================
func (h *UserHandler) GetUserListings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID != id {
		JSONError(w, "You can only view your own listings!", http.StatusUnauthorized)
		return
	}

	listings, err := h.ListingRepo.ListByUser(r.Context(), id)
	if err != nil {
		slog.Error("list user listings failed", "error", err, "user_id", id)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	JSON(w, http.StatusOK, listings)
}

// ==========================
// Get User
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "User not found!", http.StatusNotFound)
			return
		}
		slog.Error("get user failed", "error", err, "user_id", id)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, user)
}
