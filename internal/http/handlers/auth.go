package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mediaforge/internal/domain"
	"mediaforge/internal/middleware"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid email")
		return
	}
	if len(req.Password) < 8 {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: hash password failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			a.error(w, http.StatusConflict, "conflict", "email already registered")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: create user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}

	a.issueToken(w, user, http.StatusCreated)
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	user, err := a.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	a.issueToken(w, user, http.StatusOK)
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	a.json(w, http.StatusOK, newUserDTO(user))
}

// Refresh reissues a token for the caller of a still-valid one, pushing the
// expiry window forward without another credential exchange.
func (a *App) Refresh(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "unknown user")
		return
	}
	a.issueToken(w, user, http.StatusOK)
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateMe patches the caller's profile. A blank name keeps the current one.
func (a *App) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if err := a.Users.Update(r.Context(), user); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: update profile failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update profile")
		return
	}
	a.json(w, http.StatusOK, newUserDTO(user))
}

func (a *App) issueToken(w http.ResponseWriter, user *domain.User, code int) {
	token, err := middleware.SignToken(a.JWTSecret, user.ID, user.Email, a.TokenTTL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: sign token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, code, authResponse{Token: token, User: newUserDTO(user)})
}

func newUserDTO(user *domain.User) userDTO {
	return userDTO{ID: user.ID, Email: user.Email, Name: user.Name, CreatedAt: user.CreatedAt}
}
