package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

const maxUploadBytes = 16 << 20

// AuthHandler implements registration, login, logout, refresh, and password
// change endpoints.
type AuthHandler struct {
	Users       UserStore
	Credentials PasswordHasher
	Tokens      TokenService
	Media       MediaStore
	Limiter     RateLimiter
	Cookies     CookiePolicy
	NowFunc     func() time.Time
}

// Register handles POST /api/v1/auth/register requests. The body is multipart
// form data carrying the profile fields plus a required avatar image and an
// optional cover image.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Credentials == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasCredentials", h.Credentials != nil, "hasMedia", h.Media != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "registration services unavailable"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")

	if username == "" || email == "" || fullName == "" || password == "" {
		logger.Warn("registration missing fields", "username", username, "email", email)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username, email, fullName, and password are required"})
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("registration invalid email", "email", email, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	avatarURL, err := h.storeImage(r, "avatar", "avatars")
	if err != nil {
		logger.Warn("registration avatar upload failed", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "avatar image is required"})
		return
	}

	// Cover image is optional; a missing part is not an error.
	coverURL, err := h.storeImage(r, "coverImage", "covers")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		logger.Warn("registration cover upload failed", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "cover image could not be stored"})
		return
	}

	hashed, err := h.Credentials.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordPolicy) {
			logger.Warn("registration weak password", "username", username)
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
			return
		}
		logger.Error("registration failed to hash password", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to secure password"})
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hashed,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("registration conflict", "username", username, "email", email)
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "username or email already taken"})
			return
		}
		logger.Error("registration failed to create user", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create account"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]models.Identity{"user": user.Identity()})
}

// Login handles POST /api/v1/auth/login requests. The identifier may be a
// username or an email address.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Credentials == nil || h.Tokens == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasCredentials", h.Credentials != nil, "hasTokens", h.Tokens != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited", "remote", r.RemoteAddr)
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many login attempts"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Identifier = strings.TrimSpace(strings.ToLower(req.Identifier))
	if req.Identifier == "" || req.Password == "" {
		logger.Warn("login missing credentials", "identifier", req.Identifier)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "identifier and password are required"})
		return
	}

	user, err := h.findByIdentifier(r, req.Identifier)
	if err != nil {
		logger.Warn("login user lookup failed", "identifier", req.Identifier, "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	if err := h.Credentials.Verify(ctx, req.Password, user.PasswordHash); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	tokens, err := h.Tokens.IssuePair(ctx, user)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}

	setSessionCookies(w, tokens, h.Cookies)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: user.Identity(), Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout requests. It clears the stored
// refresh token reference so previously issued refresh tokens are revoked.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := identityFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if err := h.Tokens.Revoke(ctx, identity.ID); err != nil {
		logger.Error("logout failed to revoke session", "error", err, "userId", identity.ID)
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w, h.Cookies)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Refresh exchanges a refresh token for a new session pair. The token is read
// from the refresh cookie, falling back to the request body.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Tokens == nil {
		logger.Error("token service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	refreshToken := refreshTokenFromRequest(r)
	if refreshToken == "" {
		logger.Warn("missing refresh token")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "refresh token is required"})
		return
	}

	tokens, user, err := h.Tokens.Rotate(ctx, refreshToken)
	if err != nil {
		logger.Warn("refresh rotation failed", "error", err)
		// A token naming a vanished subject is indistinguishable from a
		// revoked one as far as the caller is concerned.
		if isUnauthenticated(err) {
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens, h.Cookies)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: user.Identity(), Tokens: tokens})
}

// ChangePassword handles POST /api/v1/auth/password requests for the
// authenticated user.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := identityFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "old and new passwords are required"})
		return
	}

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		logger.Error("change password user lookup failed", "error", err, "userId", identity.ID)
		respondError(ctx, w, err)
		return
	}

	if err := h.Credentials.Verify(ctx, req.OldPassword, user.PasswordHash); err != nil {
		logger.Warn("change password old password mismatch", "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	// The new password is hashed exactly once, and only the password column is
	// written.
	hashed, err := h.Credentials.Hash(ctx, req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordPolicy) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
			return
		}
		logger.Error("change password failed to hash", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to secure password"})
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		logger.Error("change password update failed", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "password changed"})
}

func (h AuthHandler) findByIdentifier(r *http.Request, identifier string) (models.User, error) {
	if strings.Contains(identifier, "@") {
		return h.Users.FindByEmail(r.Context(), identifier)
	}
	return h.Users.FindByUsername(r.Context(), identifier)
}

func (h AuthHandler) storeImage(r *http.Request, field, prefix string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := path.Join(prefix, uuid.NewString()+path.Ext(header.Filename))
	return h.Media.Save(r.Context(), key, contentType, file)
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(auth.RefreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	User   models.Identity      `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}
