package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/marketplace/internal/api/middleware"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/domain/user"
)

// LoginAlerter publishes a sign-in notification; nil-safe via NopAlerter.
type LoginAlerter interface {
	LoginAlert(u *user.User, ipAddress, userAgent string)
}

// NopAlerter drops sign-in notifications.
type NopAlerter struct{}

func (NopAlerter) LoginAlert(*user.User, string, string) {}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	userService *user.Service
	users       user.Store
	jwtService  *auth.JWTService
	alerter     LoginAlerter
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(userService *user.Service, users user.Store, jwtService *auth.JWTService, alerter LoginAlerter) *AuthHandlers {
	return &AuthHandlers{
		userService: userService,
		users:       users,
		jwtService:  jwtService,
		alerter:     alerter,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Mobile   string `json:"mobile"`
	Address  string `json:"address"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Mobile    string    `json:"mobile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Mobile:    u.Mobile,
		CreatedAt: u.CreatedAt,
	}
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = user.RoleUser
	}

	newUser, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Name, req.Role, req.Mobile, req.Address)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondDomainError(w, err)
		return
	}

	h.setAuthCookies(w, r, newUser)

	respondJSON(w, http.StatusCreated, AuthResponse{
		User:    toUserResponse(newUser),
		Message: "Registration successful",
	})
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrAccountBlocked) {
			respondError(w, "Account is deactivated", http.StatusForbidden)
			return
		}
		respondError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.setAuthCookies(w, r, u)
	h.alerter.LoginAlert(u, r.RemoteAddr, r.UserAgent())

	respondJSON(w, http.StatusOK, AuthResponse{
		User:    toUserResponse(u),
		Message: "Login successful",
	})
}

// Logout handles user logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		_ = h.users.DeleteSessionsByUser(r.Context(), claims.UserID)
	}
	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Refresh rotates the token pair. The refresh token carries its session ID;
// the session must still exist, match the token hash, and be unexpired.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	userID, sessionID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	session, err := h.users.GetSession(r.Context(), sessionID)
	if err != nil {
		h.clearAuthCookies(w)
		respondError(w, "Session not found", http.StatusUnauthorized)
		return
	}

	if time.Now().After(session.ExpiresAt) {
		_ = h.users.DeleteSession(r.Context(), sessionID)
		h.clearAuthCookies(w)
		respondError(w, "Session expired", http.StatusUnauthorized)
		return
	}

	if auth.HashToken(refreshCookie.Value) != session.RefreshTokenHash || session.UserID != userID {
		h.clearAuthCookies(w)
		respondError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.clearAuthCookies(w)
		respondError(w, "User not found", http.StatusUnauthorized)
		return
	}
	if !u.IsActive {
		h.clearAuthCookies(w)
		respondError(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	// Rotate: the old session dies with the old token.
	_ = h.users.DeleteSession(r.Context(), sessionID)
	h.setAuthCookies(w, r, u)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, "User not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}

// Helper methods

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, u *user.User) {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)

	sessionID := uuid.New().String()
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(u.ID, sessionID)

	_ = h.users.CreateSession(r.Context(), &user.Session{
		ID:               sessionID,
		UserID:           u.ID,
		RefreshTokenHash: auth.HashToken(refreshToken),
		ExpiresAt:        refreshExpiry,
		CreatedAt:        time.Now(),
		IPAddress:        r.RemoteAddr,
		UserAgent:        r.UserAgent(),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
