package api

import (
	"net/http"
	"strings"

	"github.com/example/marketplace/internal/domain/user"
)

// AdminHandlers handles the admin-only account management routes.
type AdminHandlers struct {
	users *user.Service
}

func NewAdminHandlers(users *user.Service) *AdminHandlers {
	return &AdminHandlers{users: users}
}

// ListUsers returns accounts, optionally filtered by ?role= and ?search=
// (matched against name and email).
func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAccounts(r.Context(), r.URL.Query().Get("role"), r.URL.Query().Get("search"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	respondJSON(w, http.StatusOK, out)
}

// ToggleUserStatus flips an account between active and deactivated.
func (h *AdminHandlers) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/users/")
	id = strings.TrimSuffix(id, "/status")

	u, err := h.users.ToggleStatus(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	message := "User deactivated"
	if u.IsActive {
		message = "User activated"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"user":    toUserResponse(u),
	})
}
