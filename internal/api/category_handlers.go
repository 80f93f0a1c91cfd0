package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/marketplace/internal/domain/category"
)

// CategoryHandlers handles the admin-only category routes. The public listing
// lives on Handlers.GetCategories.
type CategoryHandlers struct {
	categories *category.Service
}

func NewCategoryHandlers(categories *category.Service) *CategoryHandlers {
	return &CategoryHandlers{categories: categories}
}

func (h *CategoryHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string   `json:"name"`
		Description   string   `json:"description"`
		Subcategories []string `json:"subcategories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.categories.Create(r.Context(), req.Name, req.Description, req.Subcategories)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *CategoryHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/categories/")

	var req struct {
		Name          *string   `json:"name"`
		Description   *string   `json:"description"`
		Subcategories *[]string `json:"subcategories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.categories.Update(r.Context(), id, req.Name, req.Description, req.Subcategories)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CategoryHandlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/categories/")
	if err := h.categories.Deactivate(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category deactivated"})
}
