package handlers

import (
	"net/http"

	"github.com/jeremyjsx/miniblog/internal/middleware"
	"github.com/jeremyjsx/miniblog/internal/posts"
)

type CategoriesHandler struct {
	svc *posts.Service
}

func NewCategoriesHandler(svc *posts.Service) *CategoriesHandler {
	return &CategoriesHandler{svc: svc}
}

func (h *CategoriesHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"categories": h.svc.ListCategories(middleware.IsAdmin(r.Context())),
		})
	}
}

func (h *CategoriesHandler) Posts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.PathValue("category")
		list := h.svc.ListByCategory(middleware.IsAdmin(r.Context()), category)
		writeJSON(w, http.StatusOK, map[string]any{
			"category": category,
			"posts":    list,
		})
	}
}
