package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jeremyjsx/miniblog/internal/middleware"
	"github.com/jeremyjsx/miniblog/internal/posts"
	"github.com/jeremyjsx/miniblog/internal/render"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPostBody     = 4 << 20
)

type PostsHandler struct {
	svc      *posts.Service
	renderer *render.Renderer
	logger   *slog.Logger
}

func NewPostsHandler(svc *posts.Service, renderer *render.Renderer, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{
		svc:      svc,
		renderer: renderer,
		logger:   logger,
	}
}

type PostRequest struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	Categories  []string   `json:"categories"`
	PubDate     *time.Time `json:"pub_date"`
	IsPublished bool       `json:"is_published"`
}

type postListResponse struct {
	Posts []*posts.Post `json:"posts"`
	Count int           `json:"count"`
	Skip  int           `json:"skip"`
}

type postDetailResponse struct {
	*posts.Post
	HTML string `json:"html"`
}

func (h *PostsHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := queryInt(r, "count", defaultPageSize)
		if err != nil || count < 1 {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "count must be a positive integer", nil)
			return
		}
		skip, err := queryInt(r, "skip", 0)
		if err != nil || skip < 0 {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "skip must be a non-negative integer", nil)
			return
		}
		count = min(count, maxPageSize)

		list := h.svc.ListRecent(middleware.IsAdmin(r.Context()), count, skip)
		writeJSON(w, http.StatusOK, postListResponse{Posts: list, Count: len(list), Skip: skip})
	}
}

func (h *PostsHandler) GetBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		if slug == "" {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "slug is required", nil)
			return
		}

		post, ok := h.svc.GetBySlug(middleware.IsAdmin(r.Context()), slug)
		if !ok {
			writeNotFound(w, "post")
			return
		}

		rendered, err := h.renderer.Render(post.Content)
		if err != nil {
			writeServiceError(w, r, h.logger, "render post", err)
			return
		}
		if post.Excerpt == "" {
			post.Excerpt = rendered.Snippet
		}
		writeJSON(w, http.StatusOK, postDetailResponse{Post: post, HTML: rendered.HTML})
	}
}

func (h *PostsHandler) GetByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, ok := h.svc.GetByID(middleware.IsAdmin(r.Context()), r.PathValue("id"))
		if !ok {
			writeNotFound(w, "post")
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func (h *PostsHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodePostRequest(w, r)
		if !ok {
			return
		}

		post := &posts.Post{}
		req.apply(post)
		if err := h.svc.Save(r.Context(), post); err != nil {
			writeServiceError(w, r, h.logger, "create post", err)
			return
		}
		w.Header().Set("Location", post.Link())
		writeJSON(w, http.StatusCreated, post)
	}
}

// Update replaces every field of an existing post. Omitting pub_date keeps
// the current publication date.
func (h *PostsHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodePostRequest(w, r)
		if !ok {
			return
		}

		post, found := h.svc.GetByID(true, r.PathValue("id"))
		if !found {
			writeNotFound(w, "post")
			return
		}
		req.apply(post)
		if err := h.svc.Save(r.Context(), post); err != nil {
			writeServiceError(w, r, h.logger, "update post", err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func (h *PostsHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, found := h.svc.GetByID(true, r.PathValue("id"))
		if !found {
			writeNotFound(w, "post")
			return
		}
		if err := h.svc.Delete(r.Context(), post); err != nil {
			writeServiceError(w, r, h.logger, "delete post", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodePostRequest(w http.ResponseWriter, r *http.Request) (*PostRequest, bool) {
	var req PostRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPostBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return nil, false
	}
	return &req, true
}

func (req *PostRequest) apply(p *posts.Post) {
	p.Title = req.Title
	p.Slug = req.Slug
	p.Excerpt = req.Excerpt
	p.Content = req.Content
	p.Categories = req.Categories
	p.IsPublished = req.IsPublished
	if req.PubDate != nil {
		p.PubDate = *req.PubDate
	}
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
