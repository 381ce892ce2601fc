package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jeremyjsx/miniblog/internal/auth"
	"github.com/jeremyjsx/miniblog/internal/metaweblog"
	"github.com/jeremyjsx/miniblog/internal/middleware"
	"github.com/jeremyjsx/miniblog/internal/posts"
	"github.com/jeremyjsx/miniblog/internal/render"
)

type RouterDeps struct {
	Posts      *posts.Service
	Repository posts.Repository
	MetaWeblog *metaweblog.Service
	Renderer   *render.Renderer
	Health     *HealthDeps
	APIKey     string
	Admin      *auth.Validator
	Logger     *slog.Logger
}

// NewRouter wires every route behind the request id, recovery, admin
// detection and logging middleware.
func NewRouter(deps RouterDeps) http.Handler {
	postsH := NewPostsHandler(deps.Posts, deps.Renderer, deps.Logger)
	categoriesH := NewCategoriesHandler(deps.Posts)
	filesH := NewFilesHandler(deps.Posts, deps.Logger)
	backupH := NewBackupHandler(deps.Repository, deps.Posts, deps.Logger)
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", Health(deps.Health))

	mux.HandleFunc("GET /posts", postsH.List())
	mux.HandleFunc("GET /posts/{slug}", postsH.GetBySlug())
	mux.HandleFunc("GET /posts/id/{id}", postsH.GetByID())
	mux.Handle("POST /posts", admin(postsH.Create()))
	mux.Handle("PUT /posts/id/{id}", admin(postsH.Update()))
	mux.Handle("DELETE /posts/id/{id}", admin(postsH.Delete()))

	mux.HandleFunc("GET /categories", categoriesH.List())
	mux.HandleFunc("GET /categories/{category}", categoriesH.Posts())

	mux.HandleFunc("GET /files/{name}", filesH.Serve())
	mux.Handle("POST /files", admin(filesH.Upload()))

	mux.Handle("GET /backup", admin(backupH.Export()))
	mux.Handle("POST /backup", admin(backupH.Import()))

	if deps.MetaWeblog != nil {
		// Credentials travel in the call itself.
		mux.HandleFunc("POST /metaweblog", NewMetaWeblogHandler(deps.MetaWeblog, deps.Logger).Call())
	}

	var h http.Handler = mux
	h = middleware.Logging(deps.Logger)(h)
	h = middleware.Admin(deps.APIKey, deps.Admin)(h)
	h = middleware.Recover(deps.Logger)(h)
	h = middleware.RequestID(h)
	return h
}
