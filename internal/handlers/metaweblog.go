package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jeremyjsx/miniblog/internal/metaweblog"
)

// rpcRequest carries one MetaWeblog call. Method names follow the protocol
// ("metaWeblog.newPost", "blogger.deletePost", ...); params are named rather
// than positional.
type rpcRequest struct {
	Method string    `json:"method"`
	Params rpcParams `json:"params"`
}

type rpcParams struct {
	BlogID   string                 `json:"blog_id"`
	PostID   string                 `json:"post_id"`
	AppKey   string                 `json:"app_key"`
	Username string                 `json:"username"`
	Password string                 `json:"password"`
	Post     metaweblog.Post        `json:"post"`
	Publish  bool                   `json:"publish"`
	Count    int                    `json:"count"`
	Media    metaweblog.MediaObject `json:"media"`
	Category string                 `json:"category"`
}

type MetaWeblogHandler struct {
	svc    *metaweblog.Service
	logger *slog.Logger
}

func NewMetaWeblogHandler(svc *metaweblog.Service, logger *slog.Logger) *MetaWeblogHandler {
	return &MetaWeblogHandler{svc: svc, logger: logger}
}

func (h *MetaWeblogHandler) Call() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}

		ctx := r.Context()
		p := req.Params
		var (
			result any
			err    error
		)
		switch req.Method {
		case "blogger.getUsersBlogs":
			result, err = h.svc.GetUsersBlogs(ctx, p.AppKey, p.Username, p.Password)
		case "metaWeblog.newPost":
			result, err = h.svc.NewPost(ctx, p.BlogID, p.Username, p.Password, p.Post, p.Publish)
		case "metaWeblog.editPost":
			err = h.svc.EditPost(ctx, p.PostID, p.Username, p.Password, p.Post, p.Publish)
			result = err == nil
		case "blogger.deletePost":
			err = h.svc.DeletePost(ctx, p.AppKey, p.PostID, p.Username, p.Password)
			result = err == nil
		case "metaWeblog.getPost":
			result, err = h.svc.GetPost(ctx, p.PostID, p.Username, p.Password)
		case "metaWeblog.getRecentPosts":
			result, err = h.svc.GetRecentPosts(ctx, p.BlogID, p.Username, p.Password, p.Count)
		case "metaWeblog.getCategories":
			result, err = h.svc.GetCategories(ctx, p.BlogID, p.Username, p.Password)
		case "metaWeblog.newMediaObject":
			result, err = h.svc.NewMediaObject(ctx, p.BlogID, p.Username, p.Password, p.Media)
		case "blogger.getUserInfo":
			err = h.svc.GetUserInfo(ctx, p.AppKey, p.Username, p.Password)
		case "wp.newCategory":
			err = h.svc.AddCategory(ctx, p.BlogID, p.Username, p.Password, p.Category)
		default:
			writeError(w, http.StatusBadRequest, "UNKNOWN_METHOD", "unknown method "+req.Method, nil)
			return
		}
		if err != nil {
			writeServiceError(w, r, h.logger, req.Method, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": result})
	}
}
