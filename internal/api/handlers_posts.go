package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	respond "github.com/harborpost/harborpost/internal/api/respond"
	"github.com/harborpost/harborpost/internal/auth"
	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/services"
)

// PostHandler is a thin HTTP transport over PostService and QueryService.
type PostHandler struct {
	posts   *services.PostService
	queries *services.QueryService
	authz   auth.Authorizer
}

func NewPostHandler(posts *services.PostService, queries *services.QueryService, authz auth.Authorizer) *PostHandler {
	return &PostHandler{posts: posts, queries: queries, authz: authz}
}

// ListFeed GET /api/posts
func (h *PostHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	posts, err := h.queries.PublicFeed(r.Context(), actor)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts, "count": len(posts)})
}

// CreatePost POST /api/posts
// The publish flag selects between a draft and an immediately published post.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Publish bool   `json:"publish"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}

	in := services.CreatePostInput{Title: req.Title, Content: req.Content}
	var err error
	var out interface{}
	if req.Publish {
		out, err = h.posts.CreateAndPublish(r.Context(), actor, in)
	} else {
		out, err = h.posts.CreateDraft(r.Context(), actor, in)
	}
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// GetPost GET /api/posts/{postId}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	post, err := h.queries.GetPost(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}

// UpdatePost PATCH /api/posts/{postId}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	post, err := h.posts.UpdateMyPost(r.Context(), actor, mux.Vars(r)["postId"],
		services.UpdatePostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}

// DeletePost DELETE /api/posts/{postId}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	post, err := h.posts.Delete(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}

// stageAction is the shape of the body-less stage transitions on PostService.
type stageAction func(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error)

func (h *PostHandler) runStageAction(w http.ResponseWriter, r *http.Request, op stageAction) {
	actor := h.authz.Authorize(r)
	post, err := op(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}

// Publish POST /api/posts/{postId}/publish
func (h *PostHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.runStageAction(w, r, h.posts.Publish)
}

// Hide POST /api/posts/{postId}/hide
func (h *PostHandler) Hide(w http.ResponseWriter, r *http.Request) {
	h.runStageAction(w, r, h.posts.Hide)
}

// Unhide POST /api/posts/{postId}/unhide
func (h *PostHandler) Unhide(w http.ResponseWriter, r *http.Request) {
	h.runStageAction(w, r, h.posts.Unhide)
}

// Archive POST /api/posts/{postId}/archive
func (h *PostHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.runStageAction(w, r, h.posts.Archive)
}

// Unarchive POST /api/posts/{postId}/unarchive
func (h *PostHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.runStageAction(w, r, h.posts.Unarchive)
}

// MyPosts GET /api/posts/mine
func (h *PostHandler) MyPosts(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	posts, err := h.queries.MyPosts(r.Context(), actor)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts, "count": len(posts)})
}

// MyDrafts GET /api/posts/mine/drafts
func (h *PostHandler) MyDrafts(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	posts, err := h.queries.MyDrafts(r.Context(), actor)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts, "count": len(posts)})
}

// MyTopPosts GET /api/posts/mine/top?limit=N
func (h *PostHandler) MyTopPosts(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respond.WriteBadRequest(w, "limit must be an integer")
			return
		}
		limit = n
	}

	posts, err := h.queries.MyTopPosts(r.Context(), actor, limit)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts, "count": len(posts)})
}
