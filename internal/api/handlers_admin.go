package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/harborpost/harborpost/internal/api/respond"
	"github.com/harborpost/harborpost/internal/auth"
	"github.com/harborpost/harborpost/internal/services"
)

// AdminHandler exposes the moderation surface. Role checks live in the
// services; the handler only shapes requests and responses.
type AdminHandler struct {
	posts   *services.PostService
	queries *services.QueryService
	authz   auth.Authorizer
}

func NewAdminHandler(posts *services.PostService, queries *services.QueryService, authz auth.Authorizer) *AdminHandler {
	return &AdminHandler{posts: posts, queries: queries, authz: authz}
}

// BanPost POST /api/admin/posts/{postId}/ban
// The body is optional; an absent body bans without a recorded reason.
func (h *AdminHandler) BanPost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	var req struct {
		Reason *string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	post, err := h.posts.Ban(r.Context(), actor, mux.Vars(r)["postId"], req.Reason)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}

// UnbanPost POST /api/admin/posts/{postId}/unban
func (h *AdminHandler) UnbanPost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	post, err := h.posts.Unban(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}

// RecoverPost POST /api/admin/posts/{postId}/recover
func (h *AdminHandler) RecoverPost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	post, err := h.posts.Recover(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}

// BannedPosts GET /api/admin/posts/banned
func (h *AdminHandler) BannedPosts(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	posts, err := h.queries.BannedPosts(r.Context(), actor)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts, "count": len(posts)})
}

// DeletedPosts GET /api/admin/posts/deleted
func (h *AdminHandler) DeletedPosts(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	posts, err := h.queries.DeletedPosts(r.Context(), actor)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts, "count": len(posts)})
}

// DeletedPost GET /api/admin/posts/deleted/{postId}
func (h *AdminHandler) DeletedPost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	post, err := h.queries.DeletedPost(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}

// AnyPost GET /api/admin/posts/{postId}
// Unlike the public read this does not mask non-published posts.
func (h *AdminHandler) AnyPost(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	post, err := h.queries.AnyPost(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, post)
}
