package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/harborpost/harborpost/internal/api/respond"
	"github.com/harborpost/harborpost/internal/auth"
	"github.com/harborpost/harborpost/internal/services"
)

// ReplyHandler is a thin HTTP transport over ReplyService.
type ReplyHandler struct {
	replies *services.ReplyService
	authz   auth.Authorizer
}

func NewReplyHandler(replies *services.ReplyService, authz auth.Authorizer) *ReplyHandler {
	return &ReplyHandler{replies: replies, authz: authz}
}

// ListReplies GET /api/posts/{postId}/replies
func (h *ReplyHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	replies, err := h.replies.ListByPost(r.Context(), actor, mux.Vars(r)["postId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"replies": replies, "count": len(replies)})
}

// CreateReply POST /api/posts/{postId}/replies
func (h *ReplyHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	var req struct {
		Comment       string  `json:"comment"`
		ParentReplyID *string `json:"parentReplyId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	reply, err := h.replies.Create(r.Context(), actor, mux.Vars(r)["postId"],
		services.CreateReplyInput{Comment: req.Comment, ParentReplyID: req.ParentReplyID})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, reply)
}

// UpdateReply PATCH /api/replies/{replyId}
func (h *ReplyHandler) UpdateReply(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	reply, err := h.replies.Update(r.Context(), actor, mux.Vars(r)["replyId"], req.Comment)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, reply)
}

// DeleteReply DELETE /api/replies/{replyId}
func (h *ReplyHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	actor := h.authz.Authorize(r)
	reply, err := h.replies.Delete(r.Context(), actor, mux.Vars(r)["replyId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, reply)
}
