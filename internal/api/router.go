package api

import (
	"github.com/gorilla/mux"

	"github.com/harborpost/harborpost/internal/api/recovery"
	"github.com/harborpost/harborpost/internal/auth"
	"github.com/harborpost/harborpost/internal/services"
)

// NewRouter wires HTTP routes to handlers.
//
// Literal segments (mine, banned, deleted) are registered before their
// {postId} siblings so mux resolves them first.
func NewRouter(posts *services.PostService, replies *services.ReplyService, queries *services.QueryService, authz auth.Authorizer) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	postHandler := NewPostHandler(posts, queries, authz)
	replyHandler := NewReplyHandler(replies, authz)
	adminHandler := NewAdminHandler(posts, queries, authz)
	healthHandler := NewHealthHandler()

	// Health
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Own posts
	router.HandleFunc("/api/posts/mine", postHandler.MyPosts).Methods("GET")
	router.HandleFunc("/api/posts/mine/drafts", postHandler.MyDrafts).Methods("GET")
	router.HandleFunc("/api/posts/mine/top", postHandler.MyTopPosts).Methods("GET")

	// Posts
	router.HandleFunc("/api/posts", postHandler.ListFeed).Methods("GET")
	router.HandleFunc("/api/posts", postHandler.CreatePost).Methods("POST")
	router.HandleFunc("/api/posts/{postId}", postHandler.GetPost).Methods("GET")
	router.HandleFunc("/api/posts/{postId}", postHandler.UpdatePost).Methods("PATCH")
	router.HandleFunc("/api/posts/{postId}", postHandler.DeletePost).Methods("DELETE")

	// Stage transitions
	router.HandleFunc("/api/posts/{postId}/publish", postHandler.Publish).Methods("POST")
	router.HandleFunc("/api/posts/{postId}/hide", postHandler.Hide).Methods("POST")
	router.HandleFunc("/api/posts/{postId}/unhide", postHandler.Unhide).Methods("POST")
	router.HandleFunc("/api/posts/{postId}/archive", postHandler.Archive).Methods("POST")
	router.HandleFunc("/api/posts/{postId}/unarchive", postHandler.Unarchive).Methods("POST")

	// Replies
	router.HandleFunc("/api/posts/{postId}/replies", replyHandler.ListReplies).Methods("GET")
	router.HandleFunc("/api/posts/{postId}/replies", replyHandler.CreateReply).Methods("POST")
	router.HandleFunc("/api/replies/{replyId}", replyHandler.UpdateReply).Methods("PATCH")
	router.HandleFunc("/api/replies/{replyId}", replyHandler.DeleteReply).Methods("DELETE")

	// Moderation
	router.HandleFunc("/api/admin/posts/banned", adminHandler.BannedPosts).Methods("GET")
	router.HandleFunc("/api/admin/posts/deleted", adminHandler.DeletedPosts).Methods("GET")
	router.HandleFunc("/api/admin/posts/deleted/{postId}", adminHandler.DeletedPost).Methods("GET")
	router.HandleFunc("/api/admin/posts/{postId}", adminHandler.AnyPost).Methods("GET")
	router.HandleFunc("/api/admin/posts/{postId}/ban", adminHandler.BanPost).Methods("POST")
	router.HandleFunc("/api/admin/posts/{postId}/unban", adminHandler.UnbanPost).Methods("POST")
	router.HandleFunc("/api/admin/posts/{postId}/recover", adminHandler.RecoverPost).Methods("POST")

	return router
}
