package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/policy"
	"github.com/harborpost/harborpost/internal/store"
)

// ReplyService validates reply creation, edits and soft deletes against
// the parent post's state, and keeps the post's denormalized reply
// counter moving through atomic deltas only.
type ReplyService struct {
	store store.Store
}

// NewReplyService creates the reply lifecycle engine.
func NewReplyService(s store.Store) *ReplyService {
	return &ReplyService{store: s}
}

// CreateReplyInput carries the caller-supplied reply fields.
type CreateReplyInput struct {
	Comment       string  `json:"comment"`
	ParentReplyID *string `json:"parentReplyId,omitempty"`
}

func validateComment(raw string) (string, error) {
	comment := strings.TrimSpace(raw)
	if comment == "" {
		return "", model.NewBadRequestError("comment is required")
	}
	if len(comment) > model.MaxCommentLen {
		return "", model.NewBadRequestError("comment is too long")
	}
	return comment, nil
}

// Create attaches a reply to a published, non-archived post. A threaded
// reply requires its parent to exist, be active, and belong to the same
// post. The counter increment is attempted whenever the reply is durably
// created; an increment failure does not undo the reply.
func (s *ReplyService) Create(ctx context.Context, actor *model.Actor, postID string, in CreateReplyInput) (*model.Reply, error) {
	if err := policy.RequireContributor(actor); err != nil {
		return nil, err
	}
	comment, err := validateComment(in.Comment)
	if err != nil {
		return nil, err
	}
	pid, err := model.NormalizeID(postID)
	if err != nil {
		return nil, err
	}

	post, err := s.store.Posts().GetByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if post.Stage != model.StagePublished || post.Archived {
		return nil, model.NewConflictError("replies not allowed")
	}

	var parentID *string
	if in.ParentReplyID != nil {
		id, err := model.NormalizeID(*in.ParentReplyID)
		if err != nil {
			return nil, err
		}
		parent, err := s.store.Replies().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !parent.Active {
			return nil, model.NewNotFoundError("reply not found")
		}
		if parent.PostID != pid {
			return nil, model.NewBadRequestError("parent reply belongs to a different post")
		}
		parentID = &id
	}

	reply, err := s.store.Replies().Create(ctx, &model.Reply{
		PostID:        pid,
		AuthorID:      actor.ID,
		Comment:       comment,
		ParentReplyID: parentID,
		Active:        true,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Posts().IncrementReplies(ctx, pid, 1); err != nil {
		log.Warn().Err(err).Str("post_id", pid).Msg("replies counter increment failed")
	}
	return reply, nil
}

// ListByPost returns a post's active replies in thread order. The post
// must be published unless the actor is privileged; otherwise the post
// and its replies look nonexistent.
func (s *ReplyService) ListByPost(ctx context.Context, actor *model.Actor, postID string) ([]*model.Reply, error) {
	if err := policy.RequireViewer(actor); err != nil {
		return nil, err
	}
	pid, err := model.NormalizeID(postID)
	if err != nil {
		return nil, err
	}

	post, err := s.store.Posts().GetByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if post.Stage != model.StagePublished && !policy.IsPrivileged(actor) {
		return nil, model.NewNotFoundError("post not found")
	}
	return s.store.Replies().ListByPost(ctx, pid)
}

// Update edits a reply's comment. Only the author or a privileged actor
// may edit, and only while the reply is active; an inactive reply is
// indistinguishable from a missing one.
func (s *ReplyService) Update(ctx context.Context, actor *model.Actor, replyID string, comment string) (*model.Reply, error) {
	if err := policy.RequireContributor(actor); err != nil {
		return nil, err
	}
	trimmed, err := validateComment(comment)
	if err != nil {
		return nil, err
	}
	reply, err := s.loadActive(ctx, replyID)
	if err != nil {
		return nil, err
	}
	if !policy.IsOwner(actor, reply.AuthorID) && !policy.IsPrivileged(actor) {
		return nil, model.NewForbiddenError("forbidden")
	}

	next := *reply
	next.Comment = trimmed
	return s.store.Replies().Update(ctx, &next)
}

// Delete soft-deletes a reply. Three authorization paths are checked in
// order: reply author, privileged actor, owner of the parent post.
func (s *ReplyService) Delete(ctx context.Context, actor *model.Actor, replyID string) (*model.Reply, error) {
	if err := policy.RequireContributor(actor); err != nil {
		return nil, err
	}
	reply, err := s.loadActive(ctx, replyID)
	if err != nil {
		return nil, err
	}
	if err := s.canDelete(ctx, actor, reply); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next := *reply
	next.Active = false
	next.DeletedAt = &now
	out, err := s.store.Replies().Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	// The decrement is clamped at the store so concurrent or duplicate
	// deletes can never drive the counter negative.
	if _, err := s.store.Posts().IncrementReplies(ctx, reply.PostID, -1); err != nil {
		log.Warn().Err(err).Str("post_id", reply.PostID).Msg("replies counter decrement failed")
	}
	return out, nil
}

func (s *ReplyService) canDelete(ctx context.Context, actor *model.Actor, reply *model.Reply) error {
	if policy.IsOwner(actor, reply.AuthorID) {
		return nil
	}
	if policy.IsPrivileged(actor) {
		return nil
	}
	post, err := s.store.Posts().GetByID(ctx, reply.PostID)
	if err == nil && policy.IsOwner(actor, post.OwnerID) {
		return nil
	}
	return model.NewForbiddenError("forbidden")
}

func (s *ReplyService) loadActive(ctx context.Context, replyID string) (*model.Reply, error) {
	id, err := model.NormalizeID(replyID)
	if err != nil {
		return nil, err
	}
	reply, err := s.store.Replies().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reply.Active {
		return nil, model.NewNotFoundError("reply not found")
	}
	return reply, nil
}
