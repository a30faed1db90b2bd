package services

import (
	"context"
	"strings"
	"time"

	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/policy"
	"github.com/harborpost/harborpost/internal/store"
)

// FeedCache is the read-side cache consumed by the query facade and
// invalidated by the post engine whenever the published set changes.
// Implementations are best-effort; a miss is never an error.
type FeedCache interface {
	GetPublicFeed(ctx context.Context) ([]*model.Post, bool)
	SetPublicFeed(ctx context.Context, posts []*model.Post)
	InvalidatePublicFeed(ctx context.Context)
}

// PostService validates and applies stage transitions on posts. Every
// transition is an explicit match on the current stage; a write is issued
// as a conditional update keyed on the pre-state so a concurrent first
// writer wins at the store.
type PostService struct {
	store store.Store
	cache FeedCache
}

// NewPostService creates the post lifecycle engine. cache may be nil.
func NewPostService(s store.Store, cache FeedCache) *PostService {
	return &PostService{store: s, cache: cache}
}

// CreatePostInput carries the caller-supplied post fields.
type CreatePostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdatePostInput carries a partial edit; nil fields are left untouched.
type UpdatePostInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func validateCreate(in CreatePostInput) (title, content string, err error) {
	title = strings.TrimSpace(in.Title)
	content = strings.TrimSpace(in.Content)
	if title == "" {
		return "", "", model.NewBadRequestError("title is required")
	}
	if content == "" {
		return "", "", model.NewBadRequestError("content is required")
	}
	return title, content, nil
}

// CreateDraft creates a post in the UNPUBLISHED stage.
func (s *PostService) CreateDraft(ctx context.Context, actor *model.Actor, in CreatePostInput) (*model.Post, error) {
	if err := policy.RequireContributor(actor); err != nil {
		return nil, err
	}
	title, content, err := validateCreate(in)
	if err != nil {
		return nil, err
	}
	return s.store.Posts().Create(ctx, &model.Post{
		OwnerID: actor.ID,
		Title:   title,
		Content: content,
		Stage:   model.StageUnpublished,
	})
}

// CreateAndPublish creates a post directly in the PUBLISHED stage.
func (s *PostService) CreateAndPublish(ctx context.Context, actor *model.Actor, in CreatePostInput) (*model.Post, error) {
	if err := policy.RequireContributor(actor); err != nil {
		return nil, err
	}
	title, content, err := validateCreate(in)
	if err != nil {
		return nil, err
	}
	p, err := s.store.Posts().Create(ctx, &model.Post{
		OwnerID: actor.ID,
		Title:   title,
		Content: content,
		Stage:   model.StagePublished,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx)
	return p, nil
}

// UpdateMyPost edits title/content of an owned post. A request that would
// change nothing is rejected rather than written as a no-op.
func (s *PostService) UpdateMyPost(ctx context.Context, actor *model.Actor, postID string, in UpdatePostInput) (*model.Post, error) {
	post, err := s.loadOwned(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if post.Stage == model.StageBanned || post.Stage == model.StageDeleted {
		return nil, model.NewConflictError("cannot modify this post in its current stage")
	}

	next := *post
	changed := false
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, model.NewBadRequestError("title cannot be empty")
		}
		if t != post.Title {
			next.Title = t
			changed = true
		}
	}
	if in.Content != nil {
		c := strings.TrimSpace(*in.Content)
		if c == "" {
			return nil, model.NewBadRequestError("content cannot be empty")
		}
		if c != post.Content {
			next.Content = c
			changed = true
		}
	}
	if !changed {
		return nil, model.NewBadRequestError("no valid fields to update")
	}

	now := time.Now().UTC()
	next.LastEditedAt = &now
	out, err := s.store.Posts().Update(ctx, &next, expect(post))
	if err != nil {
		return nil, err
	}
	if post.Stage == model.StagePublished {
		s.invalidateFeed(ctx)
	}
	return out, nil
}

// Publish moves an owned draft to PUBLISHED.
func (s *PostService) Publish(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	post, err := s.loadOwned(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if post.Stage != model.StageUnpublished {
		return nil, model.NewConflictError("invalid stage transition")
	}

	next := *post
	next.Stage = model.StagePublished
	out, err := s.store.Posts().Update(ctx, &next, expect(post))
	if err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx)
	return out, nil
}

// Hide moves an owned published post to HIDDEN. Archived posts stay put.
func (s *PostService) Hide(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	post, err := s.loadOwned(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if post.Archived {
		return nil, model.NewConflictError("archived post cannot be hidden")
	}
	if post.Stage != model.StagePublished {
		return nil, model.NewConflictError("invalid stage transition")
	}

	now := time.Now().UTC()
	next := *post
	next.Stage = model.StageHidden
	next.HiddenAt = &now
	out, err := s.store.Posts().Update(ctx, &next, expect(post))
	if err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx)
	return out, nil
}

// Unhide returns an owned hidden post to PUBLISHED.
func (s *PostService) Unhide(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	post, err := s.loadOwned(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if post.Archived {
		return nil, model.NewConflictError("archived post cannot be unhidden")
	}
	if post.Stage != model.StageHidden {
		return nil, model.NewConflictError("invalid stage transition")
	}

	next := *post
	next.Stage = model.StagePublished
	next.HiddenAt = nil
	out, err := s.store.Posts().Update(ctx, &next, expect(post))
	if err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx)
	return out, nil
}

// Archive freezes replies on an owned published post. The stage stays
// PUBLISHED; only the archived flag moves.
func (s *PostService) Archive(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	post, err := s.loadOwned(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if post.Archived {
		return nil, model.NewConflictError("post already archived")
	}
	if post.Stage != model.StagePublished {
		return nil, model.NewConflictError("only published posts can be archived")
	}

	now := time.Now().UTC()
	next := *post
	next.Archived = true
	next.ArchivedAt = &now
	return s.store.Posts().Update(ctx, &next, expect(post))
}

// Unarchive clears the archived flag on an owned post.
func (s *PostService) Unarchive(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	post, err := s.loadOwned(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if !post.Archived {
		return nil, model.NewConflictError("post is not archived")
	}

	next := *post
	next.Archived = false
	next.ArchivedAt = nil
	return s.store.Posts().Update(ctx, &next, expect(post))
}

// Delete soft-deletes an owned post from any stage. Deleting an already
// deleted post is a no-op returning the current state. Metadata of the stage
// being left (hidden/ban fields) is cleared so only DeletedAt survives.
func (s *PostService) Delete(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	post, err := s.loadOwned(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if post.Stage == model.StageDeleted {
		return post, nil
	}

	now := time.Now().UTC()
	next := *post
	next.Stage = model.StageDeleted
	next.DeletedAt = &now
	next.HiddenAt = nil
	next.BannedAt = nil
	next.BannedBy = nil
	next.BanReason = nil
	out, err := s.store.Posts().Update(ctx, &next, expect(post))
	if err != nil {
		return nil, err
	}
	if post.Stage == model.StagePublished {
		s.invalidateFeed(ctx)
	}
	return out, nil
}

// Ban moves a published post to BANNED and records who banned it and why.
// Banning also forces the archived flag so replies stop immediately if the
// post is later unbanned without review.
func (s *PostService) Ban(ctx context.Context, actor *model.Actor, postID string, reason *string) (*model.Post, error) {
	if err := policy.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Stage != model.StagePublished {
		return nil, model.NewConflictError("only published posts can be banned")
	}

	now := time.Now().UTC()
	adminID := actor.ID
	next := *post
	next.Stage = model.StageBanned
	next.BannedAt = &now
	next.BannedBy = &adminID
	next.BanReason = reason
	next.Archived = true
	next.ArchivedAt = &now
	out, err := s.store.Posts().Update(ctx, &next, expect(post))
	if err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx)
	return out, nil
}

// Unban returns a banned post to PUBLISHED and clears the ban metadata.
// The archived flag stays set; unarchiving is the owner's call.
func (s *PostService) Unban(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	if err := policy.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Stage != model.StageBanned {
		return nil, model.NewConflictError("invalid stage transition")
	}

	next := *post
	next.Stage = model.StagePublished
	next.BannedAt = nil
	next.BannedBy = nil
	next.BanReason = nil
	out, err := s.store.Posts().Update(ctx, &next, expect(post))
	if err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx)
	return out, nil
}

// Recover returns a deleted post to PUBLISHED and clears the delete metadata.
func (s *PostService) Recover(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	if err := policy.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Stage != model.StageDeleted {
		return nil, model.NewConflictError("only deleted posts can be recovered")
	}

	next := *post
	next.Stage = model.StagePublished
	next.DeletedAt = nil
	next.BannedAt = nil
	next.BannedBy = nil
	next.BanReason = nil
	out, err := s.store.Posts().Update(ctx, &next, expect(post))
	if err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx)
	return out, nil
}

// load fetches a post by its normalized id without any visibility gating.
func (s *PostService) load(ctx context.Context, postID string) (*model.Post, error) {
	id, err := model.NormalizeID(postID)
	if err != nil {
		return nil, err
	}
	return s.store.Posts().GetByID(ctx, id)
}

// loadOwned gates the owner-only operations: contributor status first,
// then ownership. Admins do not bypass ownership here.
func (s *PostService) loadOwned(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	if err := policy.RequireContributor(actor); err != nil {
		return nil, err
	}
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.IsOwner(actor, post.OwnerID) {
		return nil, model.NewForbiddenError("forbidden")
	}
	return post, nil
}

func (s *PostService) invalidateFeed(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePublicFeed(ctx)
	}
}

// expect keys a conditional write on the loaded pre-state.
func expect(p *model.Post) store.PostExpect {
	stage := p.Stage
	archived := p.Archived
	return store.PostExpect{Stage: &stage, Archived: &archived}
}
