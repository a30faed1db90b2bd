package services

import (
	"context"

	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/policy"
	"github.com/harborpost/harborpost/internal/store"
)

// Top-N clamping bounds for MyTopPosts.
const (
	defaultTopLimit = 3
	maxTopLimit     = 50
)

// QueryService is the read-side facade: pure filters over the store plus
// the visibility policy. No lifecycle engine involvement.
type QueryService struct {
	store store.Store
	cache FeedCache
}

// NewQueryService creates the read facade. cache may be nil.
func NewQueryService(s store.Store, cache FeedCache) *QueryService {
	return &QueryService{store: s, cache: cache}
}

// PublicFeed lists published posts, newest first.
func (s *QueryService) PublicFeed(ctx context.Context, actor *model.Actor) ([]*model.Post, error) {
	if err := policy.RequireViewer(actor); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if posts, ok := s.cache.GetPublicFeed(ctx); ok {
			return posts, nil
		}
	}

	published := model.StagePublished
	posts, err := s.store.Posts().List(ctx, store.PostFilter{Stage: &published, Sort: store.SortNewestFirst})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetPublicFeed(ctx, posts)
	}
	return posts, nil
}

// GetPost returns a single post if the actor may see it. A post the actor
// may not see reports NotFound, indistinguishable from a missing one.
func (s *QueryService) GetPost(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	if err := policy.RequireViewer(actor); err != nil {
		return nil, err
	}
	return s.loadVisible(ctx, actor, postID)
}

// MyPosts lists the actor's own posts across all stages, newest first.
func (s *QueryService) MyPosts(ctx context.Context, actor *model.Actor) ([]*model.Post, error) {
	if err := policy.RequireViewer(actor); err != nil {
		return nil, err
	}
	return s.store.Posts().List(ctx, store.PostFilter{OwnerID: actor.ID, Sort: store.SortNewestFirst})
}

// MyDrafts lists the actor's unpublished posts, most recently updated first.
func (s *QueryService) MyDrafts(ctx context.Context, actor *model.Actor) ([]*model.Post, error) {
	if err := policy.RequireViewer(actor); err != nil {
		return nil, err
	}
	drafts := model.StageUnpublished
	return s.store.Posts().List(ctx, store.PostFilter{
		OwnerID: actor.ID, Stage: &drafts, Sort: store.SortRecentlyUpdated,
	})
}

// MyTopPosts lists the actor's published posts by reply count. An absent
// (zero) limit means the default 3; anything else is clamped to [1,50].
func (s *QueryService) MyTopPosts(ctx context.Context, actor *model.Actor, limit int) ([]*model.Post, error) {
	if err := policy.RequireViewer(actor); err != nil {
		return nil, err
	}
	switch {
	case limit == 0:
		limit = defaultTopLimit
	case limit < 1:
		limit = 1
	case limit > maxTopLimit:
		limit = maxTopLimit
	}
	published := model.StagePublished
	return s.store.Posts().List(ctx, store.PostFilter{
		OwnerID: actor.ID, Stage: &published, Sort: store.SortTopReplies, Limit: limit,
	})
}

// BannedPosts lists banned posts for moderation, newest first.
func (s *QueryService) BannedPosts(ctx context.Context, actor *model.Actor) ([]*model.Post, error) {
	if err := policy.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	banned := model.StageBanned
	return s.store.Posts().List(ctx, store.PostFilter{Stage: &banned, Sort: store.SortNewestFirst})
}

// DeletedPosts lists deleted posts, most recently deleted first.
func (s *QueryService) DeletedPosts(ctx context.Context, actor *model.Actor) ([]*model.Post, error) {
	if err := policy.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	deleted := model.StageDeleted
	return s.store.Posts().List(ctx, store.PostFilter{Stage: &deleted, Sort: store.SortRecentlyDeleted})
}

// DeletedPost returns a single deleted post.
func (s *QueryService) DeletedPost(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	if err := policy.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	id, err := model.NormalizeID(postID)
	if err != nil {
		return nil, err
	}
	post, err := s.store.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Stage != model.StageDeleted {
		return nil, model.NewNotFoundError("deleted post not found")
	}
	return post, nil
}

// AnyPost returns a post regardless of stage.
func (s *QueryService) AnyPost(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	if err := policy.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	id, err := model.NormalizeID(postID)
	if err != nil {
		return nil, err
	}
	return s.store.Posts().GetByID(ctx, id)
}

// loadVisible is the single helper behind every visibility-gated read: a
// post the actor may not view reports NotFound so the masking rule cannot
// be skipped at a call site.
func (s *QueryService) loadVisible(ctx context.Context, actor *model.Actor, postID string) (*model.Post, error) {
	id, err := model.NormalizeID(postID)
	if err != nil {
		return nil, err
	}
	post, err := s.store.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewPost(actor, post) {
		return nil, model.NewNotFoundError("post not found")
	}
	return post, nil
}
