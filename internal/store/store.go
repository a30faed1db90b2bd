package store

import (
	"context"

	"github.com/harborpost/harborpost/internal/model"
)

// Store exposes persistence operations required by the lifecycle engines.
// Implementations live under internal/store/<driver>/ (postgres, sqlite,
// memory). Adapters return model.NotFoundError for missing rows and
// model.ConflictError when a conditional write loses to a concurrent
// transition; engine-level validation is never their concern.
type Store interface {
	Posts() Posts
	Replies() Replies
	Ping(ctx context.Context) error
}

// PostSort selects the ordering of a post listing.
type PostSort int

const (
	// SortNewestFirst orders by creation time descending.
	SortNewestFirst PostSort = iota
	// SortRecentlyUpdated orders by update time descending.
	SortRecentlyUpdated
	// SortTopReplies orders by replies count descending, then update time descending.
	SortTopReplies
	// SortRecentlyDeleted orders by deletion time descending, then creation time descending.
	SortRecentlyDeleted
)

// PostFilter narrows and orders a post listing.
type PostFilter struct {
	Stage   *model.Stage
	OwnerID string
	Sort    PostSort
	Limit   int
}

// PostExpect is the pre-state a conditional post update is keyed on. The
// write applies only while the row still matches; a concurrent transition
// that wins first invalidates the expectation.
type PostExpect struct {
	Stage    *model.Stage
	Archived *bool
}

// Posts persists Post aggregates.
type Posts interface {
	Create(ctx context.Context, p *model.Post) (*model.Post, error)
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, f PostFilter) ([]*model.Post, error)

	// Update writes the post's mutable fields as one conditional write
	// keyed on expect. RepliesCount is excluded; it moves only through
	// IncrementReplies.
	Update(ctx context.Context, p *model.Post, expect PostExpect) (*model.Post, error)

	// IncrementReplies applies an atomic delta to the denormalized reply
	// counter, clamped at a floor of zero.
	IncrementReplies(ctx context.Context, id string, delta int) (*model.Post, error)
}

// Replies persists Reply records.
type Replies interface {
	Create(ctx context.Context, r *model.Reply) (*model.Reply, error)
	GetByID(ctx context.Context, id string) (*model.Reply, error)

	// ListByPost returns the active replies of a post in thread order
	// (creation time ascending).
	ListByPost(ctx context.Context, postID string) ([]*model.Reply, error)

	// Update writes the reply's mutable fields conditional on the row
	// still being active. A miss reports NotFound: inactive replies are
	// indistinguishable from nonexistent ones.
	Update(ctx context.Context, r *model.Reply) (*model.Reply, error)
}
