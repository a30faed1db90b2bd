// Package memory provides a mutex-guarded in-memory store.Store used by
// unit tests and the dev-mode service target.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/store"
)

type memStore struct {
	mu      sync.RWMutex
	posts   map[string]*model.Post
	replies map[string]*model.Reply
}

// New creates an empty in-memory store.
func New() store.Store {
	return &memStore{
		posts:   make(map[string]*model.Post),
		replies: make(map[string]*model.Reply),
	}
}

func (s *memStore) Posts() store.Posts     { return &posts{s} }
func (s *memStore) Replies() store.Replies { return &replies{s} }

func (s *memStore) Ping(ctx context.Context) error { return nil }

// --- Posts ---

type posts struct{ s *memStore }

func (p *posts) Create(ctx context.Context, in *model.Post) (*model.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	out := clonePost(in)
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now
	p.s.posts[out.ID] = out
	return clonePost(out), nil
}

func (p *posts) GetByID(ctx context.Context, id string) (*model.Post, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	post, ok := p.s.posts[id]
	if !ok {
		return nil, model.NewNotFoundError("post not found")
	}
	return clonePost(post), nil
}

func (p *posts) List(ctx context.Context, f store.PostFilter) ([]*model.Post, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := make([]*model.Post, 0, len(p.s.posts))
	for _, post := range p.s.posts {
		if f.Stage != nil && post.Stage != *f.Stage {
			continue
		}
		if f.OwnerID != "" && post.OwnerID != f.OwnerID {
			continue
		}
		out = append(out, clonePost(post))
	}

	sort.Slice(out, func(i, j int) bool { return postLess(out[i], out[j], f.Sort) })

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func postLess(a, b *model.Post, s store.PostSort) bool {
	switch s {
	case store.SortRecentlyUpdated:
		return a.UpdatedAt.After(b.UpdatedAt)
	case store.SortTopReplies:
		if a.RepliesCount != b.RepliesCount {
			return a.RepliesCount > b.RepliesCount
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	case store.SortRecentlyDeleted:
		at, bt := timeOrZero(a.DeletedAt), timeOrZero(b.DeletedAt)
		if !at.Equal(bt) {
			return at.After(bt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	default:
		return a.CreatedAt.After(b.CreatedAt)
	}
}

func (p *posts) Update(ctx context.Context, in *model.Post, expect store.PostExpect) (*model.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	cur, ok := p.s.posts[in.ID]
	if !ok {
		return nil, model.NewNotFoundError("post not found")
	}
	if expect.Stage != nil && cur.Stage != *expect.Stage {
		return nil, model.NewConflictError("invalid stage transition")
	}
	if expect.Archived != nil && cur.Archived != *expect.Archived {
		return nil, model.NewConflictError("invalid stage transition")
	}

	next := clonePost(in)
	next.OwnerID = cur.OwnerID
	next.RepliesCount = cur.RepliesCount
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	p.s.posts[next.ID] = next
	return clonePost(next), nil
}

func (p *posts) IncrementReplies(ctx context.Context, id string, delta int) (*model.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	cur, ok := p.s.posts[id]
	if !ok {
		return nil, model.NewNotFoundError("post not found")
	}
	cur.RepliesCount += delta
	if cur.RepliesCount < 0 {
		cur.RepliesCount = 0
	}
	cur.UpdatedAt = time.Now().UTC()
	return clonePost(cur), nil
}

// --- Replies ---

type replies struct{ s *memStore }

func (r *replies) Create(ctx context.Context, in *model.Reply) (*model.Reply, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := cloneReply(in)
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now
	r.s.replies[out.ID] = out
	return cloneReply(out), nil
}

func (r *replies) GetByID(ctx context.Context, id string) (*model.Reply, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reply, ok := r.s.replies[id]
	if !ok {
		return nil, model.NewNotFoundError("reply not found")
	}
	return cloneReply(reply), nil
}

func (r *replies) ListByPost(ctx context.Context, postID string) ([]*model.Reply, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Reply, 0)
	for _, reply := range r.s.replies {
		if reply.PostID != postID || !reply.Active {
			continue
		}
		out = append(out, cloneReply(reply))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *replies) Update(ctx context.Context, in *model.Reply) (*model.Reply, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.replies[in.ID]
	if !ok || !cur.Active {
		return nil, model.NewNotFoundError("reply not found")
	}

	next := cloneReply(in)
	next.PostID = cur.PostID
	next.AuthorID = cur.AuthorID
	next.ParentReplyID = cur.ParentReplyID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	r.s.replies[next.ID] = next
	return cloneReply(next), nil
}

// --- helpers ---

func clonePost(p *model.Post) *model.Post {
	out := *p
	out.LastEditedAt = cloneTime(p.LastEditedAt)
	out.BannedAt = cloneTime(p.BannedAt)
	out.BannedBy = cloneString(p.BannedBy)
	out.BanReason = cloneString(p.BanReason)
	out.DeletedAt = cloneTime(p.DeletedAt)
	out.ArchivedAt = cloneTime(p.ArchivedAt)
	out.HiddenAt = cloneTime(p.HiddenAt)
	return &out
}

func cloneReply(r *model.Reply) *model.Reply {
	out := *r
	out.ParentReplyID = cloneString(r.ParentReplyID)
	out.DeletedAt = cloneTime(r.DeletedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
