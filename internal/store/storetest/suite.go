// Package storetest holds a compliance suite run against every store adapter.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/store"
)

// Run exercises the store contract against an implementation.
// makeStore should provide a clean, isolated store per call.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	ownerID := "u-" + uuid.NewString()

	// Posts: create and read back.
	p, err := s.Posts().Create(ctx, &model.Post{
		OwnerID: ownerID,
		Title:   "first",
		Content: "body",
		Stage:   model.StageUnpublished,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("CreatePost: empty id")
	}
	if got, err := s.Posts().GetByID(ctx, p.ID); err != nil || got.Title != "first" {
		t.Fatalf("GetPost: got=%v err=%v", got, err)
	}
	if _, err := s.Posts().GetByID(ctx, uuid.NewString()); !model.IsNotFound(err) {
		t.Fatalf("GetPost missing: want NotFound, got %v", err)
	}

	// Conditional update keyed on stage.
	next := *p
	next.Stage = model.StagePublished
	upd, err := s.Posts().Update(ctx, &next, expectStage(model.StageUnpublished))
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if upd.Stage != model.StagePublished {
		t.Fatalf("UpdatePost: stage=%s", upd.Stage)
	}

	// A second writer keyed on the old pre-state must lose.
	stale := *p
	stale.Stage = model.StageHidden
	if _, err := s.Posts().Update(ctx, &stale, expectStage(model.StageUnpublished)); !model.IsConflict(err) {
		t.Fatalf("stale UpdatePost: want Conflict, got %v", err)
	}

	missing := *p
	missing.ID = uuid.NewString()
	if _, err := s.Posts().Update(ctx, &missing, store.PostExpect{}); !model.IsNotFound(err) {
		t.Fatalf("UpdatePost missing: want NotFound, got %v", err)
	}

	// Counter: atomic delta, clamped at zero.
	if got, err := s.Posts().IncrementReplies(ctx, p.ID, 2); err != nil || got.RepliesCount != 2 {
		t.Fatalf("IncrementReplies +2: got=%v err=%v", got, err)
	}
	if got, err := s.Posts().IncrementReplies(ctx, p.ID, -5); err != nil || got.RepliesCount != 0 {
		t.Fatalf("IncrementReplies clamp: got=%v err=%v", got, err)
	}

	// Listing: stage filter and ordering.
	p2, err := s.Posts().Create(ctx, &model.Post{
		OwnerID: ownerID, Title: "second", Content: "body", Stage: model.StagePublished,
	})
	if err != nil {
		t.Fatalf("CreatePost second: %v", err)
	}
	published := model.StagePublished
	lst, err := s.Posts().List(ctx, store.PostFilter{Stage: &published, Sort: store.SortNewestFirst})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(lst) != 2 {
		t.Fatalf("ListPosts: n=%d", len(lst))
	}

	top, err := s.Posts().List(ctx, store.PostFilter{OwnerID: ownerID, Sort: store.SortTopReplies, Limit: 1})
	if err != nil || len(top) != 1 {
		t.Fatalf("ListPosts top: n=%d err=%v", len(top), err)
	}

	// Replies: create, thread order, soft delete semantics.
	r1, err := s.Replies().Create(ctx, &model.Reply{
		PostID: p2.ID, AuthorID: ownerID, Comment: "one", Active: true,
	})
	if err != nil {
		t.Fatalf("CreateReply: %v", err)
	}
	r2, err := s.Replies().Create(ctx, &model.Reply{
		PostID: p2.ID, AuthorID: ownerID, Comment: "two", Active: true, ParentReplyID: &r1.ID,
	})
	if err != nil {
		t.Fatalf("CreateReply nested: %v", err)
	}

	thread, err := s.Replies().ListByPost(ctx, p2.ID)
	if err != nil || len(thread) != 2 {
		t.Fatalf("ListByPost: n=%d err=%v", len(thread), err)
	}
	if thread[0].ID != r1.ID || thread[1].ID != r2.ID {
		t.Fatalf("ListByPost: wrong thread order")
	}

	now := time.Now().UTC()
	gone := *r2
	gone.Active = false
	gone.DeletedAt = &now
	if _, err := s.Replies().Update(ctx, &gone); err != nil {
		t.Fatalf("soft delete reply: %v", err)
	}
	if thread, err := s.Replies().ListByPost(ctx, p2.ID); err != nil || len(thread) != 1 {
		t.Fatalf("ListByPost after delete: n=%d err=%v", len(thread), err)
	}

	// Inactive rows are invisible to updates.
	if _, err := s.Replies().Update(ctx, &gone); !model.IsNotFound(err) {
		t.Fatalf("update inactive reply: want NotFound, got %v", err)
	}

	// Counter under concurrent writers: deltas must serialize and the clamp
	// must hold however the decrements interleave.
	busy, err := s.Posts().Create(ctx, &model.Post{
		OwnerID: ownerID, Title: "busy", Content: "body", Stage: model.StagePublished,
	})
	if err != nil {
		t.Fatalf("CreatePost busy: %v", err)
	}
	const writers = 8
	bump := func(delta int) {
		t.Helper()
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		counts := make(chan int, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := s.Posts().IncrementReplies(ctx, busy.ID, delta)
				if err != nil {
					errs <- err
					return
				}
				counts <- got.RepliesCount
			}()
		}
		wg.Wait()
		close(errs)
		close(counts)
		for err := range errs {
			t.Fatalf("concurrent IncrementReplies: %v", err)
		}
		for c := range counts {
			if c < 0 {
				t.Fatalf("concurrent IncrementReplies: count went negative (%d)", c)
			}
		}
	}
	bump(1)
	if got, err := s.Posts().GetByID(ctx, busy.ID); err != nil || got.RepliesCount != writers {
		t.Fatalf("count after concurrent increments: got=%v err=%v", got, err)
	}
	bump(-1)
	if got, err := s.Posts().GetByID(ctx, busy.ID); err != nil || got.RepliesCount != 0 {
		t.Fatalf("count after concurrent decrements: got=%v err=%v", got, err)
	}
	// Every decrement on an empty counter clamps at zero.
	bump(-1)
	if got, err := s.Posts().GetByID(ctx, busy.ID); err != nil || got.RepliesCount != 0 {
		t.Fatalf("clamp under concurrent decrements: got=%v err=%v", got, err)
	}

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func expectStage(st model.Stage) store.PostExpect {
	return store.PostExpect{Stage: &st}
}
