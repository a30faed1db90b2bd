package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/store/memory"
)

// --- Shared fixtures ---

func contributor(id string) *model.Actor {
	return &model.Actor{ID: id, Role: model.RoleUser, EmailVerified: true}
}

func admin(id string) *model.Actor {
	return &model.Actor{ID: id, Role: model.RoleAdmin, EmailVerified: true}
}

func newPostFixture(t *testing.T) (*PostService, *QueryService, *ReplyService) {
	t.Helper()
	st := memory.New()
	return NewPostService(st, nil), NewQueryService(st, nil), NewReplyService(st)
}

func mustPublish(t *testing.T, svc *PostService, actor *model.Actor) *model.Post {
	t.Helper()
	p, err := svc.CreateAndPublish(context.Background(), actor, CreatePostInput{
		Title: "t", Content: "c",
	})
	require.NoError(t, err)
	return p
}

// --- Creation ---

func TestPostService_CreateDraft(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")

	p, err := svc.CreateDraft(ctx, owner, CreatePostInput{Title: " My Title ", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, model.StageUnpublished, p.Stage)
	assert.Equal(t, "My Title", p.Title)
	assert.Equal(t, "alice", p.OwnerID)
	assert.False(t, p.Archived)
	assert.Zero(t, p.RepliesCount)
}

func TestPostService_CreateValidation(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")

	_, err := svc.CreateDraft(ctx, owner, CreatePostInput{Title: "  ", Content: "body"})
	assert.True(t, model.IsBadRequest(err))

	_, err = svc.CreateDraft(ctx, owner, CreatePostInput{Title: "t", Content: ""})
	assert.True(t, model.IsBadRequest(err))
}

func TestPostService_CreateGates(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	in := CreatePostInput{Title: "t", Content: "c"}

	_, err := svc.CreateDraft(ctx, nil, in)
	assert.True(t, model.IsUnauthorized(err), "anonymous actor")

	_, err = svc.CreateDraft(ctx, &model.Actor{ID: "x", Role: model.RoleUser, EmailVerified: true, Banned: true}, in)
	assert.True(t, model.IsForbidden(err), "banned actor")

	_, err = svc.CreateDraft(ctx, &model.Actor{ID: "x", Role: model.RoleUser}, in)
	assert.True(t, model.IsForbidden(err), "unverified actor")
}

// --- Stage transitions ---

func TestPostService_PublishHideUnhideRoundTrip(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")

	p, err := svc.CreateDraft(ctx, owner, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	p, err = svc.Publish(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagePublished, p.Stage)

	p, err = svc.Hide(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageHidden, p.Stage)
	require.NotNil(t, p.HiddenAt)

	p, err = svc.Unhide(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagePublished, p.Stage)
	assert.Nil(t, p.HiddenAt)
}

func TestPostService_InvalidTransitionsConflict(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")

	draft, err := svc.CreateDraft(ctx, owner, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Hide(ctx, owner, draft.ID)
	assert.True(t, model.IsConflict(err), "hide a draft")

	_, err = svc.Unhide(ctx, owner, draft.ID)
	assert.True(t, model.IsConflict(err), "unhide a draft")

	_, err = svc.Archive(ctx, owner, draft.ID)
	assert.True(t, model.IsConflict(err), "archive a draft")

	published := mustPublish(t, svc, owner)
	_, err = svc.Publish(ctx, owner, published.ID)
	assert.True(t, model.IsConflict(err), "publish twice")
}

func TestPostService_ArchiveBlocksHide(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	p := mustPublish(t, svc, owner)

	p, err := svc.Archive(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, p.Archived)
	require.NotNil(t, p.ArchivedAt)
	assert.Equal(t, model.StagePublished, p.Stage, "archiving does not change the stage")

	_, err = svc.Archive(ctx, owner, p.ID)
	assert.True(t, model.IsConflict(err), "archive twice")

	_, err = svc.Hide(ctx, owner, p.ID)
	assert.True(t, model.IsConflict(err), "hide while archived")

	p, err = svc.Unarchive(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.False(t, p.Archived)
	assert.Nil(t, p.ArchivedAt)

	_, err = svc.Unarchive(ctx, owner, p.ID)
	assert.True(t, model.IsConflict(err), "unarchive twice")
}

// --- Editing ---

func TestPostService_UpdateMyPost(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	p := mustPublish(t, svc, owner)
	require.Nil(t, p.LastEditedAt)

	title := "new title"
	out, err := svc.UpdateMyPost(ctx, owner, p.ID, UpdatePostInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new title", out.Title)
	assert.Equal(t, "c", out.Content)
	require.NotNil(t, out.LastEditedAt)

	// An edit that changes nothing is rejected.
	_, err = svc.UpdateMyPost(ctx, owner, p.ID, UpdatePostInput{Title: &title})
	assert.True(t, model.IsBadRequest(err))

	empty := "  "
	_, err = svc.UpdateMyPost(ctx, owner, p.ID, UpdatePostInput{Content: &empty})
	assert.True(t, model.IsBadRequest(err))

	_, err = svc.UpdateMyPost(ctx, owner, p.ID, UpdatePostInput{})
	assert.True(t, model.IsBadRequest(err))
}

func TestPostService_AdminCannotEditOthersPost(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	moderator := admin("mod")
	p := mustPublish(t, svc, owner)

	title := "defaced"
	_, err := svc.UpdateMyPost(ctx, moderator, p.ID, UpdatePostInput{Title: &title})
	assert.True(t, model.IsForbidden(err), "ownership is not bypassed by role")

	_, err = svc.Delete(ctx, moderator, p.ID)
	assert.True(t, model.IsForbidden(err))

	_, err = svc.Hide(ctx, moderator, p.ID)
	assert.True(t, model.IsForbidden(err))
}

func TestPostService_UpdateBannedOrDeletedConflicts(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	moderator := admin("mod")

	p := mustPublish(t, svc, owner)
	_, err := svc.Ban(ctx, moderator, p.ID, nil)
	require.NoError(t, err)

	title := "x"
	_, err = svc.UpdateMyPost(ctx, owner, p.ID, UpdatePostInput{Title: &title})
	assert.True(t, model.IsConflict(err), "edit a banned post")

	q := mustPublish(t, svc, owner)
	_, err = svc.Delete(ctx, owner, q.ID)
	require.NoError(t, err)
	_, err = svc.UpdateMyPost(ctx, owner, q.ID, UpdatePostInput{Title: &title})
	assert.True(t, model.IsConflict(err), "edit a deleted post")
}

// --- Delete / recover ---

func TestPostService_DeleteIsIdempotent(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	p := mustPublish(t, svc, owner)

	first, err := svc.Delete(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageDeleted, first.Stage)
	require.NotNil(t, first.DeletedAt)

	second, err := svc.Delete(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageDeleted, second.Stage)
	assert.Equal(t, first.DeletedAt.Unix(), second.DeletedAt.Unix())
}

func TestPostService_DeleteClearsPriorStageMetadata(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	moderator := admin("mod")

	// Banned post: the owner may still delete it, and the ban fields must
	// not survive into the DELETED stage or a later recover.
	p := mustPublish(t, svc, owner)
	reason := "spam"
	_, err := svc.Ban(ctx, moderator, p.ID, &reason)
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageDeleted, deleted.Stage)
	require.NotNil(t, deleted.DeletedAt)
	assert.Nil(t, deleted.BannedAt)
	assert.Nil(t, deleted.BannedBy)
	assert.Nil(t, deleted.BanReason)

	recovered, err := svc.Recover(ctx, moderator, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagePublished, recovered.Stage)
	assert.Nil(t, recovered.DeletedAt)
	assert.Nil(t, recovered.BannedAt)
	assert.Nil(t, recovered.BannedBy)
	assert.Nil(t, recovered.BanReason)

	// Hidden post: HiddenAt is metadata of the stage being left.
	q := mustPublish(t, svc, owner)
	_, err = svc.Hide(ctx, owner, q.ID)
	require.NoError(t, err)

	deleted, err = svc.Delete(ctx, owner, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageDeleted, deleted.Stage)
	assert.Nil(t, deleted.HiddenAt)
}

func TestPostService_RecoverRequiresAdmin(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	moderator := admin("mod")

	p := mustPublish(t, svc, owner)
	_, err := svc.Delete(ctx, owner, p.ID)
	require.NoError(t, err)

	_, err = svc.Recover(ctx, owner, p.ID)
	assert.True(t, model.IsForbidden(err))

	out, err := svc.Recover(ctx, moderator, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagePublished, out.Stage)
	assert.Nil(t, out.DeletedAt)

	_, err = svc.Recover(ctx, moderator, p.ID)
	assert.True(t, model.IsConflict(err), "recover a live post")
}

// --- Ban / unban ---

func TestPostService_BanForcesArchive(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	moderator := admin("mod")
	p := mustPublish(t, svc, owner)

	reason := "spam"
	out, err := svc.Ban(ctx, moderator, p.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, model.StageBanned, out.Stage)
	assert.True(t, out.Archived)
	require.NotNil(t, out.BannedAt)
	require.NotNil(t, out.BannedBy)
	assert.Equal(t, "mod", *out.BannedBy)
	require.NotNil(t, out.BanReason)
	assert.Equal(t, "spam", *out.BanReason)
}

func TestPostService_UnbanKeepsArchived(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	moderator := admin("mod")
	p := mustPublish(t, svc, owner)

	_, err := svc.Ban(ctx, moderator, p.ID, nil)
	require.NoError(t, err)

	out, err := svc.Unban(ctx, moderator, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagePublished, out.Stage)
	assert.True(t, out.Archived, "unban leaves the post archived")
	assert.Nil(t, out.BannedAt)
	assert.Nil(t, out.BannedBy)
	assert.Nil(t, out.BanReason)

	// The owner reopens replies explicitly.
	out, err = svc.Unarchive(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.False(t, out.Archived)
}

func TestPostService_BanGates(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")
	p := mustPublish(t, svc, owner)

	_, err := svc.Ban(ctx, owner, p.ID, nil)
	assert.True(t, model.IsForbidden(err), "regular user cannot ban")

	moderator := admin("mod")
	draft, err := svc.CreateDraft(ctx, owner, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	_, err = svc.Ban(ctx, moderator, draft.ID, nil)
	assert.True(t, model.IsConflict(err), "only published posts can be banned")

	_, err = svc.Unban(ctx, moderator, p.ID)
	assert.True(t, model.IsConflict(err), "unban a post that is not banned")
}

// --- Id handling ---

func TestPostService_MalformedID(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	owner := contributor("alice")

	_, err := svc.Publish(ctx, owner, "not-a-uuid")
	assert.True(t, model.IsBadRequest(err))

	_, err = svc.Delete(ctx, owner, "also bad")
	assert.True(t, model.IsBadRequest(err))
}
