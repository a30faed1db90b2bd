// Package sqlite implements store.Store on a local SQLite file, used by
// the dev-mode build target.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL journal mode.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id             TEXT PRIMARY KEY,
    owner_id       TEXT NOT NULL,
    title          TEXT NOT NULL,
    content        TEXT NOT NULL,
    stage          TEXT NOT NULL DEFAULT 'UNPUBLISHED',
    archived       INTEGER NOT NULL DEFAULT 0,
    replies_count  INTEGER NOT NULL DEFAULT 0,
    last_edited_at TIMESTAMP,
    banned_at      TIMESTAMP,
    banned_by      TEXT,
    ban_reason     TEXT,
    deleted_at     TIMESTAMP,
    archived_at    TIMESTAMP,
    hidden_at      TIMESTAMP,
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_stage_idx ON posts (stage);
CREATE INDEX IF NOT EXISTS posts_owner_idx ON posts (owner_id);

CREATE TABLE IF NOT EXISTS replies (
    id              TEXT PRIMARY KEY,
    post_id         TEXT NOT NULL REFERENCES posts (id),
    author_id       TEXT NOT NULL,
    comment         TEXT NOT NULL,
    parent_reply_id TEXT,
    active          INTEGER NOT NULL DEFAULT 1,
    deleted_at      TIMESTAMP,
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS replies_post_idx ON replies (post_id, active, created_at);
`

// New opens the database file and ensures the schema exists.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB allows wiring with an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Posts() store.Posts     { return &posts{db: s.db} }
func (s *sqliteStore) Replies() store.Replies { return &replies{db: s.db} }

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const postColumns = `id, owner_id, title, content, stage, archived, replies_count,
    last_edited_at, banned_at, banned_by, ban_reason, deleted_at, archived_at, hidden_at,
    created_at, updated_at`

// --- Posts ---

type posts struct{ db *sql.DB }

func (p *posts) Create(ctx context.Context, in *model.Post) (*model.Post, error) {
	out := *in
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	_, err := p.db.ExecContext(ctx, `
        INSERT INTO posts (id, owner_id, title, content, stage, archived, replies_count,
            last_edited_at, banned_at, banned_by, ban_reason, deleted_at, archived_at, hidden_at,
            created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.ID, out.OwnerID, out.Title, out.Content, string(out.Stage), out.Archived, out.RepliesCount,
		out.LastEditedAt, out.BannedAt, out.BannedBy, out.BanReason, out.DeletedAt, out.ArchivedAt, out.HiddenAt,
		out.CreatedAt, out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *posts) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=?`, id)
	out, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("post not found")
	}
	return out, err
}

func (p *posts) List(ctx context.Context, f store.PostFilter) ([]*model.Post, error) {
	var (
		where []string
		args  []any
	)
	if f.Stage != nil {
		where = append(where, "stage=?")
		args = append(args, string(*f.Stage))
	}
	if f.OwnerID != "" {
		where = append(where, "owner_id=?")
		args = append(args, f.OwnerID)
	}

	q := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderClause(f.Sort)
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, rows.Err()
}

func orderClause(s store.PostSort) string {
	switch s {
	case store.SortRecentlyUpdated:
		return "updated_at DESC"
	case store.SortTopReplies:
		return "replies_count DESC, updated_at DESC"
	case store.SortRecentlyDeleted:
		return "deleted_at DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

func (p *posts) Update(ctx context.Context, in *model.Post, expect store.PostExpect) (*model.Post, error) {
	args := []any{in.Title, in.Content, string(in.Stage), in.Archived,
		in.LastEditedAt, in.BannedAt, in.BannedBy, in.BanReason, in.DeletedAt, in.ArchivedAt, in.HiddenAt,
		time.Now().UTC(), in.ID}
	q := `
        UPDATE posts SET title=?, content=?, stage=?, archived=?,
            last_edited_at=?, banned_at=?, banned_by=?, ban_reason=?,
            deleted_at=?, archived_at=?, hidden_at=?, updated_at=?
        WHERE id=?`
	if expect.Stage != nil {
		q += " AND stage=?"
		args = append(args, string(*expect.Stage))
	}
	if expect.Archived != nil {
		q += " AND archived=?"
		args = append(args, *expect.Archived)
	}

	res, err := p.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Either the row is gone or a concurrent transition won first.
		if _, gerr := p.GetByID(ctx, in.ID); gerr != nil {
			return nil, gerr
		}
		return nil, model.NewConflictError("invalid stage transition")
	}
	return p.GetByID(ctx, in.ID)
}

func (p *posts) IncrementReplies(ctx context.Context, id string, delta int) (*model.Post, error) {
	res, err := p.db.ExecContext(ctx, `
        UPDATE posts SET replies_count = MAX(replies_count + ?, 0), updated_at=?
        WHERE id=?`, delta, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, model.NewNotFoundError("post not found")
	}
	return p.GetByID(ctx, id)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanPost(row rowScanner) (*model.Post, error) {
	var (
		out   model.Post
		stage string
	)
	if err := row.Scan(&out.ID, &out.OwnerID, &out.Title, &out.Content, &stage, &out.Archived,
		&out.RepliesCount, &out.LastEditedAt, &out.BannedAt, &out.BannedBy, &out.BanReason,
		&out.DeletedAt, &out.ArchivedAt, &out.HiddenAt, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	out.Stage = model.Stage(stage)
	return &out, nil
}

// --- Replies ---

const replyColumns = `id, post_id, author_id, comment, parent_reply_id, active, deleted_at,
    created_at, updated_at`

type replies struct{ db *sql.DB }

func (r *replies) Create(ctx context.Context, in *model.Reply) (*model.Reply, error) {
	out := *in
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO replies (id, post_id, author_id, comment, parent_reply_id, active, deleted_at,
            created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?)`,
		out.ID, out.PostID, out.AuthorID, out.Comment, out.ParentReplyID, out.Active, out.DeletedAt,
		out.CreatedAt, out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *replies) GetByID(ctx context.Context, id string) (*model.Reply, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+replyColumns+` FROM replies WHERE id=?`, id)
	out, err := scanReply(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("reply not found")
	}
	return out, err
}

func (r *replies) ListByPost(ctx context.Context, postID string) ([]*model.Reply, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+replyColumns+` FROM replies
        WHERE post_id=? AND active=1
        ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Reply
	for rows.Next() {
		reply, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reply)
	}
	return out, rows.Err()
}

func (r *replies) Update(ctx context.Context, in *model.Reply) (*model.Reply, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE replies SET comment=?, active=?, deleted_at=?, updated_at=?
        WHERE id=? AND active=1`,
		in.Comment, in.Active, in.DeletedAt, time.Now().UTC(), in.ID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, model.NewNotFoundError("reply not found")
	}
	return r.GetByID(ctx, in.ID)
}

func scanReply(row rowScanner) (*model.Reply, error) {
	var out model.Reply
	if err := row.Scan(&out.ID, &out.PostID, &out.AuthorID, &out.Comment, &out.ParentReplyID,
		&out.Active, &out.DeletedAt, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
