package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/harborpost/harborpost/internal/model"
	"github.com/harborpost/harborpost/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Posts() store.Posts     { return &posts{db: s.db} }
func (s *pgStore) Replies() store.Replies { return &replies{db: s.db} }

func (s *pgStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id             UUID PRIMARY KEY,
    owner_id       TEXT NOT NULL,
    title          TEXT NOT NULL,
    content        TEXT NOT NULL,
    stage          TEXT NOT NULL DEFAULT 'UNPUBLISHED',
    archived       BOOLEAN NOT NULL DEFAULT FALSE,
    replies_count  INTEGER NOT NULL DEFAULT 0,
    last_edited_at TIMESTAMPTZ,
    banned_at      TIMESTAMPTZ,
    banned_by      TEXT,
    ban_reason     TEXT,
    deleted_at     TIMESTAMPTZ,
    archived_at    TIMESTAMPTZ,
    hidden_at      TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS posts_stage_idx ON posts (stage);
CREATE INDEX IF NOT EXISTS posts_owner_idx ON posts (owner_id);

CREATE TABLE IF NOT EXISTS replies (
    id              UUID PRIMARY KEY,
    post_id         UUID NOT NULL REFERENCES posts (id),
    author_id       TEXT NOT NULL,
    comment         TEXT NOT NULL,
    parent_reply_id UUID,
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    deleted_at      TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS replies_post_idx ON replies (post_id, active, created_at);
`

// Bootstrap creates the schema when it does not exist yet.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

const postColumns = `id, owner_id, title, content, stage, archived, replies_count,
    last_edited_at, banned_at, banned_by, ban_reason, deleted_at, archived_at, hidden_at,
    created_at, updated_at`

// --- Posts ---

type posts struct{ db *sql.DB }

func (p *posts) Create(ctx context.Context, in *model.Post) (*model.Post, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := p.db.QueryRowContext(ctx, `
        INSERT INTO posts (id, owner_id, title, content, stage, archived, replies_count,
            last_edited_at, banned_at, banned_by, ban_reason, deleted_at, archived_at, hidden_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING `+postColumns,
		id, in.OwnerID, in.Title, in.Content, string(in.Stage), in.Archived, in.RepliesCount,
		in.LastEditedAt, in.BannedAt, in.BannedBy, in.BanReason, in.DeletedAt, in.ArchivedAt, in.HiddenAt)
	return scanPost(row)
}

func (p *posts) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
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
		args = append(args, string(*f.Stage))
		where = append(where, fmt.Sprintf("stage=$%d", len(args)))
	}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		where = append(where, fmt.Sprintf("owner_id=$%d", len(args)))
	}

	q := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderClause(f.Sort)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
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
		return "deleted_at DESC NULLS LAST, created_at DESC"
	default:
		return "created_at DESC"
	}
}

func (p *posts) Update(ctx context.Context, in *model.Post, expect store.PostExpect) (*model.Post, error) {
	args := []any{in.ID, in.Title, in.Content, string(in.Stage), in.Archived,
		in.LastEditedAt, in.BannedAt, in.BannedBy, in.BanReason, in.DeletedAt, in.ArchivedAt, in.HiddenAt}
	q := `
        UPDATE posts SET title=$2, content=$3, stage=$4, archived=$5,
            last_edited_at=$6, banned_at=$7, banned_by=$8, ban_reason=$9,
            deleted_at=$10, archived_at=$11, hidden_at=$12, updated_at=now()
        WHERE id=$1`
	if expect.Stage != nil {
		args = append(args, string(*expect.Stage))
		q += fmt.Sprintf(" AND stage=$%d", len(args))
	}
	if expect.Archived != nil {
		args = append(args, *expect.Archived)
		q += fmt.Sprintf(" AND archived=$%d", len(args))
	}
	q += " RETURNING " + postColumns

	out, err := scanPost(p.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		// Either the row is gone or a concurrent transition won first.
		if _, gerr := p.GetByID(ctx, in.ID); gerr != nil {
			return nil, gerr
		}
		return nil, model.NewConflictError("invalid stage transition")
	}
	return out, err
}

func (p *posts) IncrementReplies(ctx context.Context, id string, delta int) (*model.Post, error) {
	row := p.db.QueryRowContext(ctx, `
        UPDATE posts SET replies_count = GREATEST(replies_count + $2, 0), updated_at=now()
        WHERE id=$1
        RETURNING `+postColumns, id, delta)
	out, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("post not found")
	}
	return out, err
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
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO replies (id, post_id, author_id, comment, parent_reply_id, active, deleted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING `+replyColumns,
		id, in.PostID, in.AuthorID, in.Comment, in.ParentReplyID, in.Active, in.DeletedAt)
	return scanReply(row)
}

func (r *replies) GetByID(ctx context.Context, id string) (*model.Reply, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+replyColumns+` FROM replies WHERE id=$1`, id)
	out, err := scanReply(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("reply not found")
	}
	return out, err
}

func (r *replies) ListByPost(ctx context.Context, postID string) ([]*model.Reply, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+replyColumns+` FROM replies
        WHERE post_id=$1 AND active=TRUE
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
	row := r.db.QueryRowContext(ctx, `
        UPDATE replies SET comment=$2, active=$3, deleted_at=$4, updated_at=now()
        WHERE id=$1 AND active=TRUE
        RETURNING `+replyColumns,
		in.ID, in.Comment, in.Active, in.DeletedAt)
	out, err := scanReply(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("reply not found")
	}
	return out, err
}

func scanReply(row rowScanner) (*model.Reply, error) {
	var out model.Reply
	if err := row.Scan(&out.ID, &out.PostID, &out.AuthorID, &out.Comment, &out.ParentReplyID,
		&out.Active, &out.DeletedAt, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
