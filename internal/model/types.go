package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the authority level carried by an actor.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// ParseRole maps a raw role string onto the closed Role set.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSuperAdmin:
		return RoleSuperAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Stage is the publication state of a post.
type Stage string

const (
	StageUnpublished Stage = "UNPUBLISHED"
	StagePublished   Stage = "PUBLISHED"
	StageHidden      Stage = "HIDDEN"
	StageBanned      Stage = "BANNED"
	StageDeleted     Stage = "DELETED"
)

// Valid reports whether the stage belongs to the closed stage set.
func (s Stage) Valid() bool {
	switch s {
	case StageUnpublished, StagePublished, StageHidden, StageBanned, StageDeleted:
		return true
	}
	return false
}

// ParseStage maps a raw stage string onto the closed Stage set.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return st, nil
}

// Actor is the authenticated identity executing a request. It is derived
// per request from the identity collaborator and never persisted here.
type Actor struct {
	ID            string `json:"id"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	Banned        bool   `json:"banned"`
}

// Privileged reports whether the actor carries admin authority.
func (a *Actor) Privileged() bool {
	if a == nil {
		return false
	}
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

// Post is the aggregate root of the content lifecycle.
type Post struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Stage        Stage      `json:"stage"`
	Archived     bool       `json:"archived"`
	RepliesCount int        `json:"repliesCount"`
	LastEditedAt *time.Time `json:"lastEditedAt,omitempty"`
	BannedAt     *time.Time `json:"bannedAt,omitempty"`
	BannedBy     *string    `json:"bannedBy,omitempty"`
	BanReason    *string    `json:"banReason,omitempty"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	ArchivedAt   *time.Time `json:"archivedAt,omitempty"`
	HiddenAt     *time.Time `json:"hiddenAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Reply references a post and optionally a parent reply on the same post.
// Replies are soft-deleted only; Active=false rows stay in the store.
type Reply struct {
	ID            string     `json:"id"`
	PostID        string     `json:"postId"`
	AuthorID      string     `json:"authorId"`
	Comment       string     `json:"comment"`
	ParentReplyID *string    `json:"parentReplyId,omitempty"`
	Active        bool       `json:"active"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// MaxCommentLen bounds reply comments after trimming.
const MaxCommentLen = 5000

// NormalizeID brings an entity id to its canonical lowercase UUID form so
// that id equality never depends on representation. A malformed id is a
// caller-input problem, not a storage error.
func NormalizeID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", NewBadRequestError("invalid id format")
	}
	return u.String(), nil
}
