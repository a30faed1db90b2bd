// Package policy centralizes the authorization predicates shared by the
// post and reply lifecycle engines. Everything here is a pure function of
// the actor and the entity; no storage access.
package policy

import (
	"strings"

	"github.com/harborpost/harborpost/internal/model"
)

// Authenticate is the first gate: the request must carry an actor.
func Authenticate(a *model.Actor) error {
	if a == nil || a.ID == "" {
		return model.NewUnauthorizedError("unauthorized")
	}
	return nil
}

// NotBanned is the second gate: banned actors are denied everything.
func NotBanned(a *model.Actor) error {
	if a.Banned {
		return model.NewForbiddenError("banned")
	}
	return nil
}

// Verified is the third gate, applied to mutating operations only.
func Verified(a *model.Actor) error {
	if !a.EmailVerified {
		return model.NewForbiddenError("email verification required")
	}
	return nil
}

// RequireViewer gates read operations: authenticated and not banned.
// Gates run in a fixed order and short-circuit on the first failure so
// each failure mode keeps its own signal.
func RequireViewer(a *model.Actor) error {
	if err := Authenticate(a); err != nil {
		return err
	}
	return NotBanned(a)
}

// RequireContributor gates mutating operations: viewer plus verified email.
func RequireContributor(a *model.Actor) error {
	if err := RequireViewer(a); err != nil {
		return err
	}
	return Verified(a)
}

// RequirePrivileged gates admin operations. Ownership is irrelevant for
// these; a privileged actor may act on any user's post.
func RequirePrivileged(a *model.Actor) error {
	if err := RequireViewer(a); err != nil {
		return err
	}
	if !a.Privileged() {
		return model.NewForbiddenError("admin only")
	}
	return nil
}

// IsOwner reports identity equality on normalized id forms. Comparison is
// symmetric and never depends on how either side was represented upstream.
func IsOwner(a *model.Actor, ownerID string) bool {
	if a == nil || a.ID == "" || ownerID == "" {
		return false
	}
	return strings.TrimSpace(a.ID) == strings.TrimSpace(ownerID)
}

// IsPrivileged reports whether the actor's role is ADMIN or SUPER_ADMIN.
func IsPrivileged(a *model.Actor) bool { return a.Privileged() }

// CanViewPost reports whether the actor may read the post. Published posts
// are visible to every viewer; anything else only to its owner or a
// privileged actor.
func CanViewPost(a *model.Actor, p *model.Post) bool {
	if p == nil {
		return false
	}
	if p.Stage == model.StagePublished {
		return true
	}
	return IsPrivileged(a) || IsOwner(a, p.OwnerID)
}
