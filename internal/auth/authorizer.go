// Package auth converts the identity collaborator's per-request actor
// descriptor into a model.Actor. Credential verification happens upstream;
// this package never sees a credential.
package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/harborpost/harborpost/internal/model"
)

// Actor descriptor headers injected by the identity gateway. The gateway
// strips any client-supplied copies before they reach this service.
const (
	HeaderActorID       = "X-Actor-Id"
	HeaderActorRole     = "X-Actor-Role"
	HeaderActorVerified = "X-Actor-Verified"
	HeaderActorBanned   = "X-Actor-Banned"
)

// Authorizer resolves the actor executing a request. A request without an
// actor resolves to nil; the policy gates turn that into Unauthorized.
type Authorizer interface {
	Authorize(r *http.Request) *model.Actor
}

// HeaderAuthorizer trusts the gateway-injected actor headers.
type HeaderAuthorizer struct{}

// NewHeaderAuthorizer creates the production authorizer.
func NewHeaderAuthorizer() *HeaderAuthorizer { return &HeaderAuthorizer{} }

// Authorize builds the actor from the request headers. An unknown role
// degrades to USER rather than escalating.
func (a *HeaderAuthorizer) Authorize(r *http.Request) *model.Actor {
	id := strings.TrimSpace(r.Header.Get(HeaderActorID))
	if id == "" {
		return nil
	}

	role, err := model.ParseRole(r.Header.Get(HeaderActorRole))
	if err != nil {
		role = model.RoleUser
	}

	verified, _ := strconv.ParseBool(r.Header.Get(HeaderActorVerified))
	banned, _ := strconv.ParseBool(r.Header.Get(HeaderActorBanned))

	return &model.Actor{
		ID:            id,
		Role:          role,
		EmailVerified: verified,
		Banned:        banned,
	}
}
