// Package userdisplay resolves labels for users shown in page content.
//
// The backend only reveals the email of the session's own user, so any
// other user id resolves to nothing until a profile store exists.
package userdisplay

import (
	"context"
	"log"
	"strings"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
)

// SessionUser reads the user of the current session.
type SessionUser interface {
	GetUser(ctx context.Context) (*backend.User, error)
}

// Email returns the email of targetID when it is the session's own user.
// Lookup failures are logged and reported as absent.
func Email(ctx context.Context, users SessionUser, targetID string) (string, bool) {
	targetID = strings.TrimSpace(targetID)
	if users == nil || targetID == "" {
		return "", false
	}
	user, err := users.GetUser(ctx)
	if err != nil {
		log.Printf("user email lookup failed target_id=%s err=%v", targetID, err)
		return "", false
	}
	if user == nil || user.ID != targetID {
		return "", false
	}
	email := strings.TrimSpace(user.Email)
	if email == "" {
		return "", false
	}
	return email, true
}

// Resolver answers Email for many ids with a single session lookup.
type Resolver struct {
	users  SessionUser
	looked bool
	user   *backend.User
}

// NewResolver returns a resolver over users. It is not safe for concurrent
// use; build one per render.
func NewResolver(users SessionUser) *Resolver {
	return &Resolver{users: users}
}

// Email behaves like the package-level Email but reads the session user at
// most once.
func (r *Resolver) Email(ctx context.Context, targetID string) (string, bool) {
	if r == nil {
		return "", false
	}
	if !r.looked {
		r.looked = true
		if r.users != nil {
			user, err := r.users.GetUser(ctx)
			if err != nil {
				log.Printf("user email lookup failed target_id=%s err=%v", targetID, err)
			} else {
				r.user = user
			}
		}
	}
	return Email(ctx, cachedUser{user: r.user}, targetID)
}

type cachedUser struct {
	user *backend.User
}

func (c cachedUser) GetUser(context.Context) (*backend.User, error) {
	return c.user, nil
}
