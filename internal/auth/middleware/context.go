package auth

import (
	"context"
	"strconv"
)

// Kind separates the two account tables.
type Kind string

const (
	KindStudent    Kind = "student"
	KindInstructor Kind = "instructor"
)

func (k Kind) Valid() bool { return k == KindStudent || k == KindInstructor }

// Identity is the authenticated caller for one request.
type Identity struct {
	Kind Kind   `json:"kind"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Subject is the JWT sub claim for the identity.
func (i Identity) Subject() string { return strconv.FormatInt(i.ID, 10) }

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok
}
