package exam

import (
	"context"

	"github.com/mind-engage/mindengage-exams/internal/db"
)

// Gateway is the persistence surface the exam service needs. *db.Gateway satisfies it.
type Gateway interface {
	db.Querier
	InTx(ctx context.Context, fn func(q db.Querier) error) error
	RegisterAll(procs map[string]string)
}
