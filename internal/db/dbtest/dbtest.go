// Package dbtest opens throwaway in-memory SQLite gateways for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-exams/internal/db"
)

// Open returns a migrated in-memory gateway that is closed with the test.
func Open(t testing.TB) *db.Gateway {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gw, err := db.Open(ctx, db.DriverSQLite, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}
