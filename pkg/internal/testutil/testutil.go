package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gvlarp/renfield/pkg/internal/config"
	"github.com/gvlarp/renfield/pkg/internal/database"
	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SqliteDSN points at a fresh database file inside the test's temp dir.
// WAL and a busy timeout let concurrent tests write without SQLITE_BUSY.
func SqliteDSN(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "renfield.db")
	return fmt.Sprintf("%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
}

func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver: config.DriverSqlite,
			DSN:    SqliteDSN(t),
		},
		HTTP: config.HTTPConfig{
			Bind:               ":0",
			InteractionTimeout: 5 * time.Second,
		},
		Cache: config.CacheConfig{TTL: time.Minute},
	}
}

// NewGateway opens a migrated sqlite backed gateway that is closed when the
// test ends.
func NewGateway(t *testing.T) *database.Gateway {
	t.Helper()

	gw, err := database.NewGateway(Config(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = gw.Close()
	})
	require.NoError(t, database.RunMigration(gw.DB()))
	return gw
}

func CountRows(t *testing.T, gw *database.Gateway, model any, query string, args ...any) int64 {
	t.Helper()

	var count int64
	err := gw.Acquire(context.Background(), func(tx *gorm.DB) error {
		tx = tx.Model(model)
		if query != "" {
			tx = tx.Where(query, args...)
		}
		return tx.Count(&count).Error
	})
	require.NoError(t, err)
	return count
}

func CountBallots(t *testing.T, gw *database.Gateway, voteID uint) int64 {
	t.Helper()
	return CountRows(t, gw, &models.Ballot{}, "vote_id = ?", voteID)
}

func CountVotes(t *testing.T, gw *database.Gateway) int64 {
	t.Helper()
	return CountRows(t, gw, &models.Vote{}, "")
}

func CountGroups(t *testing.T, gw *database.Gateway, name string) int64 {
	t.Helper()
	return CountRows(t, gw, &models.VoteGroup{}, "group_name = ?", name)
}
