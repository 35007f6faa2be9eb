package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/gvlarp/renfield/pkg/internal/database"
	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/gvlarp/renfield/pkg/internal/testutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openConnections(t *testing.T, gw *database.Gateway) int {
	t.Helper()
	sqlDB, err := gw.DB().DB()
	require.NoError(t, err)
	return sqlDB.Stats().OpenConnections
}

func TestNewGatewayRejectsUnknownDriver(t *testing.T) {
	cfg := testutil.Config(t)
	cfg.Database.Driver = "oracle"

	_, err := database.NewGateway(cfg)
	assert.Error(t, err)
}

func TestAcquireReleasesConnection(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()

	err := gw.Acquire(ctx, func(tx *gorm.DB) error {
		assert.Equal(t, 1, openConnections(t, gw))
		return tx.Create(&models.VoteGroup{Name: "AGM2025"}).Error
	})
	require.NoError(t, err)
	assert.Zero(t, openConnections(t, gw))

	boom := errors.New("boom")
	err = gw.Acquire(ctx, func(tx *gorm.DB) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, openConnections(t, gw))

	assert.Panics(t, func() {
		_ = gw.Acquire(ctx, func(tx *gorm.DB) error {
			panic("handler exploded")
		})
	})
	assert.Zero(t, openConnections(t, gw))
}

func TestTransactRollsBack(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()

	err := gw.Transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.VoteGroup{Name: "Doomed"}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")
	assert.Zero(t, testutil.CountGroups(t, gw, "Doomed"))

	err = gw.Transact(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.VoteGroup{Name: "Kept"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.CountGroups(t, gw, "Kept"))
	assert.Zero(t, openConnections(t, gw))
}

func TestAcquireAfterCloseIsConnectionError(t *testing.T) {
	gw := testutil.NewGateway(t)
	require.NoError(t, gw.Ping(context.Background()))
	require.NoError(t, gw.Close())

	called := false
	err := gw.Acquire(context.Background(), func(tx *gorm.DB) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.True(t, database.IsConnectionError(err))
	assert.True(t, database.IsConnectionError(gw.Ping(context.Background())))
}

func TestAcquireWithCancelledContext(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gw.Acquire(ctx, func(tx *gorm.DB) error {
		return nil
	})
	assert.True(t, database.IsConnectionError(err))
}

func TestNewGatewayWithRetryGivesUp(t *testing.T) {
	cfg := testutil.Config(t)
	cfg.Database.DSN = t.TempDir() + "/missing/dir/renfield.db"
	cfg.Database.ConnectRetries = 1

	_, err := database.NewGatewayWithRetry(context.Background(), cfg)
	assert.Error(t, err)
}

func TestUniqueViolationFromStore(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()

	insert := func() error {
		return gw.Acquire(ctx, func(tx *gorm.DB) error {
			return tx.Create(&models.VoteGroup{Name: "Twice"}).Error
		})
	}
	require.NoError(t, insert())
	assert.True(t, database.IsUniqueViolation(insert()))
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm", gorm.ErrDuplicatedKey, true},
		{"postgres", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"mysql", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1045}, false},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: votes_users.vote_id, votes_users.user_id (2067)"), true},
		{"wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"other", errors.New("disk I/O error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.IsUniqueViolation(tt.err))
		})
	}
}

func TestQueryErrorWrapping(t *testing.T) {
	assert.Nil(t, database.NewQueryError(nil))

	cause := errors.New("syntax error")
	err := database.NewQueryError(cause)
	assert.True(t, database.IsQueryError(err))
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, database.NewQueryError(err))

	conn := &database.ConnectionError{Err: cause}
	assert.Same(t, error(conn), database.NewQueryError(conn))
	assert.False(t, database.IsQueryError(conn))
}

func TestRunMigrationIsRepeatable(t *testing.T) {
	gw := testutil.NewGateway(t)
	require.NoError(t, database.RunMigration(gw.DB()))

	for _, model := range database.AutoMaintainRange {
		assert.True(t, gw.DB().Migrator().HasTable(model))
	}
	assert.True(t, gw.DB().Migrator().HasIndex(&models.Ballot{}, "idx_votes_users_vote_user"))
}

