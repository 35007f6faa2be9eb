package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/gvlarp/renfield/pkg/internal/database"
	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	DefaultGroupSearchLimit = 10
	groupCacheTag           = "vote-groups"
)

type GroupRegistry struct {
	db       Acquirer
	cache    *marshaler.Marshaler
	cacheTTL time.Duration
}

// NewGroupRegistry creates the registry. A nil cache disables caching of
// search results.
func NewGroupRegistry(db Acquirer, cache *marshaler.Marshaler, cacheTTL time.Duration) *GroupRegistry {
	return &GroupRegistry{db: db, cache: cache, cacheTTL: cacheTTL}
}

func GetGroupSearchCacheKey(fragment string, limit int) string {
	return fmt.Sprintf("vote-group-search#%d#%s", limit, fragment)
}

func findGroupByName(tx *gorm.DB, name string) (models.VoteGroup, error) {
	var group models.VoteGroup
	if err := tx.Where("group_name = ?", name).First(&group).Error; err != nil {
		return group, err
	}
	return group, nil
}

// findOrCreateGroup runs inside the caller's connection. The insert is kept
// in a nested transaction so a lost race on the unique index only rolls back
// to the savepoint and the winner's row can be read afterwards.
func findOrCreateGroup(tx *gorm.DB, name string) (models.VoteGroup, bool, error) {
	group, err := findGroupByName(tx, name)
	if err == nil {
		return group, false, nil
	} else if !database.IsNotFound(err) {
		return group, false, database.NewQueryError(err)
	}

	group = models.VoteGroup{Name: name}
	err = tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&group).Error
	})
	if err == nil {
		return group, true, nil
	} else if !database.IsUniqueViolation(err) {
		return group, false, database.NewQueryError(err)
	}

	group, err = findGroupByName(tx, name)
	if err != nil {
		return group, false, database.NewQueryError(err)
	}
	return group, false, nil
}

// FindOrCreate returns the group with exactly this name, creating it when
// absent.
func (v *GroupRegistry) FindOrCreate(ctx context.Context, name string) (models.VoteGroup, error) {
	var group models.VoteGroup
	var created bool
	err := v.db.Transact(ctx, func(tx *gorm.DB) error {
		var err error
		group, created, err = findOrCreateGroup(tx, name)
		return err
	})
	if err != nil {
		return group, err
	}
	if created {
		v.invalidate(ctx)
	}
	return group, nil
}

// Create inserts a new group and fails with ErrGroupExists instead of
// touching an existing one.
func (v *GroupRegistry) Create(ctx context.Context, name string) (models.VoteGroup, error) {
	group := models.VoteGroup{Name: name}
	err := v.db.Acquire(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrGroupExists
			}
			return database.NewQueryError(err)
		}
		return nil
	})
	if err != nil {
		return group, err
	}
	v.invalidate(ctx)
	return group, nil
}

func (v *GroupRegistry) Get(ctx context.Context, name string) (models.VoteGroup, error) {
	var group models.VoteGroup
	err := v.db.Acquire(ctx, func(tx *gorm.DB) error {
		var err error
		if group, err = findGroupByName(tx, name); err != nil {
			if database.IsNotFound(err) {
				return ErrGroupNotFound
			}
			return database.NewQueryError(err)
		}
		return nil
	})
	return group, err
}

func (v *GroupRegistry) ListAll(ctx context.Context) ([]models.VoteGroup, error) {
	var groups []models.VoteGroup
	err := v.db.Acquire(ctx, func(tx *gorm.DB) error {
		return database.NewQueryError(tx.Find(&groups).Error)
	})
	return groups, err
}

// Search returns up to limit groups whose name contains fragment. Matching
// is a literal, case-sensitive substring match done by the store; order is
// whatever the store returns.
func (v *GroupRegistry) Search(ctx context.Context, fragment string, limit int) ([]models.VoteGroup, error) {
	if limit <= 0 {
		limit = DefaultGroupSearchLimit
	}

	cacheKey := GetGroupSearchCacheKey(fragment, limit)
	if v.cache != nil {
		if val, err := v.cache.Get(ctx, cacheKey, new([]models.VoteGroup)); err == nil {
			return *val.(*[]models.VoteGroup), nil
		}
	}

	var groups []models.VoteGroup
	err := v.db.Acquire(ctx, func(tx *gorm.DB) error {
		query, args := containsCaseSensitive(tx.Dialector.Name(), fragment)
		return database.NewQueryError(
			tx.Where(query, args...).Limit(limit).Find(&groups).Error,
		)
	})
	if err != nil {
		return nil, err
	}

	if v.cache != nil {
		if err := v.cache.Set(
			ctx,
			cacheKey,
			groups,
			store.WithExpiration(v.cacheTTL),
			store.WithTags([]string{groupCacheTag}),
		); err != nil {
			log.Debug().Err(err).Str("key", cacheKey).Msg("Unable to cache group search result...")
		}
	}

	return groups, nil
}

func (v *GroupRegistry) invalidate(ctx context.Context) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Invalidate(ctx, store.WithInvalidateTags([]string{groupCacheTag})); err != nil {
		log.Warn().Err(err).Msg("An error occurred when invalidating group search cache...")
	}
}

// containsCaseSensitive builds a literal, case-sensitive substring match on
// group_name. Plain LIKE folds case on sqlite and on mysql's default
// collations, so each dialect gets its own form.
func containsCaseSensitive(dialect, fragment string) (string, []any) {
	switch dialect {
	case "postgres":
		return "strpos(group_name, ?) > 0", []any{fragment}
	case "mysql":
		return "group_name LIKE BINARY ? ESCAPE '!'", []any{"%" + escapeLike(fragment) + "%"}
	default:
		return "instr(group_name, ?) > 0", []any{fragment}
	}
}

func escapeLike(in string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(in)
}
