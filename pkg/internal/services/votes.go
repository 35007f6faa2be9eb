package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gvlarp/renfield/pkg/internal/database"
	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MinVoteOptions     = 2
	MaxVoteOptions     = 25
	MaxVoteOptionRunes = 80
)

type VoteService struct {
	db     Acquirer
	groups *GroupRegistry
}

func NewVoteService(db Acquirer, groups *GroupRegistry) *VoteService {
	return &VoteService{db: db, groups: groups}
}

// ParseOptions splits a comma separated option list, trims every entry and
// drops the empty ones. Input order and repeated entries are kept.
func ParseOptions(raw string) ([]string, error) {
	options := lo.Filter(
		lo.Map(strings.Split(raw, ","), func(item string, index int) string {
			return strings.TrimSpace(item)
		}),
		func(item string, index int) bool {
			return len(item) > 0
		},
	)

	if len(options) < MinVoteOptions {
		return nil, ErrInsufficientOptions
	} else if len(options) > MaxVoteOptions {
		return nil, ErrTooManyOptions
	}
	for _, option := range options {
		if utf8.RuneCountInString(option) > MaxVoteOptionRunes {
			return nil, ErrOptionTooLong
		}
	}

	return options, nil
}

// CreateVote validates the options before touching the store, so a rejected
// request never leaves a row behind. When groupName is set the group is
// resolved or created in the same transaction as the vote.
func (v *VoteService) CreateVote(ctx context.Context, creatorID, name, rawOptions, groupName string) (models.Vote, error) {
	options, err := ParseOptions(rawOptions)
	if err != nil {
		return models.Vote{}, err
	}

	vote := models.Vote{
		CreatorID: creatorID,
		Name:      name,
		Options:   datatypes.JSONSlice[string](options),
		IsActive:  true,
	}

	var groupCreated bool
	err = v.db.Transact(ctx, func(tx *gorm.DB) error {
		if len(groupName) > 0 {
			group, created, err := findOrCreateGroup(tx, groupName)
			if err != nil {
				return err
			}
			groupCreated = created
			vote.GroupID = &group.ID
			vote.Group = &group
		}

		return database.NewQueryError(tx.Omit("Group").Create(&vote).Error)
	})
	if err != nil {
		return vote, err
	}

	if groupCreated {
		v.groups.invalidate(ctx)
	}

	return vote, nil
}

func findVote(tx *gorm.DB, id uint) (models.Vote, error) {
	var vote models.Vote
	if err := tx.Preload("Group").Where("id = ?", id).First(&vote).Error; err != nil {
		if database.IsNotFound(err) {
			return vote, ErrVoteNotFound
		}
		return vote, database.NewQueryError(err)
	}
	return vote, nil
}

func (v *VoteService) GetVote(ctx context.Context, id uint) (models.Vote, error) {
	var vote models.Vote
	err := v.db.Acquire(ctx, func(tx *gorm.DB) error {
		var err error
		vote, err = findVote(tx, id)
		return err
	})
	return vote, err
}

// CastBallot records userID's choice on an active vote.
func (v *VoteService) CastBallot(ctx context.Context, voteID uint, userID, choice string) (models.Ballot, error) {
	return v.castBallot(ctx, voteID, userID, func(vote models.Vote) (string, error) {
		if !lo.Contains(vote.Options, choice) {
			return "", ErrInvalidChoice
		}
		return choice, nil
	})
}

// CastBallotAt is CastBallot with the choice given as a position in the
// vote's stored option list, which is what the ballot buttons carry.
func (v *VoteService) CastBallotAt(ctx context.Context, voteID uint, userID string, index int) (models.Ballot, error) {
	return v.castBallot(ctx, voteID, userID, func(vote models.Vote) (string, error) {
		if index < 0 || index >= len(vote.Options) {
			return "", ErrInvalidChoice
		}
		return vote.Options[index], nil
	})
}

// castBallot does not pre-check for an existing ballot: the unique index on
// (vote_id, user_id) decides, so two concurrent casts by the same user end up
// with exactly one row. A ballot is never committed once ctx is done.
func (v *VoteService) castBallot(
	ctx context.Context,
	voteID uint,
	userID string,
	resolve func(vote models.Vote) (string, error),
) (models.Ballot, error) {
	ballot := models.Ballot{VoteID: voteID, UserID: userID}
	err := v.db.Acquire(ctx, func(tx *gorm.DB) error {
		vote, err := findVote(tx, voteID)
		if err != nil {
			return err
		}
		if !vote.IsActive {
			return ErrVoteClosed
		}
		if ballot.Choice, err = resolve(vote); err != nil {
			return err
		}

		// Only the insert is transactional. A caller that gave up waiting has
		// already answered the user, so the ballot must not land afterwards.
		return tx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&ballot).Error; err != nil {
				if database.IsUniqueViolation(err) {
					return ErrAlreadyVoted
				}
				return database.NewQueryError(err)
			}
			return ctx.Err()
		})
	})
	return ballot, err
}

// CloseVote ends an active vote on behalf of its creator and returns the
// final tally, computed in the same transaction as the state change.
func (v *VoteService) CloseVote(ctx context.Context, voteID uint, requesterID string) (TallyResult, error) {
	var result TallyResult
	err := v.db.Transact(ctx, func(tx *gorm.DB) error {
		vote, err := findVote(tx, voteID)
		if err != nil {
			return err
		}
		if !vote.IsActive {
			return ErrVoteNotFound
		}
		if vote.CreatorID != requesterID {
			return ErrNotCreator
		}

		closedAt := time.Now()
		update := tx.Model(&models.Vote{}).
			Where("id = ? AND is_active = ? AND creator_id = ?", voteID, true, requesterID).
			Updates(map[string]any{
				"is_active": false,
				"closed_at": closedAt,
			})
		if update.Error != nil {
			return database.NewQueryError(update.Error)
		} else if update.RowsAffected == 0 {
			// Someone closed it between our read and the update.
			return ErrVoteNotFound
		}

		vote.IsActive = false
		vote.ClosedAt = &closedAt
		result, err = tallyWith(tx, vote)
		return err
	})
	return result, err
}

// ReopenPresentation loads an active vote so its ballot can be shown again.
func (v *VoteService) ReopenPresentation(ctx context.Context, voteID uint) (models.Vote, error) {
	vote, err := v.GetVote(ctx, voteID)
	if err != nil {
		return vote, err
	}
	if !vote.IsActive {
		return vote, ErrVoteClosed
	}
	return vote, nil
}

func (v *VoteService) Tally(ctx context.Context, voteID uint) (TallyResult, error) {
	var result TallyResult
	err := v.db.Acquire(ctx, func(tx *gorm.DB) error {
		vote, err := findVote(tx, voteID)
		if err != nil {
			return err
		}
		result, err = tallyWith(tx, vote)
		return err
	})
	return result, err
}

type VoteSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type GroupSummary struct {
	Group models.VoteGroup `json:"group"`
	Votes []VoteSummary    `json:"votes"`
}

// GroupSummary lists the votes filed under a group. It is a listing only;
// no per-vote tallies are computed.
func (v *VoteService) GroupSummary(ctx context.Context, groupName string) (GroupSummary, error) {
	var summary GroupSummary
	group, err := v.groups.Get(ctx, groupName)
	if err != nil {
		return summary, err
	}
	summary.Group = group

	err = v.db.Acquire(ctx, func(tx *gorm.DB) error {
		var votes []models.Vote
		if err := tx.Where("group_id = ?", group.ID).Order("id").Find(&votes).Error; err != nil {
			return database.NewQueryError(err)
		}
		summary.Votes = lo.Map(votes, func(item models.Vote, index int) VoteSummary {
			return VoteSummary{ID: item.ID, Name: item.Name, IsActive: item.IsActive}
		})
		return nil
	})
	return summary, err
}
