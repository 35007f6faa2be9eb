package services

import (
	"context"
	"errors"

	"github.com/gvlarp/renfield/pkg/internal/database"
	"gorm.io/gorm"
)

var (
	ErrInsufficientOptions = errors.New("you must provide at least two options")
	ErrTooManyOptions      = errors.New("a vote can have at most 25 options")
	ErrOptionTooLong       = errors.New("an option can be at most 80 characters long")
	ErrInvalidChoice       = errors.New("that choice is not an option of this vote")

	ErrVoteNotFound  = errors.New("vote not found")
	ErrGroupNotFound = errors.New("group not found")

	ErrVoteClosed   = errors.New("vote has ended")
	ErrAlreadyVoted = errors.New("user has already voted")
	ErrGroupExists  = errors.New("group already exists")
	ErrNotCreator   = errors.New("only the creator can end this vote")
)

type ErrorKind int

const (
	KindInfrastructure = ErrorKind(iota)
	KindValidation
	KindNotFound
	KindConflict
)

func (v ErrorKind) String() string {
	switch v {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "infrastructure"
	}
}

// Classify places err in the error taxonomy. Anything unknown, including
// connection and query failures, is treated as infrastructure.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInsufficientOptions),
		errors.Is(err, ErrTooManyOptions),
		errors.Is(err, ErrOptionTooLong),
		errors.Is(err, ErrInvalidChoice):
		return KindValidation
	case errors.Is(err, ErrVoteNotFound), errors.Is(err, ErrGroupNotFound):
		return KindNotFound
	case errors.Is(err, ErrVoteClosed),
		errors.Is(err, ErrAlreadyVoted),
		errors.Is(err, ErrGroupExists),
		errors.Is(err, ErrNotCreator):
		return KindConflict
	default:
		return KindInfrastructure
	}
}

// Acquirer is the slice of the persistence gateway the services need.
type Acquirer interface {
	Acquire(ctx context.Context, fn func(tx *gorm.DB) error) error
	Transact(ctx context.Context, fn func(tx *gorm.DB) error) error
}

var _ Acquirer = (*database.Gateway)(nil)
