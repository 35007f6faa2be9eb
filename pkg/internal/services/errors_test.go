package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gvlarp/renfield/pkg/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{ErrInsufficientOptions, KindValidation},
		{ErrTooManyOptions, KindValidation},
		{ErrOptionTooLong, KindValidation},
		{ErrInvalidChoice, KindValidation},
		{ErrVoteNotFound, KindNotFound},
		{ErrGroupNotFound, KindNotFound},
		{ErrVoteClosed, KindConflict},
		{ErrAlreadyVoted, KindConflict},
		{ErrGroupExists, KindConflict},
		{ErrNotCreator, KindConflict},
		{fmt.Errorf("cast: %w", ErrAlreadyVoted), KindConflict},
		{&database.ConnectionError{Err: errors.New("refused")}, KindInfrastructure},
		{&database.QueryError{Err: errors.New("syntax")}, KindInfrastructure},
		{context.DeadlineExceeded, KindInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.kind, Classify(tt.err))
		})
	}
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "infrastructure", KindInfrastructure.String())
}

func TestInfrastructureErrorsSurface(t *testing.T) {
	votes, groups, gw := newTestServices(t)
	ctx := context.Background()
	vote := mustCreateVote(t, votes, "100", "Pizza or Tacos", "Pizza, Tacos", "")
	is := assert.New(t)

	is.NoError(gw.Close())

	_, err := votes.CastBallot(ctx, vote.ID, "200", "Pizza")
	is.True(database.IsConnectionError(err))
	is.Equal(KindInfrastructure, Classify(err))

	_, err = groups.Create(ctx, "Anything")
	is.True(database.IsConnectionError(err))
}

type fakePinger struct {
	err   error
	calls int
}

func (v *fakePinger) Ping(ctx context.Context) error {
	v.calls++
	return v.err
}

func TestDoStoreHealthCheck(t *testing.T) {
	ok := &fakePinger{}
	DoStoreHealthCheck(ok)
	assert.Equal(t, 1, ok.calls)

	failing := &fakePinger{err: errors.New("down")}
	DoStoreHealthCheck(failing)
	assert.Equal(t, 1, failing.calls)
}
