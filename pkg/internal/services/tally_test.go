package services

import (
	"testing"

	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func voteWithOptions(options ...string) models.Vote {
	return models.Vote{
		ID:       7,
		Name:     "Pizza or Tacos",
		Options:  datatypes.JSONSlice[string](options),
		IsActive: true,
	}
}

func TestComputeTally(t *testing.T) {
	tests := []struct {
		name       string
		options    []string
		counts     map[string]int64
		perOption  map[string]int64
		total      int64
		winners    []string
		noVotesYet bool
	}{
		{
			name:      "single winner",
			options:   []string{"Pizza", "Tacos"},
			counts:    map[string]int64{"Pizza": 2},
			perOption: map[string]int64{"Pizza": 2, "Tacos": 0},
			total:     2,
			winners:   []string{"Pizza"},
		},
		{
			name:      "tie keeps option order",
			options:   []string{"Tacos", "Sushi", "Pizza"},
			counts:    map[string]int64{"Pizza": 3, "Tacos": 3, "Sushi": 1},
			perOption: map[string]int64{"Pizza": 3, "Tacos": 3, "Sushi": 1},
			total:     7,
			winners:   []string{"Tacos", "Pizza"},
		},
		{
			name:       "no ballots",
			options:    []string{"Pizza", "Tacos"},
			counts:     map[string]int64{},
			perOption:  map[string]int64{"Pizza": 0, "Tacos": 0},
			total:      0,
			winners:    []string{"Pizza", "Tacos"},
			noVotesYet: true,
		},
		{
			name:      "unknown choices are ignored",
			options:   []string{"Pizza", "Tacos"},
			counts:    map[string]int64{"Tacos": 1, "Burgers": 9},
			perOption: map[string]int64{"Pizza": 0, "Tacos": 1},
			total:     1,
			winners:   []string{"Tacos"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeTally(voteWithOptions(tt.options...), tt.counts)
			assert.Equal(t, tt.perOption, result.PerOption)
			assert.Equal(t, tt.total, result.TotalVotes)
			assert.Equal(t, tt.winners, result.Winners)
			assert.Equal(t, tt.noVotesYet, result.NoVotes())
			assert.Equal(t, tt.options, optionNames(result.Options))
		})
	}
}

func TestComputeTallyTotalsMatchCounts(t *testing.T) {
	result := ComputeTally(voteWithOptions("A", "B", "C"), map[string]int64{"A": 4, "B": 2, "C": 4})

	var sum int64
	for _, item := range result.Options {
		sum += item.Count
		assert.Equal(t, item.Count == 4, item.Winner, item.Option)
	}
	assert.Equal(t, result.TotalVotes, sum)
	assert.NotEmpty(t, result.Winners)
}

func optionNames(options []OptionCount) []string {
	out := make([]string, 0, len(options))
	for _, item := range options {
		out = append(out, item.Option)
	}
	return out
}
