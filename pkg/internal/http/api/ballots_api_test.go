package api

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestBallotCustomID(t *testing.T) {
	id := BallotCustomID(12, 3)
	assert.Equal(t, "vote:12:3", id)

	voteID, index, err := ParseBallotCustomID(id)
	require.NoError(t, err)
	assert.EqualValues(t, 12, voteID)
	assert.Equal(t, 3, index)

	for _, bad := range []string{"", "vote", "vote:12", "poll:12:3", "vote:0:1", "vote:x:1", "vote:12:-1", "vote:12:3:4"} {
		_, _, err := ParseBallotCustomID(bad)
		assert.Error(t, err, bad)
	}
}

func TestBallotComponents(t *testing.T) {
	vote := models.Vote{ID: 4, Options: datatypes.JSONSlice[string]{"Pizza", "Tacos"}}

	rows := BallotComponents(vote)
	require.Len(t, rows, 1)
	row, ok := rows[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)

	button, ok := row.Components[1].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, "Tacos", button.Label)
	assert.Equal(t, "vote:4:1", button.CustomID)
}

func TestIntOption(t *testing.T) {
	opts := optionMap{
		"float":  {Name: "float", Value: float64(7)},
		"string": {Name: "string", Value: " 8 "},
		"frac":   {Name: "frac", Value: 1.5},
		"bool":   {Name: "bool", Value: true},
	}

	val, err := intOption(opts, "float")
	require.NoError(t, err)
	assert.EqualValues(t, 7, val)

	val, err = intOption(opts, "string")
	require.NoError(t, err)
	assert.EqualValues(t, 8, val)

	for _, name := range []string{"frac", "bool", "missing"} {
		_, err = intOption(opts, name)
		assert.Error(t, err, name)
	}
}

func TestVoteCommandDefinition(t *testing.T) {
	cmd := VoteCommand()
	assert.Equal(t, VoteCommandName, cmd.Name)

	var names []string
	for _, opt := range cmd.Options {
		assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, opt.Type)
		names = append(names, opt.Name)
	}
	assert.Equal(t, []string{
		SubcommandNew, SubcommandResults, SubcommandEnd, SubcommandShow,
		SubcommandNewGroup, SubcommandListGroups, SubcommandAllResults,
	}, names)
}
