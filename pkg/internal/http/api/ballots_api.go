package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gvlarp/renfield/pkg/internal/auth"
	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/samber/lo"
)

const (
	ballotCustomIDPrefix = "vote"
	buttonsPerRow        = 5
)

func BallotCustomID(voteID uint, index int) string {
	return fmt.Sprintf("%s:%d:%d", ballotCustomIDPrefix, voteID, index)
}

func ParseBallotCustomID(customID string) (uint, int, error) {
	segments := strings.Split(customID, ":")
	if len(segments) != 3 || segments[0] != ballotCustomIDPrefix {
		return 0, 0, fmt.Errorf("invalid ballot custom id %q", customID)
	}
	voteID, err := strconv.ParseUint(segments[1], 10, 64)
	if err != nil || voteID == 0 {
		return 0, 0, fmt.Errorf("invalid vote id in custom id %q", customID)
	}
	index, err := strconv.Atoi(segments[2])
	if err != nil || index < 0 {
		return 0, 0, fmt.Errorf("invalid option index in custom id %q", customID)
	}
	return uint(voteID), index, nil
}

// BallotComponents renders one button per option, five to a row.
func BallotComponents(vote models.Vote) []discordgo.MessageComponent {
	buttons := lo.Map(vote.Options, func(item string, index int) discordgo.MessageComponent {
		return discordgo.Button{
			Label:    item,
			Style:    discordgo.PrimaryButton,
			CustomID: BallotCustomID(vote.ID, index),
		}
	})
	return lo.Map(lo.Chunk(buttons, buttonsPerRow), func(item []discordgo.MessageComponent, index int) discordgo.MessageComponent {
		return discordgo.ActionsRow{Components: item}
	})
}

func (v *Handler) castBallot(ctx context.Context, in *discordgo.Interaction, voteID uint, index int) *discordgo.InteractionResponse {
	ballot, err := v.votes.CastBallotAt(ctx, voteID, auth.UserID(in), index)
	if err != nil {
		return replyError(in, "cast", err)
	}

	return ephemeral(fmt.Sprintf("You voted for %s!", ballot.Choice))
}
