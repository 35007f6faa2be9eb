package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gvlarp/renfield/pkg/internal/auth"
	"github.com/gvlarp/renfield/pkg/internal/http/exts"
	"github.com/gvlarp/renfield/pkg/internal/services"
)

type voteIDInput struct {
	VoteID int64 `validate:"min=1"`
}

func bindVoteID(opts optionMap) (uint, error) {
	id, err := intOption(opts, OptionVoteID)
	if err != nil {
		return 0, err
	}
	data := voteIDInput{VoteID: id}
	if err := exts.ValidateStruct(&data); err != nil {
		return 0, err
	}
	return uint(data.VoteID), nil
}

func invalidVoteID(err error) *discordgo.InteractionResponse {
	return ephemeral(fmt.Sprintf("Please provide a valid vote id (%v).", err))
}

func (v *Handler) createVote(ctx context.Context, in *discordgo.Interaction, opts optionMap) *discordgo.InteractionResponse {
	data := struct {
		Name    string `validate:"required,max=100"`
		Options string
		Group   string `validate:"max=100"`
	}{
		Name:    stringOption(opts, OptionName),
		Options: stringOption(opts, OptionOptions),
		Group:   stringOption(opts, OptionGroup),
	}

	if err := exts.ValidateStruct(&data); err != nil {
		return replyError(in, SubcommandNew, err)
	}

	vote, err := v.votes.CreateVote(ctx, auth.UserID(in), data.Name, data.Options, data.Group)
	if err != nil {
		return replyError(in, SubcommandNew, err)
	}

	return ephemeral(services.RenderVoteCreated(vote))
}

func (v *Handler) showResults(ctx context.Context, in *discordgo.Interaction, opts optionMap) *discordgo.InteractionResponse {
	voteID, err := bindVoteID(opts)
	if err != nil {
		return invalidVoteID(err)
	}

	result, err := v.votes.Tally(ctx, voteID)
	if err != nil {
		return replyError(in, SubcommandResults, err)
	}

	return ephemeral(services.RenderTally(result))
}

func (v *Handler) endVote(ctx context.Context, in *discordgo.Interaction, opts optionMap) *discordgo.InteractionResponse {
	voteID, err := bindVoteID(opts)
	if err != nil {
		return invalidVoteID(err)
	}

	result, err := v.votes.CloseVote(ctx, voteID, auth.UserID(in))
	if errors.Is(err, services.ErrVoteNotFound) {
		return ephemeral("Vote not found or already ended!")
	} else if err != nil {
		return replyError(in, SubcommandEnd, err)
	}

	return public(fmt.Sprintf("Vote #%d has ended!\n\n%s", voteID, services.RenderTally(result)))
}

func (v *Handler) showVote(ctx context.Context, in *discordgo.Interaction, opts optionMap) *discordgo.InteractionResponse {
	voteID, err := bindVoteID(opts)
	if err != nil {
		return invalidVoteID(err)
	}

	vote, err := v.votes.ReopenPresentation(ctx, voteID)
	if err != nil {
		return replyError(in, SubcommandShow, err)
	}

	return public(services.RenderBallotPrompt(vote), BallotComponents(vote)...)
}
