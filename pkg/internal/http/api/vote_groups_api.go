package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gvlarp/renfield/pkg/internal/http/exts"
	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/gvlarp/renfield/pkg/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type groupNameInput struct {
	GroupName string `validate:"required,max=100"`
}

func (v *Handler) createGroup(ctx context.Context, in *discordgo.Interaction, opts optionMap) *discordgo.InteractionResponse {
	data := groupNameInput{GroupName: stringOption(opts, OptionGroupName)}
	if err := exts.ValidateStruct(&data); err != nil {
		return replyError(in, SubcommandNewGroup, err)
	}

	group, err := v.groups.Create(ctx, data.GroupName)
	if errors.Is(err, services.ErrGroupExists) {
		return ephemeral(fmt.Sprintf("Group **%s** already exists!", data.GroupName))
	} else if err != nil {
		return replyError(in, SubcommandNewGroup, err)
	}

	return ephemeral(fmt.Sprintf("Vote group **%s** has been created!", group.Name))
}

func (v *Handler) listGroups(ctx context.Context, in *discordgo.Interaction, _ optionMap) *discordgo.InteractionResponse {
	groups, err := v.groups.ListAll(ctx)
	if err != nil {
		return replyError(in, SubcommandListGroups, err)
	}

	return ephemeral(services.RenderGroupList(groups))
}

func (v *Handler) showGroupResults(ctx context.Context, in *discordgo.Interaction, opts optionMap) *discordgo.InteractionResponse {
	data := groupNameInput{GroupName: stringOption(opts, OptionGroupName)}
	if err := exts.ValidateStruct(&data); err != nil {
		return replyError(in, SubcommandAllResults, err)
	}

	summary, err := v.votes.GroupSummary(ctx, data.GroupName)
	if errors.Is(err, services.ErrGroupNotFound) {
		return ephemeral(fmt.Sprintf("Group **%s** not found.", data.GroupName))
	} else if err != nil {
		return replyError(in, SubcommandAllResults, err)
	}

	return ephemeral(services.RenderGroupSummary(summary))
}

func (v *Handler) autocompleteGroups(ctx context.Context, in *discordgo.Interaction, fragment string) *discordgo.InteractionResponse {
	groups, err := v.groups.Search(ctx, fragment, services.DefaultGroupSearchLimit)
	if err != nil {
		log.Warn().Err(err).Str("interaction", in.ID).Msg("An error occurred when searching vote groups...")
		return autocomplete(nil)
	}

	return autocomplete(lo.Map(groups, func(item models.VoteGroup, index int) *discordgo.ApplicationCommandOptionChoice {
		return &discordgo.ApplicationCommandOptionChoice{Name: item.Name, Value: item.Name}
	}))
}
