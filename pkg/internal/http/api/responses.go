package api

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/gvlarp/renfield/pkg/internal/auth"
	"github.com/gvlarp/renfield/pkg/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	MessageGenericFailure   = "An error occurred while executing the command."
	MessagePermissionDenied = "You do not have permission to use this command!"
	MessageGuildOnly        = "This command can only be used in a server!"
)

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func public(content string, components ...discordgo.MessageComponent) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	}
}

func autocomplete(choices []*discordgo.ApplicationCommandOptionChoice) *discordgo.InteractionResponse {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	}
}

func failureResponse(in *discordgo.Interaction) *discordgo.InteractionResponse {
	if in.Type == discordgo.InteractionApplicationCommandAutocomplete {
		return autocomplete(nil)
	}
	return ephemeral(MessageGenericFailure)
}

func describeGateError(err error) string {
	if errors.Is(err, auth.ErrGuildOnly) {
		return MessageGuildOnly
	}
	return MessagePermissionDenied
}

// replyError turns a failed operation into its single user facing reply.
// Infrastructure failures are logged and hidden behind a generic message.
func replyError(in *discordgo.Interaction, action string, err error) *discordgo.InteractionResponse {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		fields := lo.Map(invalid, func(item validator.FieldError, index int) string {
			return item.Field()
		})
		return ephemeral(fmt.Sprintf("Invalid input: %v", fields))
	}

	kind := services.Classify(err)
	if kind == services.KindInfrastructure {
		log.Error().Err(err).
			Str("interaction", in.ID).
			Str("action", action).
			Str("user", auth.UserID(in)).
			Msg("An error occurred when handling interaction...")
		return ephemeral(MessageGenericFailure)
	}

	log.Debug().Err(err).
		Str("action", action).
		Str("kind", kind.String()).
		Str("user", auth.UserID(in)).
		Msg("Interaction ended with a domain error.")

	switch {
	case errors.Is(err, services.ErrInsufficientOptions):
		return ephemeral("You must provide at least two options!")
	case errors.Is(err, services.ErrTooManyOptions):
		return ephemeral(fmt.Sprintf("A vote can have at most %d options!", services.MaxVoteOptions))
	case errors.Is(err, services.ErrOptionTooLong):
		return ephemeral(fmt.Sprintf("Each option can be at most %d characters long!", services.MaxVoteOptionRunes))
	case errors.Is(err, services.ErrInvalidChoice):
		return ephemeral("That is not an option of this vote!")
	case errors.Is(err, services.ErrVoteNotFound):
		return ephemeral("Vote not found!")
	case errors.Is(err, services.ErrGroupNotFound):
		return ephemeral("Group not found.")
	case errors.Is(err, services.ErrVoteClosed):
		return ephemeral("This vote has ended!")
	case errors.Is(err, services.ErrAlreadyVoted):
		return ephemeral("You have already voted!")
	case errors.Is(err, services.ErrGroupExists):
		return ephemeral("That group already exists!")
	case errors.Is(err, services.ErrNotCreator):
		return ephemeral("Only the creator can end this vote!")
	default:
		return ephemeral(err.Error())
	}
}
