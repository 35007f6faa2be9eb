package api

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2"
	"github.com/gvlarp/renfield/pkg/internal/auth"
	"github.com/gvlarp/renfield/pkg/internal/http/exts"
	"github.com/rs/zerolog/log"
)

// receiveInteraction answers every webhook call with exactly one response
// body; that body is the interaction's only acknowledgement.
func (v *Handler) receiveInteraction(c *fiber.Ctx) error {
	var in discordgo.Interaction
	if err := exts.BindAndValidate(c, &in); err != nil {
		return err
	}

	var resp *discordgo.InteractionResponse
	switch in.Type {
	case discordgo.InteractionPing:
		resp = &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
	case discordgo.InteractionApplicationCommand:
		resp = v.withDeadline(&in, v.dispatchCommand)
	case discordgo.InteractionApplicationCommandAutocomplete:
		resp = v.withDeadline(&in, v.dispatchAutocomplete)
	case discordgo.InteractionMessageComponent:
		resp = v.withDeadline(&in, v.dispatchComponent)
	default:
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unsupported interaction type %d", in.Type))
	}

	return c.JSON(resp)
}

type interactionFunc func(ctx context.Context, in *discordgo.Interaction) *discordgo.InteractionResponse

// withDeadline runs fn under the configured interaction timeout. When fn does
// not finish in time, or panics, a generic failure is returned instead so
// the platform always gets an answer inside its window.
func (v *Handler) withDeadline(in *discordgo.Interaction, fn interactionFunc) *discordgo.InteractionResponse {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	done := make(chan *discordgo.InteractionResponse, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("interaction", in.ID).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("Recovered from panic when handling interaction...")
				done <- failureResponse(in)
			}
		}()
		done <- fn(ctx, in)
	}()

	select {
	case resp := <-done:
		return resp
	case <-ctx.Done():
		log.Error().
			Str("interaction", in.ID).
			Str("user", auth.UserID(in)).
			Dur("timeout", v.timeout).
			Msg("Interaction did not finish inside its window...")
		return failureResponse(in)
	}
}

func (v *Handler) dispatchCommand(ctx context.Context, in *discordgo.Interaction) *discordgo.InteractionResponse {
	data := in.ApplicationCommandData()
	if data.Name != VoteCommandName {
		return ephemeral(fmt.Sprintf("Unknown command: %s", data.Name))
	}

	if err := v.gate.Check(in); err != nil {
		log.Debug().Err(err).Str("user", auth.UserID(in)).Msg("Interaction rejected by role gate.")
		return ephemeral(describeGateError(err))
	}

	sub, opts := subcommand(data)
	if sub == "" {
		return ephemeral("Please pick a vote sub command.")
	}

	switch sub {
	case SubcommandNew:
		return v.createVote(ctx, in, opts)
	case SubcommandResults:
		return v.showResults(ctx, in, opts)
	case SubcommandEnd:
		return v.endVote(ctx, in, opts)
	case SubcommandShow:
		return v.showVote(ctx, in, opts)
	case SubcommandNewGroup:
		return v.createGroup(ctx, in, opts)
	case SubcommandListGroups:
		return v.listGroups(ctx, in, opts)
	case SubcommandAllResults:
		return v.showGroupResults(ctx, in, opts)
	default:
		return ephemeral(fmt.Sprintf("Unknown sub command: %s", sub))
	}
}

func (v *Handler) dispatchAutocomplete(ctx context.Context, in *discordgo.Interaction) *discordgo.InteractionResponse {
	data := in.ApplicationCommandData()
	_, opts := subcommand(data)
	for _, opt := range opts {
		if opt.Focused && (opt.Name == OptionGroup || opt.Name == OptionGroupName) {
			return v.autocompleteGroups(ctx, in, stringValue(opt))
		}
	}
	return autocomplete(nil)
}

func (v *Handler) dispatchComponent(ctx context.Context, in *discordgo.Interaction) *discordgo.InteractionResponse {
	data := in.MessageComponentData()
	voteID, index, err := ParseBallotCustomID(data.CustomID)
	if err != nil {
		log.Debug().Err(err).Str("custom_id", data.CustomID).Msg("Ignored unknown component.")
		return ephemeral("This button is no longer supported.")
	}
	return v.castBallot(ctx, in, voteID, index)
}
