package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

const (
	VoteCommandName = "vote"

	SubcommandNew        = "new"
	SubcommandResults    = "results"
	SubcommandEnd        = "end"
	SubcommandShow       = "show"
	SubcommandNewGroup   = "new_group"
	SubcommandListGroups = "list_groups"
	SubcommandAllResults = "all_results"

	OptionName      = "name"
	OptionOptions   = "options"
	OptionGroup     = "group"
	OptionGroupName = "group_name"
	OptionVoteID    = "vote_id"
)

func voteIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        OptionVoteID,
		Description: "ID of the vote",
		Required:    true,
		MinValue:    lo.ToPtr(1.0),
	}
}

// VoteCommand is the slash command definition the dispatcher understands.
func VoteCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        VoteCommandName,
		Description: "Voting commands",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandNew,
				Description: "Start a new vote",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        OptionName,
						Description: "Name of the vote",
						Required:    true,
						MaxLength:   100,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        OptionOptions,
						Description: "Comma separated options, e.g. Pizza, Tacos",
						Required:    true,
					},
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         OptionGroup,
						Description:  "Group for the vote (e.g. AGM2025)",
						Autocomplete: true,
						MaxLength:    100,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandResults,
				Description: "Show results of a vote",
				Options:     []*discordgo.ApplicationCommandOption{voteIDOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandEnd,
				Description: "End a vote",
				Options:     []*discordgo.ApplicationCommandOption{voteIDOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandShow,
				Description: "Re-show an active vote",
				Options:     []*discordgo.ApplicationCommandOption{voteIDOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandNewGroup,
				Description: "Create a new vote group",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        OptionGroupName,
						Description: "Name of the new group",
						Required:    true,
						MaxLength:   100,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandListGroups,
				Description: "List all available vote groups",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandAllResults,
				Description: "Show all votes in a group",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         OptionGroupName,
						Description:  "Name of the group",
						Required:     true,
						Autocomplete: true,
					},
				},
			},
		},
	}
}

type optionMap = map[string]*discordgo.ApplicationCommandInteractionDataOption

func subcommand(data discordgo.ApplicationCommandInteractionData) (string, optionMap) {
	for _, opt := range data.Options {
		if opt.Type != discordgo.ApplicationCommandOptionSubCommand {
			continue
		}
		return opt.Name, lo.SliceToMap(opt.Options, func(item *discordgo.ApplicationCommandInteractionDataOption) (string, *discordgo.ApplicationCommandInteractionDataOption) {
			return item.Name, item
		})
	}
	return "", nil
}

func stringValue(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	if opt == nil {
		return ""
	}
	switch val := opt.Value.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func stringOption(opts optionMap, name string) string {
	return strings.TrimSpace(stringValue(opts[name]))
}

// intOption tolerates the value arriving as a JSON number or a string.
func intOption(opts optionMap, name string) (int64, error) {
	opt, ok := opts[name]
	if !ok || opt == nil {
		return 0, fmt.Errorf("missing option %s", name)
	}
	switch val := opt.Value.(type) {
	case float64:
		if val != float64(int64(val)) {
			return 0, fmt.Errorf("option %s must be a whole number", name)
		}
		return int64(val), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	default:
		return 0, fmt.Errorf("option %s must be a number", name)
	}
}
