package services

import (
	"fmt"
	"strings"

	"github.com/gvlarp/renfield/pkg/internal/models"
)

// RenderTally formats a tally as chat markdown. Options keep their stored
// order and winners are bolded.
func RenderTally(result TallyResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Vote Results for: %s\n", result.Vote.Name)
	for _, item := range result.Options {
		if item.Winner && !result.NoVotes() {
			fmt.Fprintf(&sb, "**%s**: **%s**\n", item.Option, pluralVotes(item.Count))
		} else {
			fmt.Fprintf(&sb, "%s: %s\n", item.Option, pluralVotes(item.Count))
		}
	}
	fmt.Fprintf(&sb, "\n**Total Votes:** %d\n", result.TotalVotes)

	switch {
	case result.NoVotes():
		sb.WriteString("No votes have been cast yet.")
	case len(result.Winners) > 1:
		fmt.Fprintf(&sb, "## Winners (tie): %s", strings.Join(result.Winners, ", "))
	default:
		fmt.Fprintf(&sb, "## Winner: %s", result.Winners[0])
	}

	return sb.String()
}

func pluralVotes(count int64) string {
	if count == 1 {
		return "1 vote"
	}
	return fmt.Sprintf("%d votes", count)
}

func RenderGroupSummary(summary GroupSummary) string {
	if len(summary.Votes) == 0 {
		return fmt.Sprintf("No votes found in group **%s**.", summary.Group.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# **Group Results: %s**\n\n", summary.Group.Name)
	for _, item := range summary.Votes {
		fmt.Fprintf(&sb, "## %s (#%d)", item.Name, item.ID)
		if !item.IsActive {
			sb.WriteString(" - ended")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func RenderGroupList(groups []models.VoteGroup) string {
	if len(groups) == 0 {
		return "No vote groups found."
	}

	var sb strings.Builder
	sb.WriteString("**Available Vote Groups:**")
	for _, group := range groups {
		fmt.Fprintf(&sb, "\n• %s", group.Name)
	}
	return sb.String()
}

func RenderBallotPrompt(vote models.Vote) string {
	return fmt.Sprintf("**Vote #%d:** %s\nClick below to vote:", vote.ID, vote.Name)
}

func RenderVoteCreated(vote models.Vote) string {
	group := "No Group"
	if vote.Group != nil {
		group = vote.Group.Name
	}
	return fmt.Sprintf(
		"New Vote Created: **%s** (#%d)\nOptions: %s\nGroup: %s",
		vote.Name, vote.ID, strings.Join(vote.Options, ", "), group,
	)
}
