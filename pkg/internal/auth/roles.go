package auth

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

var (
	ErrGuildOnly   = errors.New("this command can only be used in a server")
	ErrMissingRole = errors.New("you do not have permission to use this command")
)

// RoleGate lets an interaction through when its member holds at least one of
// the required role ids. An empty requirement list lets every guild member
// through.
type RoleGate struct {
	required []string
}

func NewRoleGate(required []string) *RoleGate {
	return &RoleGate{required: lo.Uniq(required)}
}

func (v *RoleGate) Enabled() bool {
	return len(v.required) > 0
}

func (v *RoleGate) Check(in *discordgo.Interaction) error {
	if in.GuildID == "" || in.Member == nil {
		return ErrGuildOnly
	}
	if !v.Enabled() {
		return nil
	}
	if lo.Some(in.Member.Roles, v.required) {
		return nil
	}
	return ErrMissingRole
}

// UserID picks the acting user from either the guild member or the direct
// message user.
func UserID(in *discordgo.Interaction) string {
	if in.Member != nil && in.Member.User != nil {
		return in.Member.User.ID
	}
	if in.User != nil {
		return in.User.ID
	}
	return ""
}
