package voice

import (
	"context"

	"github.com/onnwee/voicesmith/discordapi"
)

// hasManageChannels reports whether the bot itself holds Manage Channels in
// the guild. Any resolution failure (guild not cached, member fetch error)
// is treated as a denial; callers abort the triggering operation and must
// not retry.
func (s *Service) hasManageChannels(ctx context.Context, guildID discordapi.Snowflake) bool {
	g, ok := s.platform.Guild(guildID)
	if !ok {
		return false
	}
	botID := s.platform.BotUserID()
	if botID.IsZero() {
		return false
	}
	m, err := s.platform.GuildMember(ctx, guildID, botID)
	if err != nil {
		return false
	}
	return discordapi.BasePermissions(g, botID, m).Has(discordapi.PermissionManageChannels)
}
