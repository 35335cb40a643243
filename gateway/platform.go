package gateway

import (
	"context"

	"github.com/onnwee/voicesmith/discordapi"
)

// Forwarders combining the state cache and the REST client into the single
// capability surface the lifecycle consumes.

func (s *Session) BotUserID() discordapi.Snowflake { return s.State.BotUserID() }

func (s *Session) Guild(id discordapi.Snowflake) (*discordapi.Guild, bool) {
	return s.State.Guild(id)
}

func (s *Session) Channel(id discordapi.Snowflake) (*discordapi.Channel, bool) {
	return s.State.Channel(id)
}

func (s *Session) VoiceChannelOccupants(channelID discordapi.Snowflake) []discordapi.Snowflake {
	return s.State.VoiceChannelOccupants(channelID)
}

func (s *Session) GuildMember(ctx context.Context, guildID, userID discordapi.Snowflake) (*discordapi.Member, error) {
	return s.Rest.GuildMember(ctx, guildID, userID)
}

func (s *Session) CreateGuildChannel(ctx context.Context, guildID discordapi.Snowflake, params discordapi.CreateChannelParams) (*discordapi.Channel, error) {
	return s.Rest.CreateGuildChannel(ctx, guildID, params)
}

func (s *Session) DeleteChannel(ctx context.Context, channelID discordapi.Snowflake) error {
	return s.Rest.DeleteChannel(ctx, channelID)
}

func (s *Session) MoveMember(ctx context.Context, guildID, userID, channelID discordapi.Snowflake) error {
	return s.Rest.MoveMember(ctx, guildID, userID, channelID)
}

func (s *Session) EditChannelPermissions(ctx context.Context, channelID discordapi.Snowflake, ow discordapi.Overwrite) error {
	return s.Rest.EditChannelPermissions(ctx, channelID, ow)
}

func (s *Session) GuildChannels(ctx context.Context, guildID discordapi.Snowflake) ([]discordapi.Channel, error) {
	return s.Rest.GuildChannels(ctx, guildID)
}
