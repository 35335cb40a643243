package voice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onnwee/voicesmith/discordapi"
	"github.com/onnwee/voicesmith/telemetry"
)

// createTemporaryChannel creates the owner's private voice channel with the
// access overlay applied in the same call, then relocates the owner into it.
// Relocation failure is logged but does not roll back creation: the channel
// is real and will be tracked either way. A creation failure returns the
// error and nothing is tracked.
func (s *Service) createTemporaryChannel(ctx context.Context, guildID, owner discordapi.Snowflake, member *discordapi.Member, parent discordapi.Snowflake) (*discordapi.Channel, error) {
	name := member.DisplayName()
	if name == "" {
		name = string(owner)
	}
	name = fmt.Sprintf("%s's Channel", name)

	ctx, span := telemetry.StartSpan(ctx, "voice", "provision-channel",
		telemetry.GuildAttr(string(guildID)),
		telemetry.UserAttr(string(owner)),
	)
	defer span.End()

	params := discordapi.CreateChannelParams{
		Name:                 name,
		Type:                 discordapi.ChannelTypeGuildVoice,
		ParentID:             parent,
		PermissionOverwrites: accessOverlay(guildID, owner, s.platform.BotUserID(), s.hardened()),
	}
	var ch *discordapi.Channel
	var err error
	telemetry.TimeFunc(telemetry.ProvisionDuration, func() {
		ch, err = s.platform.CreateGuildChannel(ctx, guildID, params)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create channel %q: %w", name, err)
	}
	slog.Info("temporary channel created",
		slog.String("channel_id", string(ch.ID)),
		slog.String("name", name),
		slog.String("owner_id", string(owner)),
		slog.String("component", "provisioner"))

	if s.hardened() {
		if err := s.platform.EditChannelPermissions(ctx, s.opts.WaitingRoomID, waitingRoomGrant(owner)); err != nil {
			slog.Warn("waiting-room grant failed",
				slog.String("owner_id", string(owner)),
				slog.String("waiting_room_id", string(s.opts.WaitingRoomID)),
				slog.Any("err", err),
				slog.String("component", "provisioner"))
		}
	}

	if err := s.platform.MoveMember(ctx, guildID, owner, ch.ID); err != nil {
		telemetry.MovesFailed.Inc()
		slog.Error("failed to move owner into new channel",
			slog.String("owner_id", string(owner)),
			slog.String("channel_id", string(ch.ID)),
			slog.Any("err", err),
			slog.String("component", "provisioner"))
	} else {
		slog.Info("owner moved into new channel",
			slog.String("owner_id", string(owner)),
			slog.String("channel_id", string(ch.ID)),
			slog.String("component", "provisioner"))
	}

	telemetry.SetSpanSuccess(span)
	if ch.Name == "" {
		ch.Name = name
	}
	return ch, nil
}
