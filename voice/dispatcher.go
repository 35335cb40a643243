package voice

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/onnwee/voicesmith/discordapi"
	"github.com/onnwee/voicesmith/telemetry"
)

// Event is one voice-presence notification: the user moved from PrevChannelID
// (zero if they were not in voice) to NewChannelID (zero on disconnect).
type Event struct {
	GuildID       discordapi.Snowflake
	UserID        discordapi.Snowflake
	PrevChannelID discordapi.Snowflake
	NewChannelID  discordapi.Snowflake
	// Member as carried on the notification; may be nil, in which case
	// the dispatcher resolves it when needed.
	Member *discordapi.Member
}

// HandleVoiceUpdate processes one notification. The three phases run for
// every notification, in order; a failure in one phase is logged and does
// not stop the others. Notifications for different users may be handled
// concurrently.
func (s *Service) HandleVoiceUpdate(ctx context.Context, ev Event) {
	telemetry.EventsHandled.Inc()
	if telemetry.GetCorrelation(ctx) == "" {
		ctx = telemetry.WithCorrelation(ctx, uuid.New().String())
	}
	logger := telemetry.LoggerWithCorr(ctx).With(
		slog.String("user_id", string(ev.UserID)),
		slog.String("guild_id", string(ev.GuildID)),
		slog.String("component", "dispatcher"),
	)

	s.handleJoinCreator(ctx, ev, logger)
	s.handleLeaveTracked(ctx, ev, logger)
	s.handleJoinTracked(ctx, ev, logger)
}

// handleJoinCreator provisions a personal channel when the user joins the
// creator channel. A user owns at most one temporary channel: re-entering
// the creator channel recycles the old one instead of accumulating.
func (s *Service) handleJoinCreator(ctx context.Context, ev Event, logger *slog.Logger) {
	if ev.NewChannelID.IsZero() || ev.NewChannelID != s.opts.CreatorChannelID {
		return
	}
	if ev.GuildID.IsZero() {
		return
	}

	if !s.hasManageChannels(ctx, ev.GuildID) {
		telemetry.PermissionDenials.Inc()
		logger.Error("bot lacks manage-channels in guild, not provisioning")
		return
	}

	member := ev.Member
	if member == nil {
		m, err := s.platform.GuildMember(ctx, ev.GuildID, ev.UserID)
		if err != nil {
			logger.Error("could not resolve member", slog.Any("err", err))
			return
		}
		member = m
	}

	// New temporary channels mirror the creator channel's category.
	var parent discordapi.Snowflake
	if ch, ok := s.platform.Channel(s.opts.CreatorChannelID); ok {
		parent = ch.ParentID
	}

	s.provisionMu.Lock()
	defer s.provisionMu.Unlock()

	if oldID, ok := s.registry.FindByOwner(ev.UserID); ok {
		if !s.recycleChannel(ctx, oldID, ev.UserID, logger) {
			return
		}
	}

	ch, err := s.createTemporaryChannel(ctx, ev.GuildID, ev.UserID, member, parent)
	if err != nil {
		telemetry.CreateFailures.Inc()
		logger.Error("channel provisioning failed", slog.Any("err", err))
		return
	}
	s.registry.Insert(ch.ID, &Record{Owner: ev.UserID, GuildID: ev.GuildID, Name: ch.Name})
	telemetry.ChannelsCreated.Inc()
	telemetry.SetTrackedChannels(s.registry.Len())
	s.journalEvent(ctx, "channel_created", ch.ID, ev.GuildID, ev.UserID, ch.Name)
}

// recycleChannel deletes the owner's previous temporary channel before a new
// one is provisioned. If the platform delete fails the record stays (the old
// channel still exists) and provisioning is aborted.
func (s *Service) recycleChannel(ctx context.Context, channelID, owner discordapi.Snowflake, logger *slog.Logger) bool {
	s.registry.Update(channelID, func(rec *Record) {
		if rec.pending != nil {
			rec.pending.Cancel()
			rec.pending = nil
		}
	})
	if err := s.platform.DeleteChannel(ctx, channelID); err != nil {
		telemetry.DeleteFailures.Inc()
		logger.Error("failed to delete owner's previous channel",
			slog.String("channel_id", string(channelID)),
			slog.Any("err", err))
		return false
	}
	rec := s.registry.Remove(channelID)
	telemetry.ChannelsDeleted.Inc()
	telemetry.SetTrackedChannels(s.registry.Len())
	logger.Info("recycled owner's previous channel", slog.String("channel_id", string(channelID)))
	var guildID discordapi.Snowflake
	if rec != nil {
		guildID = rec.GuildID
	}
	s.journalEvent(ctx, "channel_recycled", channelID, guildID, owner, "")
	return true
}

// handleLeaveTracked schedules deletion when a tracked channel empties. The
// empty check, the cancellation of any stale countdown, and the scheduling of
// the fresh one happen under a single registry lock acquisition, so two
// racing leave events can never start competing countdowns. Restarting the
// countdown measures the grace period from the latest emptying, not the
// first.
func (s *Service) handleLeaveTracked(ctx context.Context, ev Event, logger *slog.Logger) {
	if ev.PrevChannelID.IsZero() || ev.PrevChannelID == ev.NewChannelID {
		return
	}
	scheduled := false
	var name string
	s.registry.Update(ev.PrevChannelID, func(rec *Record) {
		if len(s.platform.VoiceChannelOccupants(ev.PrevChannelID)) != 0 {
			return
		}
		if rec.pending != nil {
			rec.pending.Cancel()
		}
		rec.pending = s.scheduleDeletion(ev.PrevChannelID, rec.Name)
		name = rec.Name
		scheduled = true
	})
	if scheduled {
		logger.Info("channel empty, deletion scheduled",
			slog.String("channel_id", string(ev.PrevChannelID)),
			slog.String("name", name),
			slog.Duration("grace", s.opts.GracePeriod))
		s.journalEvent(ctx, "deletion_scheduled", ev.PrevChannelID, ev.GuildID, "", "")
	}
}

// handleJoinTracked cancels a pending deletion when anyone joins a tracked
// channel: it is inhabited again, so deletion is no longer warranted.
func (s *Service) handleJoinTracked(ctx context.Context, ev Event, logger *slog.Logger) {
	if ev.NewChannelID.IsZero() {
		return
	}
	cancelled := false
	s.registry.Update(ev.NewChannelID, func(rec *Record) {
		if rec.pending != nil {
			rec.pending.Cancel()
			rec.pending = nil
			cancelled = true
		}
	})
	if cancelled {
		telemetry.DeletionsCancelled.Inc()
		logger.Info("deletion cancelled, channel rejoined",
			slog.String("channel_id", string(ev.NewChannelID)))
		s.journalEvent(ctx, "deletion_cancelled", ev.NewChannelID, ev.GuildID, "", "")
	}
}
