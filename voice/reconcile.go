package voice

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/voicesmith/discordapi"
	"github.com/onnwee/voicesmith/telemetry"
)

// runReconcileJob periodically re-checks every tracked channel against the
// platform. It is the safety net for the one gap in the event-driven flow: a
// failed deletion leaves a record with no pending countdown, and if no
// further join/leave event ever arrives for that channel, it would persist
// indefinitely. The sweep is idempotent and cheap; it runs once on start and
// then on every tick.
func (s *Service) runReconcileJob(ctx context.Context) {
	slog.Info("reconcile sweep starting",
		slog.Duration("interval", s.opts.ReconcileInterval),
		slog.String("component", "reconcile"))

	s.reconcileOnce(ctx)

	ticker := time.NewTicker(s.opts.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("reconcile sweep stopped", slog.String("component", "reconcile"))
			return
		case <-ticker.C:
			s.reconcileOnce(ctx)
		}
	}
}

// reconcileOnce performs a single sweep cycle:
//   - records whose channel no longer exists platform-side are dropped (the
//     channel was deleted out from under us; tracking it would let the
//     platform reuse the id for an unrelated channel later),
//   - tracked channels that are empty with no pending countdown get one.
func (s *Service) reconcileOnce(ctx context.Context) {
	telemetry.ReconcileCycles.Inc()
	logger := slog.Default().With(slog.String("component", "reconcile"))

	snapshot := s.registry.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	// One channel listing per guild, not per record.
	liveByGuild := make(map[discordapi.Snowflake]map[discordapi.Snowflake]bool)
	for _, info := range snapshot {
		if _, done := liveByGuild[info.GuildID]; done {
			continue
		}
		chs, err := s.platform.GuildChannels(ctx, info.GuildID)
		if err != nil {
			logger.Warn("guild channel listing failed, skipping guild this cycle",
				slog.String("guild_id", string(info.GuildID)),
				slog.Any("err", err))
			liveByGuild[info.GuildID] = nil
			continue
		}
		live := make(map[discordapi.Snowflake]bool, len(chs))
		for _, ch := range chs {
			live[ch.ID] = true
		}
		liveByGuild[info.GuildID] = live
	}

	var dropped, scheduled int
	for _, info := range snapshot {
		live := liveByGuild[info.GuildID]
		if live == nil {
			continue
		}
		if !live[info.ChannelID] {
			s.registry.Update(info.ChannelID, func(rec *Record) {
				if rec.pending != nil {
					rec.pending.Cancel()
					rec.pending = nil
				}
			})
			if rec := s.registry.Remove(info.ChannelID); rec != nil {
				dropped++
				logger.Info("dropped record for vanished channel",
					slog.String("channel_id", string(info.ChannelID)),
					slog.String("name", info.Name))
				s.journalEvent(ctx, "record_dropped", info.ChannelID, info.GuildID, rec.Owner, "channel no longer exists")
			}
			continue
		}
		s.registry.Update(info.ChannelID, func(rec *Record) {
			if rec.pending != nil {
				return
			}
			if len(s.platform.VoiceChannelOccupants(info.ChannelID)) != 0 {
				return
			}
			rec.pending = s.scheduleDeletion(info.ChannelID, rec.Name)
			scheduled++
		})
	}

	telemetry.SetTrackedChannels(s.registry.Len())
	if dropped > 0 || scheduled > 0 {
		logger.Info("reconcile cycle completed",
			slog.Int("dropped", dropped),
			slog.Int("rescheduled", scheduled))
	}
}
